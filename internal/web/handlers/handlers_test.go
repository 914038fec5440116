package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/midday-ai/canvas/internal/artifact"
	"github.com/midday-ai/canvas/internal/assistant"
	"github.com/midday-ai/canvas/internal/conversation"
	"github.com/midday-ai/canvas/internal/log"
	"github.com/midday-ai/canvas/internal/metrics"
	"github.com/midday-ai/canvas/internal/session"
	"github.com/midday-ai/canvas/internal/tools"
	"github.com/midday-ai/canvas/internal/web/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestHandlers builds the handler set in simulation mode: static
// provider, no Genkit.
func newTestHandlers(t *testing.T) (*Handlers, *session.Manager) {
	t.Helper()
	logger := log.NewNop()
	gen := assistant.New(nil, "", logger)
	kit := tools.NewKit(metrics.NewStatic(), gen, logger)
	sessions := session.NewManager(30*time.Minute, logger)
	h := New(Config{
		Kit:          kit,
		Runner:       tools.NewRunner(logger),
		Router:       render.NewRouter(logger),
		Sessions:     sessions,
		StallTimeout: time.Second,
		Logger:       logger,
	})
	return h, sessions
}

func sessionRequest(r *http.Request, s *session.Session) *http.Request {
	return r.WithContext(ContextWithSession(r.Context(), s))
}

func TestCanvasPageEmptySession(t *testing.T) {
	h, sessions := newTestHandlers(t)
	sess := sessions.Create()

	r := sessionRequest(httptest.NewRequest(http.MethodGet, "/canvas", nil), sess)
	w := httptest.NewRecorder()
	h.CanvasPage(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "canvas-empty") {
		t.Errorf("empty session did not render the empty state:\n%s", body)
	}
	if !strings.Contains(body, "chat-form") {
		t.Errorf("chat form missing:\n%s", body)
	}
}

func TestCanvasPageSelectsArtifact(t *testing.T) {
	h, sessions := newTestHandlers(t)
	sess := sessions.Create()

	sess.Store.CreateOrUpdate(artifact.TypeBurnRate, 0, artifact.StageLoading, artifact.Payload{})
	sess.Store.CreateOrUpdate(artifact.TypeRevenue, 0, artifact.StageLoading, artifact.Payload{})

	r := sessionRequest(httptest.NewRequest(http.MethodGet, "/canvas?artifact-type=burn-rate-canvas", nil), sess)
	w := httptest.NewRecorder()
	h.CanvasPage(w, r)

	body := w.Body.String()
	if !strings.Contains(body, `data-artifact-type="burn-rate-canvas"`) {
		t.Errorf("selected canvas not rendered:\n%s", body)
	}
	if strings.Count(body, "tab-active") != 1 {
		t.Errorf("active tab not marked exactly once:\n%s", body)
	}
}

func TestCanvasPageRequiresSession(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.CanvasPage(w, httptest.NewRequest(http.MethodGet, "/canvas", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 without session", w.Code)
	}
}

func TestChatSendRejectsEmptyMessage(t *testing.T) {
	h, sessions := newTestHandlers(t)
	sess := sessions.Create()

	form := url.Values{"message": {"   "}}
	r := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ChatSend(w, sessionRequest(r, sess))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for blank message", w.Code)
	}
}

func TestChatSendRunsToolsToCompletion(t *testing.T) {
	h, sessions := newTestHandlers(t)
	sess := sessions.Create()

	form := url.Values{"message": {"what is our burn rate?"}}
	r := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ChatSend(w, sessionRequest(r, sess))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "what is our burn rate?") {
		t.Errorf("user message missing from transcript:\n%s", w.Body.String())
	}

	// The turn runs in the background; wait for it to finalize.
	waitFor(t, 5*time.Second, func() bool { return sess.State.Get().TurnDone })

	snap := sess.State.Get()
	if len(sess.State.DanglingCalls(0)) != 0 {
		t.Error("turn finished with dangling tool-calls")
	}
	if snap.Title == "" {
		t.Error("turn finished without a title")
	}
	if len(snap.Suggestions) == 0 {
		t.Error("turn finished without suggestions")
	}
	if art, ok := sess.Store.Active(artifact.Selection{}); !ok {
		t.Error("no active artifact after the burn-rate turn")
	} else if art.Type != artifact.TypeBurnRate {
		t.Errorf("active type = %q, want burn-rate", art.Type)
	}
}

func TestChatSendSecondTurnReopens(t *testing.T) {
	h, sessions := newTestHandlers(t)
	sess := sessions.Create()

	send := func(message string) {
		form := url.Values{"message": {message}}
		r := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		h.ChatSend(w, sessionRequest(r, sess))
		if w.Code != http.StatusOK {
			t.Fatalf("send %q: status = %d", message, w.Code)
		}
		waitFor(t, 5*time.Second, func() bool { return sess.State.Get().TurnDone })
	}

	send("show me revenue")
	firstTitle := sess.State.Get().Title

	send("and taxes for 3 months")

	snap := sess.State.Get()
	if snap.Title != firstTitle {
		t.Errorf("title changed on second turn: %q -> %q", firstTitle, snap.Title)
	}
	if _, ok := sess.Store.Get(artifact.TypeTaxSummary, 0); !ok {
		t.Error("tax summary artifact missing after second turn")
	}
}

func TestChatSendOverlappingTurns(t *testing.T) {
	h, sessions := newTestHandlers(t)
	sess := sessions.Create()

	// Two quick sends: the second turn must queue behind the first, and
	// every tool-call from both turns must end up with a result.
	for _, message := range []string{"what is our burn rate?", "show me revenue"} {
		form := url.Values{"message": {message}}
		r := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		h.ChatSend(w, sessionRequest(r, sess))
		if w.Code != http.StatusOK {
			t.Fatalf("send %q: status = %d", message, w.Code)
		}
	}

	waitFor(t, 10*time.Second, func() bool {
		snap := sess.State.Get()
		return snap.TurnDone && countToolResults(snap.Messages) == 2
	})

	if got := sess.State.DanglingCalls(0); len(got) != 0 {
		t.Errorf("dangling = %v, want none after overlapping sends", got)
	}
	if _, ok := sess.Store.Get(artifact.TypeBurnRate, 0); !ok {
		t.Error("burn-rate artifact missing")
	}
	if _, ok := sess.Store.Get(artifact.TypeRevenue, 0); !ok {
		t.Error("revenue artifact missing")
	}
}

func countToolResults(messages []conversation.Message) int {
	n := 0
	for _, m := range messages {
		for _, c := range m.Content {
			if c.Kind == conversation.ContentToolResult {
				n++
			}
		}
	}
	return n
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestHealth(t *testing.T) {
	h, sessions := newTestHandlers(t)
	sessions.Create()

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"status":"ok"`) || !strings.Contains(body, `"sessions":1`) {
		t.Errorf("unexpected health payload: %s", body)
	}
}
