package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/midday-ai/canvas/internal/artifact"
)

// streamRecorder is a concurrency-safe ResponseWriter for exercising the
// SSE handler from another goroutine.
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	body   strings.Builder
	code   int
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (r *streamRecorder) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header
}

func (r *streamRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(b)
}

func (r *streamRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

func (r *streamRecorder) Flush() {}

func (r *streamRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func TestStreamPushesOnStoreChange(t *testing.T) {
	h, sessions := newTestHandlers(t)
	sess := sessions.Create()
	sess.Store.CreateOrUpdate(artifact.TypeBurnRate, 0, artifact.StageLoading, artifact.Payload{})

	ctx, cancel := context.WithCancel(context.Background())
	r := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	r = sessionRequest(r, sess)
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(rec, r)
	}()

	// Initial push contains the full view.
	waitFor(t, 5*time.Second, func() bool {
		out := rec.String()
		return strings.Contains(out, "event: tabs") &&
			strings.Contains(out, "event: canvas") &&
			strings.Contains(out, "event: transcript")
	})

	// A store change re-pushes the canvas with the new stage.
	sess.Store.CreateOrUpdate(artifact.TypeBurnRate, 0, artifact.StageChartReady, artifact.Payload{
		Chart: &artifact.ChartData{},
	})
	waitFor(t, 5*time.Second, func() bool {
		return strings.Contains(rec.String(), `data-stage="chart_ready"`)
	})

	cancel()
	<-done
}

func TestStreamForwardsToolEvents(t *testing.T) {
	h, sessions := newTestHandlers(t)
	sess := sessions.Create()

	ctx, cancel := context.WithCancel(context.Background())
	r := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	r = sessionRequest(r, sess)
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(rec, r)
	}()
	waitFor(t, 5*time.Second, func() bool {
		return strings.Contains(rec.String(), "event: transcript")
	})

	emitter := h.hub.emitter(sess.ID)
	emitter.OnToolStart("burn_rate", "call-1")
	waitFor(t, 5*time.Second, func() bool {
		out := rec.String()
		return strings.Contains(out, "event: tool-start") && strings.Contains(out, `"callId":"call-1"`)
	})

	emitter.OnToolError("burn_rate", "call-1")
	waitFor(t, 5*time.Second, func() bool {
		return strings.Contains(rec.String(), "event: tool-error")
	})

	cancel()
	<-done
}

func TestStreamRejectsNonFlusher(t *testing.T) {
	h, sessions := newTestHandlers(t)
	sess := sessions.Create()

	r := sessionRequest(httptest.NewRequest(http.MethodGet, "/stream", nil), sess)
	w := nonFlushingWriter{httptest.NewRecorder()}
	h.Stream(w, r)

	if w.rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for non-flushing writer", w.rec.Code)
	}
}

// nonFlushingWriter hides the recorder's Flush method.
type nonFlushingWriter struct {
	rec *httptest.ResponseRecorder
}

func (w nonFlushingWriter) Header() http.Header         { return w.rec.Header() }
func (w nonFlushingWriter) Write(b []byte) (int, error) { return w.rec.Write(b) }
func (w nonFlushingWriter) WriteHeader(code int)        { w.rec.WriteHeader(code) }
