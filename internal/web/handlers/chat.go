package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/midday-ai/canvas/internal/conversation"
	"github.com/midday-ai/canvas/internal/session"
	"github.com/midday-ai/canvas/internal/tools"
	"github.com/midday-ai/canvas/internal/web/component"
)

// ChatSend handles POST /chat/send. The user message is recorded
// immediately and the tool turn runs in the background with a detached
// context: closing the tab must not cancel computation, the artifacts are
// session-scoped and stay useful when the user comes back.
func (h *Handlers) ChatSend(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "session required", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	message := strings.TrimSpace(r.FormValue("message"))
	if message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	snap, err := sess.State.Reopen(func(snap conversation.Snapshot) conversation.Snapshot {
		snap.Messages = append(snap.Messages,
			conversation.NewMessage(conversation.RoleUser, conversation.TextContent(message)))
		return snap
	})
	if err != nil {
		h.logger.Error("failed to record user message", "error", err, "session", sess.ID)
		http.Error(w, "conversation unavailable", http.StatusConflict)
		return
	}

	go h.runTurn(context.WithoutCancel(r.Context()), sess, message)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.ChatTranscript(snap).Render(r.Context(), w); err != nil {
		h.logger.Error("transcript render failed", "error", err)
	}
}

// runTurn executes the planned tools concurrently and finalizes the turn
// with the synthesized title and follow-up suggestions. Tool failures are
// recorded by the runner as error results; they never abort sibling tools.
func (h *Handlers) runTurn(ctx context.Context, sess *session.Session, message string) {
	// One turn at a time per session: a second send queues behind the
	// running turn instead of racing its finalization.
	sess.LockTurn()
	defer sess.UnlockTurn()
	sess.State.BeginTurn()

	ctx = tools.ContextWithEmitter(ctx, h.hub.emitter(sess.ID))
	args := planArgs(message)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range planTools(message) {
		tool, ok := h.kit.Lookup(name)
		if !ok {
			h.logger.Error("planned tool not registered", "tool", name)
			continue
		}
		g.Go(func() error {
			if _, err := h.runner.Run(gctx, tool, args, sess.Store, sess.State); err != nil {
				h.logger.Warn("tool run failed", "tool", tool.Name(), "session", sess.ID, "error", err)
			}
			// The failure is already recorded as an error result;
			// returning it would cancel the sibling tools.
			return nil
		})
	}
	_ = g.Wait()

	title, suggestions := h.kit.Synthesize(ctx, sess.Store, message, message)
	if _, err := sess.State.Done(func(snap conversation.Snapshot) conversation.Snapshot {
		if snap.Title == "" {
			snap.Title = title
		}
		snap.Suggestions = suggestions
		return snap
	}); err != nil && !errors.Is(err, conversation.ErrTurnDone) {
		h.logger.Error("failed to finalize turn", "error", err, "session", sess.ID)
	}
}
