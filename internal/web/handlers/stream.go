package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/midday-ai/canvas/internal/artifact"
	"github.com/midday-ai/canvas/internal/session"
	"github.com/midday-ai/canvas/internal/web/component"
	"github.com/midday-ai/canvas/internal/web/sse"
)

// streamTimeout bounds one SSE connection so zombie goroutines cannot
// accumulate behind clients that vanish without closing; the htmx SSE
// extension reconnects transparently.
const streamTimeout = 5 * time.Minute

// stallCheckInterval is how often the stream looks for stuck tool-calls.
const stallCheckInterval = 5 * time.Second

// Stream handles GET /stream: the SSE connection pushing re-rendered
// canvas fragments on every store change, tool lifecycle events, and
// stuck-call notices.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "session required", http.StatusInternalServerError)
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		h.logger.Error("SSE not supported", "error", err)
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), streamTimeout)
	defer cancel()

	sel := selectionFromQuery(r.URL.Query())
	updates, unsubscribe := sess.Store.Subscribe()
	defer unsubscribe()
	events, detach := h.hub.subscribe(sess.ID)
	defer detach()

	ticker := time.NewTicker(stallCheckInterval)
	defer ticker.Stop()

	// Initial push so a reconnecting client catches up immediately.
	if err := h.pushView(ctx, writer, sess, sel); err != nil {
		h.logger.Debug("stream closed during initial push", "error", err)
		return
	}

	notified := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			h.logStreamDone(ctx, sess)
			return

		case <-updates:
			if err := h.pushView(ctx, writer, sess, sel); err != nil {
				h.logger.Debug("stream write failed", "error", err)
				return
			}

		case ev := <-events:
			if err := writer.WriteJSON(ctx, "tool-"+ev.Kind, ev); err != nil {
				h.logger.Debug("stream write failed", "error", err)
				return
			}
			// The lifecycle event implies a conversation change; keep the
			// transcript in step.
			if err := writer.WriteEvent(ctx, "transcript", component.ChatTranscript(sess.State.Get())); err != nil {
				h.logger.Debug("stream write failed", "error", err)
				return
			}

		case <-ticker.C:
			for _, pending := range sess.State.DanglingCalls(h.stallTimeout) {
				if notified[pending.ToolCallID] {
					continue
				}
				notified[pending.ToolCallID] = true
				h.logger.Warn("tool call appears stuck",
					"tool", pending.ToolName,
					"call_id", pending.ToolCallID,
					"since", pending.Since)
				if err := writer.WriteEvent(ctx, "tool-stuck", component.StuckNotice(pending.ToolName)); err != nil {
					h.logger.Debug("stream write failed", "error", err)
					return
				}
			}
		}
	}
}

// pushView re-renders everything the store change may have touched: the
// tab strip, the active canvas, the transcript and the suggestion chips.
func (h *Handlers) pushView(ctx context.Context, writer *sse.Writer, sess *session.Session, sel artifact.Selection) error {
	canvas, active := h.resolveCanvas(sess, sel)

	if err := writer.WriteEvent(ctx, "tabs", component.Tabs(sess.Store.Available(), active)); err != nil {
		return err
	}
	if err := writer.WriteEvent(ctx, "canvas", canvas); err != nil {
		return err
	}

	snap := sess.State.Get()
	if err := writer.WriteEvent(ctx, "transcript", component.ChatTranscript(snap)); err != nil {
		return err
	}
	if len(snap.Suggestions) > 0 {
		if err := writer.WriteEvent(ctx, "suggestions", component.SuggestionChips(snap.Suggestions)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) logStreamDone(ctx context.Context, sess *session.Session) {
	if ctx.Err() == context.DeadlineExceeded {
		h.logger.Debug("stream timeout", "session", sess.ID, "timeout", streamTimeout)
	} else {
		h.logger.Debug("client disconnected", "session", sess.ID)
	}
}
