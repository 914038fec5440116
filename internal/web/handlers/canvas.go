package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/midday-ai/canvas/internal/artifact"
	"github.com/midday-ai/canvas/internal/session"
	"github.com/midday-ai/canvas/internal/web/component"
)

// selectionFromQuery reads the externally-owned display pointer from the
// URL: "artifact-type" names the canvas, "version" the instance index. A
// malformed version is treated as absent, not as an error.
func selectionFromQuery(q url.Values) artifact.Selection {
	sel := artifact.Selection{Type: artifact.Type(q.Get("artifact-type"))}
	if raw := q.Get("version"); raw != "" {
		if idx, err := strconv.Atoi(raw); err == nil {
			sel.VersionIndex = &idx
		}
	}
	return sel
}

// CanvasPage handles GET /canvas: the full dashboard with the selected
// canvas, the tab strip, and the chat transcript.
func (h *Handlers) CanvasPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "session required", http.StatusInternalServerError)
		return
	}

	sel := selectionFromQuery(r.URL.Query())
	canvas, active := h.resolveCanvas(sess, sel)
	snap := sess.State.Get()

	title := snap.Title
	if title == "" {
		title = "Canvas"
	}

	page := component.Page(title,
		component.Tabs(sess.Store.Available(), active),
		canvas,
		component.ChatTranscript(snap),
		component.SuggestionChips(snap.Suggestions),
		component.ChatForm(),
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		h.logger.Error("page render failed", "error", err)
	}
}

// resolveCanvas turns the selection into a renderable component. No active
// artifact, or one this build cannot render, degrades to the empty state.
func (h *Handlers) resolveCanvas(sess *session.Session, sel artifact.Selection) (templ.Component, artifact.Type) {
	art, ok := sess.Store.Active(sel)
	if !ok {
		return component.EmptyState(), ""
	}
	if canvas := h.router.Canvas(art); canvas != nil {
		return canvas, art.Type
	}
	return component.EmptyState(), art.Type
}
