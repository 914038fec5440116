// Package handlers provides the HTTP handlers for the canvas dashboard:
// the page itself, the chat send endpoint that runs tools, the SSE stream
// pushing re-rendered fragments, and health.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/midday-ai/canvas/internal/session"
	"github.com/midday-ai/canvas/internal/tools"
	"github.com/midday-ai/canvas/internal/web/render"
)

// Unexported context key type to prevent collisions. The session middleware
// stores the resolved session under it.
type sessionKey struct{}

var ctxKeySession = sessionKey{}

// ContextWithSession attaches the session to the request context.
func ContextWithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// SessionFromContext retrieves the session attached by the middleware.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(ctxKeySession).(*session.Session)
	return s, ok
}

// Config carries the handler dependencies.
type Config struct {
	Kit    *tools.Kit
	Runner *tools.Runner
	Router *render.Router

	// Sessions is optional; health reports the live count when set.
	Sessions *session.Manager

	// StallTimeout bounds how long an unresolved tool-call may stay
	// pending before the stream flags it as stuck.
	StallTimeout time.Duration

	Logger *slog.Logger
}

// Handlers holds the shared handler state. One instance serves all
// sessions; per-session state lives on the session itself.
type Handlers struct {
	kit          *tools.Kit
	runner       *tools.Runner
	router       *render.Router
	sessions     *session.Manager
	hub          *toolEventHub
	stallTimeout time.Duration
	logger       *slog.Logger
}

// New creates the handler set. A nil logger falls back to slog.Default.
func New(cfg Config) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stall := cfg.StallTimeout
	if stall <= 0 {
		stall = 45 * time.Second
	}
	return &Handlers{
		kit:          cfg.Kit,
		runner:       cfg.Runner,
		router:       cfg.Router,
		sessions:     cfg.Sessions,
		hub:          newToolEventHub(),
		stallTimeout: stall,
		logger:       logger,
	}
}
