// Package web provides the dashboard HTTP server: routing, middleware and
// the session-binding glue between browser cookies and server sessions.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/midday-ai/canvas/internal/session"
	"github.com/midday-ai/canvas/internal/tools"
	"github.com/midday-ai/canvas/internal/web/handlers"
	"github.com/midday-ai/canvas/internal/web/render"
	"github.com/midday-ai/canvas/internal/web/static"
)

// ServerConfig carries everything the server needs.
type ServerConfig struct {
	Logger   *slog.Logger
	Kit      *tools.Kit       // Required: the financial tool set
	Runner   *tools.Runner    // Required: tool execution under the turn contract
	Sessions *session.Manager // Required: cookie-bound session registry

	// StallTimeout bounds how long a pending tool-call may go without a
	// result before the stream flags it.
	StallTimeout time.Duration

	// RateLimitPerSecond/RateLimitBurst configure the per-IP limiter.
	// Zero disables rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Server is the dashboard HTTP server.
type Server struct {
	logger *slog.Logger

	// chain serves the dynamic routes through the full middleware stack;
	// plain serves static assets and health probes without session or
	// rate-limit layers.
	chain http.Handler
	plain http.Handler
}

// NewServer creates the server with all routes configured and the
// middleware chains assembled once, so limiter state survives requests.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Kit == nil {
		return nil, errors.New("Kit is required")
	}
	if cfg.Runner == nil {
		return nil, errors.New("Runner is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("Sessions is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	h := handlers.New(handlers.Config{
		Kit:          cfg.Kit,
		Runner:       cfg.Runner,
		Router:       render.NewRouter(cfg.Logger.With("component", "render")),
		Sessions:     cfg.Sessions,
		StallTimeout: cfg.StallTimeout,
		Logger:       cfg.Logger.With("component", "handlers"),
	})

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/canvas", http.StatusFound)
	})
	mux.HandleFunc("GET /canvas", h.CanvasPage)
	mux.HandleFunc("POST /chat/send", h.ChatSend)
	mux.HandleFunc("GET /stream", h.Stream)

	mux.Handle("GET /static/", http.StripPrefix("/static/", static.Handler()))

	// Recovery -> Logging -> RateLimit -> Session -> Routes. Recovery
	// outermost so a panic in any layer below still yields a response.
	var chain http.Handler = mux
	chain = WithSession(cfg.Sessions)(chain)
	if cfg.RateLimitPerSecond > 0 {
		chain = RateLimitMiddleware(cfg.RateLimitPerSecond, cfg.RateLimitBurst, cfg.Logger)(chain)
	}
	chain = LoggingMiddleware(cfg.Logger)(chain)
	chain = RecoveryMiddleware(cfg.Logger)(chain)

	plain := LoggingMiddleware(cfg.Logger)(RecoveryMiddleware(cfg.Logger)(mux))

	return &Server{logger: cfg.Logger, chain: chain, plain: plain}, nil
}

// ServeHTTP implements http.Handler. Static assets and health probes skip
// the session and rate-limit layers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.setSecurityHeaders(w)

	if strings.HasPrefix(r.URL.Path, "/static/") || r.URL.Path == "/healthz" {
		s.plain.ServeHTTP(w, r)
		return
	}
	s.chain.ServeHTTP(w, r)
}

func (s *Server) setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

// Handler returns the server as an http.Handler for mounting.
func (s *Server) Handler() http.Handler {
	return s
}
