// Package app wires the application together: configuration, logging,
// tracing, the metrics provider, the AI generator, sessions and the HTTP
// server. Dependencies are constructed explicitly in Setup and torn down
// in reverse order by Close.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/midday-ai/canvas/internal/config"
	"github.com/midday-ai/canvas/internal/metrics"
	"github.com/midday-ai/canvas/internal/session"
	"github.com/midday-ai/canvas/internal/web"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// Genkit is nil in simulation mode; the assistant falls back to
	// deterministic text.
	Genkit *genkit.Genkit

	// DBPool is nil in simulation mode.
	DBPool *pgxpool.Pool

	Provider metrics.Provider
	Sessions *session.Manager
	Server   *web.Server

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

const shutdownTimeout = 5 * time.Second

// Close releases all resources in reverse construction order.
func (a *App) Close() error {
	a.Logger.Info("shutting down")

	if a.cancel != nil {
		a.cancel()
	}
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Debug("database pool closed")
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Logger.Warn("tracer shutdown failed", "error", err)
		}
	}
	return nil
}
