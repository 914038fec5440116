package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/midday-ai/canvas/internal/assistant"
	"github.com/midday-ai/canvas/internal/config"
	"github.com/midday-ai/canvas/internal/metrics"
	"github.com/midday-ai/canvas/internal/observability"
	"github.com/midday-ai/canvas/internal/session"
	"github.com/midday-ai/canvas/internal/tools"
	"github.com/midday-ai/canvas/internal/web"
)

// Setup builds the application. In simulation mode neither Genkit nor
// Postgres are touched: the static provider and deterministic assistant
// text serve everything, which is also what the tests run against.
//
// On error, everything already initialized is released.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing first so Genkit's TracerProvider is ready before Init.
	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "canvas",
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.otelShutdown = shutdown

	if cfg.Simulation() {
		a.Provider = metrics.NewStatic()
		logger.Info("simulation mode: static metrics, deterministic assistant")
	} else {
		pool, err := providePool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.DBPool = pool
		a.Provider = metrics.NewPostgres(pool, logger.With("component", "metrics"))

		g, err := provideGenkit(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		a.Genkit = g
	}

	gen := assistant.New(a.Genkit, cfg.ModelName, logger.With("component", "assistant"))
	kit := tools.NewKit(a.Provider, gen, logger.With("component", "tools"))
	runner := tools.NewRunner(logger.With("component", "tools"))

	a.Sessions = session.NewManager(cfg.SessionTTL, logger.With("component", "session"))

	srv, err := web.NewServer(web.ServerConfig{
		Logger:             logger.With("component", "web"),
		Kit:                kit,
		Runner:             runner,
		Sessions:           a.Sessions,
		StallTimeout:       cfg.StallTimeout,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	a.Server = srv

	// The session sweeper runs until Close cancels it.
	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	go a.Sessions.Run(sweepCtx)

	return a, nil
}

// providePool creates the PostgreSQL pool and runs the embedded
// migrations.
func providePool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := metrics.Migrate(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// provideGenkit initializes Genkit with the Gemini plugin. Credentials
// come from the GEMINI_API_KEY environment variable per the plugin.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	return g, nil
}
