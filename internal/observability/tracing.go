// Package observability provides opt-in OpenTelemetry tracing. Spans are
// exported over OTLP HTTP to a local collector; the feature is disabled
// entirely when no endpoint is configured.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config for the trace exporter.
type Config struct {
	// Endpoint is the collector OTLP HTTP endpoint, host:port.
	Endpoint string
	// Environment is the deployment environment tag (dev, staging, prod).
	Environment string
	// ServiceName is the service name attached to exported spans.
	ServiceName string
}

// DefaultServiceName tags exported spans when none is configured.
const DefaultServiceName = "canvas"

// Setup registers an OTLP span exporter with Genkit's TracerProvider, so
// both Genkit's generation spans and our own end up in the same pipeline.
//
// Returns a shutdown function that flushes pending spans. An unreachable
// exporter degrades to a no-op rather than failing startup.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (shutdown func(context.Context) error, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func(context.Context) error { return nil }
	if cfg.Endpoint == "" {
		return noop, nil
	}

	service := cfg.ServiceName
	if service == "" {
		service = DefaultServiceName
	}

	// Genkit's TracerProvider reads the standard OTEL environment.
	_ = os.Setenv("OTEL_SERVICE_NAME", service)
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return noop, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"endpoint", cfg.Endpoint,
		"service", service,
		"environment", cfg.Environment,
	)
	return tracing.TracerProvider().Shutdown, nil
}
