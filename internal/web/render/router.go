// Package render maps artifact types to canvas renderers.
//
// Resolution order: the monthly-breakdown family predicate first, then a
// closed switch over the static types. An unknown type yields no canvas at
// all - nil, not an error - so a newer server streaming a type this build
// does not know degrades to chat-only. A renderer that panics is caught at
// the router boundary and replaced with an error panel; sibling canvases
// are unaffected because every canvas renders independently.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/a-h/templ"

	"github.com/midday-ai/canvas/internal/artifact"
	"github.com/midday-ai/canvas/internal/web/component"
)

// Renderer builds the canvas component for one artifact.
type Renderer func(art artifact.Artifact) templ.Component

// Router resolves artifact types to renderers.
type Router struct {
	logger *slog.Logger
}

// NewRouter creates a Router. A nil logger falls back to slog.Default.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger}
}

// Canvas returns the component for art, or nil when the type has no canvas
// (unknown or synthetic types). The returned component never propagates a
// renderer panic; it degrades to an error panel.
func (r *Router) Canvas(art artifact.Artifact) templ.Component {
	renderer := lookup(art.Type)
	if renderer == nil {
		return nil
	}
	return r.protected(renderer, art)
}

// lookup is the full type table. The switch is deliberately exhaustive
// over the static types so a newly added type fails visibly here rather
// than silently falling through.
func lookup(typ artifact.Type) Renderer {
	if artifact.IsMonthlyBreakdown(typ) {
		return tabularCanvas
	}
	switch typ {
	case artifact.TypeBurnRate,
		artifact.TypeRunway,
		artifact.TypeRevenue,
		artifact.TypeProfit,
		artifact.TypeCashFlow,
		artifact.TypeSpending,
		artifact.TypeGrowthRate,
		artifact.TypeStressTest,
		artifact.TypeBreakdownSummary:
		return chartedCanvas
	case artifact.TypeTaxSummary:
		return tabularCanvas
	case artifact.TypeChatTitle, artifact.TypeSuggestions:
		return nil
	}
	return nil
}

// chartedCanvas lays out chart, metrics and analysis regions, drawing a
// skeleton for each region whose stage has not been reached.
func chartedCanvas(art artifact.Artifact) templ.Component {
	var regions []templ.Component

	if artifact.ShowChart(art.Stage) {
		if view, ok := art.Payload.ChartReady(); ok {
			regions = append(regions, component.ChartSection(view))
		}
		// Stage reached but no chart section: the producer skipped the
		// chart for this artifact, draw nothing rather than a skeleton.
	} else {
		regions = append(regions, component.ChartSkeleton())
	}

	regions = append(regions, metricsRegion(art), analysisRegion(art))
	return component.Frame(art, regions...)
}

// tabularCanvas lays out metrics and analysis only; the family never
// produces a chart.
func tabularCanvas(art artifact.Artifact) templ.Component {
	return component.Frame(art, metricsRegion(art), analysisRegion(art))
}

func metricsRegion(art artifact.Artifact) templ.Component {
	if artifact.ShowMetrics(art.Stage) {
		if view, ok := art.Payload.MetricsReady(); ok {
			return component.MetricsSection(view.Metrics)
		}
	}
	return component.MetricsSkeleton()
}

func analysisRegion(art artifact.Artifact) templ.Component {
	if artifact.ShowSummary(art.Stage) {
		if view, ok := art.Payload.AnalysisReady(); ok {
			return component.AnalysisSection(view.Analysis)
		}
	}
	return component.AnalysisSkeleton()
}

// protected renders into a buffer so a panicking renderer can neither
// crash the stream nor leave half a canvas in the response.
func (r *Router) protected(renderer Renderer, art artifact.Artifact) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := r.renderSafely(ctx, renderer, art, &buf); err != nil {
			r.logger.Error("canvas render failed",
				"type", art.Type,
				"version", art.Version,
				"error", err)
			return component.ErrorPanel(string(art.Type)).Render(ctx, w)
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func (r *Router) renderSafely(ctx context.Context, renderer Renderer, art artifact.Artifact, w io.Writer) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("renderer panicked: %v", rec)
		}
	}()
	return renderer(art).Render(ctx, w)
}
