package component

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/url"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"github.com/midday-ai/canvas/internal/artifact"
)

// esc is shorthand for HTML-escaping dynamic text.
func esc(s string) string { return html.EscapeString(s) }

// Frame wraps canvas regions in the shared chrome: title, period
// description and the stage attribute the client script watches.
func Frame(art artifact.Artifact, regions ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<section class="canvas" data-artifact-type="%s" data-version="%d" data-stage="%s">`,
			esc(string(art.Type)), art.Version, esc(string(art.Stage))); err != nil {
			return err
		}
		title := art.Payload.Meta.Title
		if title == "" {
			title = string(art.Type)
		}
		if _, err := fmt.Fprintf(w, `<header><h2>%s</h2>`, esc(title)); err != nil {
			return err
		}
		if desc := art.Payload.Meta.Description; desc != "" {
			if _, err := fmt.Fprintf(w, `<p class="canvas-period">%s</p>`, esc(desc)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</header>`); err != nil {
			return err
		}
		for _, region := range regions {
			if err := region.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

// ChartSection draws the monthly series as a server-rendered bar chart.
// Bar heights are proportional to the largest absolute value.
func ChartSection(view artifact.ChartView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="canvas-chart"><ul class="bars">`); err != nil {
			return err
		}
		max := decimal.Zero
		for _, p := range view.Chart.Points {
			if p.Value.Abs().GreaterThan(max) {
				max = p.Value.Abs()
			}
		}
		for _, p := range view.Chart.Points {
			height := 0
			if max.IsPositive() {
				height = int(p.Value.Abs().Div(max).Mul(decimal.NewFromInt(100)).IntPart())
			}
			cls := "bar"
			if p.Value.IsNegative() {
				cls = "bar bar-negative"
			}
			if _, err := fmt.Fprintf(w,
				`<li class="%s" style="--bar-height:%d%%" title="%s">%s</li>`,
				cls, height, esc(p.Value.StringFixed(2)), esc(p.Label)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></div>`)
		return err
	})
}

// ChartSkeleton is the placeholder drawn before chart_ready.
func ChartSkeleton() templ.Component {
	return skeleton("canvas-chart")
}

// MetricsSection draws the metric card grid and the optional table.
func MetricsSection(data artifact.MetricsData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="canvas-metrics"><div class="cards">`); err != nil {
			return err
		}
		for _, card := range data.Cards {
			if err := writeCard(w, card); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</div>`); err != nil {
			return err
		}
		if data.Table != nil {
			if err := writeTable(w, data.Table); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// MetricsSkeleton is the placeholder drawn before metrics_ready.
func MetricsSkeleton() templ.Component {
	return skeleton("canvas-metrics")
}

// AnalysisSection draws the narrative summary with its insight lists.
func AnalysisSection(data artifact.AnalysisData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<div class="canvas-analysis"><p>%s</p>`, esc(data.Summary)); err != nil {
			return err
		}
		if err := writeList(w, "insights", data.Insights); err != nil {
			return err
		}
		if err := writeList(w, "recommendations", data.Recommendations); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// AnalysisSkeleton is the placeholder drawn before analysis_ready.
func AnalysisSkeleton() templ.Component {
	return skeleton("canvas-analysis")
}

// ErrorPanel replaces a canvas whose renderer failed. The link drops the
// selection pointer so the user lands back on the latest canvas.
func ErrorPanel(typeName string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<section class="canvas canvas-error" data-artifact-type="%s">`+
				`<p>This canvas could not be displayed.</p>`+
				`<a href="/canvas">Go back</a></section>`,
			esc(typeName))
		return err
	})
}

// EmptyState is shown when the session has no displayable artifact yet.
func EmptyState() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w,
			`<section class="canvas canvas-empty"><p>Ask a question to open a canvas.</p></section>`)
		return err
	})
}

// Tabs renders the strip of open canvases in first-creation order.
func Tabs(available []artifact.Type, active artifact.Type) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<nav class="canvas-tabs"><ul>`); err != nil {
			return err
		}
		for _, typ := range available {
			cls := "tab"
			if typ == active {
				cls = "tab tab-active"
			}
			href := "/canvas?artifact-type=" + url.QueryEscape(string(typ))
			if _, err := fmt.Fprintf(w,
				`<li class="%s"><a href="%s">%s</a></li>`,
				cls, esc(href), esc(string(typ))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></nav>`)
		return err
	})
}

// StuckNotice flags a tool-call that outlived the stall timeout.
func StuckNotice(toolName string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="tool-stuck" role="status">%s is taking longer than expected.</div>`,
			esc(toolName))
		return err
	})
}

func skeleton(region string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="%s skeleton" aria-busy="true"></div>`, esc(region))
		return err
	})
}

func writeCard(w io.Writer, card artifact.MetricCard) error {
	value := card.Value.StringFixed(2)
	switch card.Format {
	case artifact.FormatCurrency:
		value = card.Value.StringFixed(2) + " " + card.Currency
	case artifact.FormatPercentage:
		value = card.Value.StringFixed(1) + "%"
	case artifact.FormatDuration, artifact.FormatNumber:
		value = card.Value.String()
	}
	if _, err := fmt.Fprintf(w,
		`<article class="card" data-card-id="%s"><h3>%s</h3><p class="value">%s</p>`,
		esc(card.ID), esc(card.Title), esc(value)); err != nil {
		return err
	}
	if card.Subtitle != "" {
		if _, err := fmt.Fprintf(w, `<p class="subtitle">%s</p>`, esc(card.Subtitle)); err != nil {
			return err
		}
	}
	if card.Trend != nil {
		if _, err := fmt.Fprintf(w,
			`<p class="trend trend-%s">%s</p>`,
			esc(string(card.Trend.Direction)), esc(card.Trend.Description)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</article>`)
	return err
}

func writeTable(w io.Writer, table *artifact.TableData) error {
	if _, err := fmt.Fprintf(w, `<table class="breakdown"><caption>%s</caption><thead><tr>`, esc(table.Title)); err != nil {
		return err
	}
	for _, col := range table.Columns {
		if _, err := fmt.Fprintf(w, `<th class="align-%s">%s</th>`, esc(col.Align), esc(col.Label)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, `</tr></thead><tbody>`); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if _, err := io.WriteString(w, `<tr>`); err != nil {
			return err
		}
		for _, col := range table.Columns {
			if _, err := fmt.Fprintf(w, `<td class="align-%s">%s</td>`, esc(col.Align), esc(row.Cells[col.Key])); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tr>`); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</tbody></table>`)
	return err
}

func writeList(w io.Writer, class string, items []string) error {
	if len(items) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, `<ul class="%s">`, esc(class)); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, `<li>%s</li>`, esc(item)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</ul>`)
	return err
}
