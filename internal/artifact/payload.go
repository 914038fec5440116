package artifact

import (
	"time"

	"github.com/shopspring/decimal"
)

// Meta carries the fields every artifact has from the moment it is created,
// regardless of stage.
type Meta struct {
	Currency    string
	From        time.Time
	To          time.Time
	Description string
	Title       string
}

// ChartPoint is one entry in a monthly series.
type ChartPoint struct {
	Month string // "2025-04"
	Value decimal.Decimal
	Label string
}

// ChartData becomes available at chart_ready.
type ChartData struct {
	Points []ChartPoint
	Total  decimal.Decimal
}

// TrendDirection describes how a metric moved relative to the prior period.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// CardFormat selects how a metric card's value is displayed.
type CardFormat string

const (
	FormatCurrency   CardFormat = "currency"
	FormatPercentage CardFormat = "percentage"
	FormatDuration   CardFormat = "duration"
	FormatNumber     CardFormat = "number"
)

// MetricCard is one cell of the metrics grid.
type MetricCard struct {
	ID       string
	Title    string
	Value    decimal.Decimal
	Format   CardFormat
	Currency string
	Subtitle string
	Trend    *Trend
}

// Trend annotates a card with period-over-period movement.
type Trend struct {
	Direction   TrendDirection
	Description string
}

// TableColumn describes one column of a breakdown table.
type TableColumn struct {
	Key   string
	Label string
	Align string // "left", "right", "center"
}

// TableRow holds pre-formatted cell values keyed by column.
type TableRow struct {
	ID    string
	Cells map[string]string
}

// TableData is an optional tabular breakdown shown with the metrics grid.
type TableData struct {
	Title   string
	Columns []TableColumn
	Rows    []TableRow
}

// MetricsData becomes available at metrics_ready.
type MetricsData struct {
	Cards []MetricCard
	Table *TableData
}

// AnalysisData becomes available at analysis_ready.
type AnalysisData struct {
	Summary         string
	Insights        []string
	Recommendations []string
}

// Payload is the progressively-populated body of an artifact. Sections are
// nil until their stage is reached; once set they are never cleared by a
// later merge. Producers always send a full section, so slices inside a
// section are replaced wholesale, never concatenated.
type Payload struct {
	Meta     Meta
	Chart    *ChartData
	Metrics  *MetricsData
	Analysis *AnalysisData
}

// Merge applies update onto base field-wise and returns the result. A field
// present (non-zero, non-nil) in update overwrites; an absent field is
// preserved from base. Pure - neither argument is modified.
func Merge(base, update Payload) Payload {
	out := base
	if update.Meta.Currency != "" {
		out.Meta.Currency = update.Meta.Currency
	}
	if !update.Meta.From.IsZero() {
		out.Meta.From = update.Meta.From
	}
	if !update.Meta.To.IsZero() {
		out.Meta.To = update.Meta.To
	}
	if update.Meta.Description != "" {
		out.Meta.Description = update.Meta.Description
	}
	if update.Meta.Title != "" {
		out.Meta.Title = update.Meta.Title
	}
	if update.Chart != nil {
		c := *update.Chart
		out.Chart = &c
	}
	if update.Metrics != nil {
		m := *update.Metrics
		out.Metrics = &m
	}
	if update.Analysis != nil {
		a := *update.Analysis
		out.Analysis = &a
	}
	return out
}

// ChartView is the payload shape a renderer may rely on once chart_ready is
// reached: the chart section is a value, not a pointer.
type ChartView struct {
	Meta  Meta
	Chart ChartData
}

// MetricsView widens ChartView with the metrics section. Chart stays
// optional because some families (monthly breakdowns) never produce one.
type MetricsView struct {
	Meta    Meta
	Chart   *ChartData
	Metrics MetricsData
}

// AnalysisView is the fully-populated payload at the terminal stage.
type AnalysisView struct {
	Meta     Meta
	Chart    *ChartData
	Metrics  MetricsData
	Analysis AnalysisData
}

// ChartReady returns the chart view, or ok=false when the section has not
// arrived. Renderers must fall back to a placeholder on false, never to
// default-zero data.
func (p Payload) ChartReady() (ChartView, bool) {
	if p.Chart == nil {
		return ChartView{}, false
	}
	return ChartView{Meta: p.Meta, Chart: *p.Chart}, true
}

// MetricsReady returns the metrics view, or ok=false when absent.
func (p Payload) MetricsReady() (MetricsView, bool) {
	if p.Metrics == nil {
		return MetricsView{}, false
	}
	return MetricsView{Meta: p.Meta, Chart: p.Chart, Metrics: *p.Metrics}, true
}

// AnalysisReady returns the full view, or ok=false when the narrative (or
// the metrics it depends on) has not arrived.
func (p Payload) AnalysisReady() (AnalysisView, bool) {
	if p.Analysis == nil || p.Metrics == nil {
		return AnalysisView{}, false
	}
	return AnalysisView{Meta: p.Meta, Chart: p.Chart, Metrics: *p.Metrics, Analysis: *p.Analysis}, true
}
