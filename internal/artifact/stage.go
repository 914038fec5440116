package artifact

// Stage is a readiness milestone an artifact passes through. The order is
// total: loading < chart_ready < metrics_ready < analysis_ready. Some
// artifact families omit the chart rung and jump straight from loading to
// metrics_ready; Advance permits skips, only regressions are refused.
type Stage string

const (
	StageLoading       Stage = "loading"
	StageChartReady    Stage = "chart_ready"
	StageMetricsReady  Stage = "metrics_ready"
	StageAnalysisReady Stage = "analysis_ready"
)

// rank maps a stage to its position in the total order. Unknown or empty
// stages rank as loading - the most conservative reading, so the UI shows
// placeholders rather than treating garbage as real data.
func (s Stage) rank() int {
	switch s {
	case StageChartReady:
		return 1
	case StageMetricsReady:
		return 2
	case StageAnalysisReady:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether s has reached the given stage in the total order.
func (s Stage) AtLeast(other Stage) bool {
	return s.rank() >= other.rank()
}

// Advance returns requested if it does not regress below current, otherwise
// current unchanged. Regression is ignored rather than rejected: a stale
// update arriving after a newer one is an expected consequence of
// out-of-order delivery on the streaming transport, not a failure, and must
// not visually roll back a further-along canvas.
func Advance(current, requested Stage) Stage {
	if requested.rank() >= current.rank() {
		return requested
	}
	return current
}

// Skeleton policy: pure, total predicates deciding which canvas regions are
// ready to render versus must show a loading placeholder. An absent or
// unknown stage ranks as loading, so all three report false for it.

// ShowChart reports whether the chart region has real data to draw.
func ShowChart(s Stage) bool { return s.AtLeast(StageChartReady) }

// ShowMetrics reports whether the metrics grid has real data to draw.
func ShowMetrics(s Stage) bool { return s.AtLeast(StageMetricsReady) }

// ShowSummary reports whether the narrative summary is complete. Unlike the
// other regions this only turns true at the terminal stage.
func ShowSummary(s Stage) bool { return s.AtLeast(StageAnalysisReady) }
