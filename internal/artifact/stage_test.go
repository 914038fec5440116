package artifact

import "testing"

func TestAdvance(t *testing.T) {
	tests := []struct {
		name      string
		current   Stage
		requested Stage
		want      Stage
	}{
		{"forward one step", StageLoading, StageChartReady, StageChartReady},
		{"forward with skip", StageLoading, StageMetricsReady, StageMetricsReady},
		{"forward to terminal", StageMetricsReady, StageAnalysisReady, StageAnalysisReady},
		{"same stage is a no-op", StageChartReady, StageChartReady, StageChartReady},
		{"regression ignored", StageMetricsReady, StageChartReady, StageMetricsReady},
		{"regression to loading ignored", StageAnalysisReady, StageLoading, StageAnalysisReady},
		{"unknown requested ranks as loading", StageChartReady, Stage("bogus"), StageChartReady},
		{"unknown current is overtaken", Stage("bogus"), StageChartReady, StageChartReady},
		{"empty current is overtaken", Stage(""), StageMetricsReady, StageMetricsReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Advance(tt.current, tt.requested); got != tt.want {
				t.Errorf("Advance(%q, %q) = %q, want %q", tt.current, tt.requested, got, tt.want)
			}
		})
	}
}

// TestAdvanceMonotonic drives one artifact's stage through every pairwise
// delivery order and verifies the observed sequence never decreases.
func TestAdvanceMonotonic(t *testing.T) {
	all := []Stage{StageLoading, StageChartReady, StageMetricsReady, StageAnalysisReady}
	for _, first := range all {
		for _, second := range all {
			current := StageLoading
			current = Advance(current, first)
			after := Advance(current, second)
			if after.rank() < current.rank() {
				t.Errorf("stage regressed: %q then %q gave %q", first, second, after)
			}
		}
	}
}

func TestSkeletonPolicy(t *testing.T) {
	tests := []struct {
		stage       Stage
		chart       bool
		metrics     bool
		summary     bool
		description string
	}{
		{StageLoading, false, false, false, "everything placeholder"},
		{StageChartReady, true, false, false, "chart only"},
		{StageMetricsReady, true, true, false, "chart and metrics"},
		{StageAnalysisReady, true, true, true, "all regions"},
		{Stage(""), false, false, false, "absent stage treated as loading"},
		{Stage("unknown"), false, false, false, "unknown stage treated as loading"},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage)+" "+tt.description, func(t *testing.T) {
			if got := ShowChart(tt.stage); got != tt.chart {
				t.Errorf("ShowChart(%q) = %v, want %v", tt.stage, got, tt.chart)
			}
			if got := ShowMetrics(tt.stage); got != tt.metrics {
				t.Errorf("ShowMetrics(%q) = %v, want %v", tt.stage, got, tt.metrics)
			}
			if got := ShowSummary(tt.stage); got != tt.summary {
				t.Errorf("ShowSummary(%q) = %v, want %v", tt.stage, got, tt.summary)
			}
		})
	}
}
