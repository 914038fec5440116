package artifact

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func intPtr(i int) *int { return &i }

func TestCreateOrUpdateCreatesAtLoading(t *testing.T) {
	s := NewStore(nil)

	got := s.CreateOrUpdate(TypeBurnRate, 0, StageLoading, Payload{Meta: Meta{Currency: "USD"}})

	if got.Stage != StageLoading {
		t.Errorf("stage = %q, want loading", got.Stage)
	}
	if got.Payload.Meta.Currency != "USD" {
		t.Errorf("payload meta not applied: %q", got.Payload.Meta.Currency)
	}
	if _, ok := s.Get(TypeBurnRate, 0); !ok {
		t.Error("instance not retrievable after create")
	}
}

func TestCreateOrUpdateIgnoresStageRegression(t *testing.T) {
	s := NewStore(nil)
	s.CreateOrUpdate(TypeBurnRate, 0, StageMetricsReady, Payload{
		Metrics: &MetricsData{Cards: []MetricCard{{ID: "avg"}}},
	})

	// A stale chart_ready update arrives late over the stream.
	got := s.CreateOrUpdate(TypeBurnRate, 0, StageChartReady, Payload{Chart: chartFixture("2025-01")})

	if got.Stage != StageMetricsReady {
		t.Errorf("stage regressed to %q", got.Stage)
	}
	if got.Payload.Chart == nil {
		t.Error("late payload was not merged even though its stage was stale")
	}
	if got.Payload.Metrics == nil {
		t.Error("existing section lost on late update")
	}
}

func TestCreateOrUpdateIdempotent(t *testing.T) {
	s := NewStore(nil)
	update := Payload{Chart: chartFixture("2025-01", "2025-02")}

	first := s.CreateOrUpdate(TypeRevenue, 1, StageChartReady, update)
	second := s.CreateOrUpdate(TypeRevenue, 1, StageChartReady, update)

	if first.Stage != second.Stage {
		t.Errorf("stage differs after replay: %q vs %q", first.Stage, second.Stage)
	}
	if len(first.Payload.Chart.Points) != len(second.Payload.Chart.Points) {
		t.Error("payload differs after replay")
	}
	if got := len(s.Versions(TypeRevenue)); got != 1 {
		t.Errorf("replay created a second instance: %d", got)
	}
}

func TestCreateVersionAllocates(t *testing.T) {
	s := NewStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.CreateVersion(TypeBurnRate, Payload{Meta: Meta{Currency: "USD"}})
		}()
	}
	wg.Wait()

	arts := s.Versions(TypeBurnRate)
	if len(arts) != 4 {
		t.Fatalf("instances = %d, want 4", len(arts))
	}
	seen := make(map[int]bool)
	for _, a := range arts {
		if seen[a.Version] {
			t.Errorf("version %d allocated twice", a.Version)
		}
		seen[a.Version] = true
		if a.Stage != StageLoading {
			t.Errorf("version %d created at %q, want loading", a.Version, a.Stage)
		}
	}
}

// TestStagedScenario walks the canonical burn-rate stream and checks the
// skeleton flags and payload sections after every step.
func TestStagedScenario(t *testing.T) {
	s := NewStore(nil)

	steps := []struct {
		stage   Stage
		update  Payload
		chart   bool
		metrics bool
		summary bool
	}{
		{StageLoading, Payload{Meta: Meta{Currency: "USD", Description: "Jan - Jun 2025"}}, false, false, false},
		{StageChartReady, Payload{Chart: chartFixture("2025-01", "2025-02")}, true, false, false},
		{StageMetricsReady, Payload{Metrics: &MetricsData{Cards: []MetricCard{{ID: "avg-burn", Value: decimal.NewFromInt(42000)}}}}, true, true, false},
		{StageAnalysisReady, Payload{Analysis: &AnalysisData{Summary: "burn is flat"}}, true, true, true},
	}

	for i, step := range steps {
		got := s.CreateOrUpdate(TypeBurnRate, 0, step.stage, step.update)
		if ShowChart(got.Stage) != step.chart || ShowMetrics(got.Stage) != step.metrics || ShowSummary(got.Stage) != step.summary {
			t.Errorf("step %d: skeleton flags = (%v,%v,%v), want (%v,%v,%v)", i,
				ShowChart(got.Stage), ShowMetrics(got.Stage), ShowSummary(got.Stage),
				step.chart, step.metrics, step.summary)
		}
		if i >= 1 && got.Payload.Chart == nil {
			t.Errorf("step %d: chart section lost", i)
		}
		if i >= 2 && got.Payload.Metrics == nil {
			t.Errorf("step %d: metrics section lost", i)
		}
		if got.Payload.Meta.Currency != "USD" {
			t.Errorf("step %d: meta lost", i)
		}
	}
}

func TestActiveVersionPointer(t *testing.T) {
	s := NewStore(nil)
	for v := 0; v < 3; v++ {
		s.CreateOrUpdate(TypeBurnRate, v, StageMetricsReady, Payload{})
	}

	got, ok := s.Active(Selection{Type: TypeBurnRate, VersionIndex: intPtr(1)})
	if !ok || got.Version != 1 {
		t.Errorf("version pointer 1 resolved to version %d, ok=%v", got.Version, ok)
	}

	// No pointer: most recently created wins.
	got, ok = s.Active(Selection{Type: TypeBurnRate})
	if !ok || got.Version != 2 {
		t.Errorf("no pointer resolved to version %d, want 2", got.Version)
	}

	// Out-of-range pointer clamps rather than failing.
	got, ok = s.Active(Selection{Type: TypeBurnRate, VersionIndex: intPtr(99)})
	if !ok || got.Version != 2 {
		t.Errorf("out-of-range pointer resolved to version %d, want 2", got.Version)
	}
}

// TestActiveOutOfOrderVersions stores version 2 before version 1 and checks
// recency is decided by creation order, not version number.
func TestActiveOutOfOrderVersions(t *testing.T) {
	s := NewStore(nil)
	s.CreateOrUpdate(TypeRevenue, 2, StageChartReady, Payload{})
	s.CreateOrUpdate(TypeRevenue, 1, StageChartReady, Payload{})

	if got := len(s.Versions(TypeRevenue)); got != 2 {
		t.Fatalf("instances = %d, want 2 distinct", got)
	}
	got, ok := s.Active(Selection{Type: TypeRevenue})
	if !ok || got.Version != 1 {
		t.Errorf("most recent by creation = version %d, want 1", got.Version)
	}
}

func TestActiveExcludesSyntheticTypes(t *testing.T) {
	s := NewStore(nil)
	s.CreateOrUpdate(TypeChatTitle, 0, StageAnalysisReady, Payload{Meta: Meta{Title: "Burn rate review"}})
	s.CreateOrUpdate(TypeSuggestions, 0, StageAnalysisReady, Payload{})

	if _, ok := s.Active(Selection{}); ok {
		t.Error("synthetic types surfaced as the active artifact")
	}
	if _, ok := s.Active(Selection{Type: TypeChatTitle}); ok {
		t.Error("explicitly selected synthetic type surfaced")
	}
	if got := s.Available(); len(got) != 0 {
		t.Errorf("Available = %v, want empty", got)
	}

	// Stored data remains reachable for the conversation layer.
	if _, ok := s.Get(TypeChatTitle, 0); !ok {
		t.Error("synthetic artifact should still be stored")
	}
}

func TestActiveMonthlyFamilyFallback(t *testing.T) {
	s := NewStore(nil)
	april := MonthlyBreakdownType(2025, 4)
	may := MonthlyBreakdownType(2025, 5)
	s.CreateOrUpdate(april, 0, StageMetricsReady, Payload{})
	s.CreateOrUpdate(may, 0, StageMetricsReady, Payload{})

	// Exact member match wins.
	got, ok := s.Active(Selection{Type: april})
	if !ok || got.Type != april {
		t.Errorf("exact member resolved to %q", got.Type)
	}

	// A pointer at a month with no instance falls back to the family's
	// most recently created member.
	june := MonthlyBreakdownType(2025, 6)
	got, ok = s.Active(Selection{Type: june})
	if !ok || got.Type != may {
		t.Errorf("family fallback resolved to %q, want %q", got.Type, may)
	}

	// A static type with no instances does not fall back anywhere.
	if _, ok := s.Active(Selection{Type: TypeTaxSummary}); ok {
		t.Error("static type resolved despite having no instances")
	}
}

func TestAvailableOrdering(t *testing.T) {
	s := NewStore(nil)
	s.CreateOrUpdate(TypeCashFlow, 0, StageLoading, Payload{})
	s.CreateOrUpdate(TypeBurnRate, 0, StageLoading, Payload{})
	s.CreateOrUpdate(TypeChatTitle, 0, StageLoading, Payload{})

	got := s.Available()
	if len(got) != 2 || got[0] != TypeCashFlow || got[1] != TypeBurnRate {
		t.Errorf("Available = %v, want [cash-flow-canvas burn-rate-canvas]", got)
	}
}

func TestDismissRemovesAllVersions(t *testing.T) {
	s := NewStore(nil)
	s.CreateOrUpdate(TypeBurnRate, 0, StageLoading, Payload{})
	s.CreateOrUpdate(TypeBurnRate, 1, StageLoading, Payload{})
	s.CreateOrUpdate(TypeRevenue, 0, StageLoading, Payload{})

	s.Dismiss(TypeBurnRate)

	if _, ok := s.Active(Selection{Type: TypeBurnRate}); ok {
		t.Error("dismissed type still resolves")
	}
	if _, ok := s.Active(Selection{Type: TypeRevenue}); !ok {
		t.Error("sibling type lost on dismiss")
	}
}

func TestSubscribeCoalesces(t *testing.T) {
	s := NewStore(nil)
	ch, cancel := s.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		s.CreateOrUpdate(TypeBurnRate, 0, StageLoading, Payload{})
	}

	select {
	case <-ch:
	default:
		t.Fatal("no notification pending after updates")
	}
	// Burst collapsed into a single pending signal.
	select {
	case <-ch:
		t.Error("more than one signal pending; expected coalescing")
	default:
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(nil)
	ch, cancel := s.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for v := 0; v < 8; v++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			for _, stage := range []Stage{StageLoading, StageChartReady, StageMetricsReady, StageAnalysisReady} {
				s.CreateOrUpdate(TypeBurnRate, v, stage, Payload{})
				s.Active(Selection{Type: TypeBurnRate})
				s.Available()
			}
		}(v)
	}
	wg.Wait()

	select {
	case <-ch:
	default:
		t.Error("no notification after concurrent updates")
	}
	if got := len(s.Versions(TypeBurnRate)); got != 8 {
		t.Errorf("instances = %d, want 8", got)
	}
	for _, a := range s.Versions(TypeBurnRate) {
		if a.Stage != StageAnalysisReady {
			t.Errorf("version %d stage = %q, want analysis_ready", a.Version, a.Stage)
		}
	}
}
