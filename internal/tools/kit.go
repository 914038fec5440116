package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/midday-ai/canvas/internal/artifact"
	"github.com/midday-ai/canvas/internal/assistant"
	"github.com/midday-ai/canvas/internal/metrics"
)

// Kit bundles the dependencies every financial tool shares and hands out
// the tool set. One Kit serves all sessions; tools are stateless and keep
// per-run data on the stack.
type Kit struct {
	provider  metrics.Provider
	assistant *assistant.Generator
	logger    *slog.Logger
	now       func() time.Time
}

// NewKit creates the tool kit. A nil logger falls back to slog.Default.
func NewKit(provider metrics.Provider, gen *assistant.Generator, logger *slog.Logger) *Kit {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kit{provider: provider, assistant: gen, logger: logger, now: time.Now}
}

// All returns every registered tool.
func (k *Kit) All() []Tool {
	return []Tool{
		&burnRateTool{kit: k},
		&runwayTool{kit: k},
		&revenueSummaryTool{kit: k},
		&profitTool{kit: k},
		&spendingTool{kit: k},
		&growthRateTool{kit: k},
		&stressTestTool{kit: k},
		&cashFlowTool{kit: k},
		&taxSummaryTool{kit: k},
		&metricsBreakdownTool{kit: k},
	}
}

// Lookup finds a tool by name.
func (k *Kit) Lookup(name string) (Tool, bool) {
	for _, t := range k.All() {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Synthesize produces the post-turn synthetic artifacts: the chat title
// derived from the opening user message and the follow-up suggestions.
// Both are stored under their excluded types so they never surface as a
// canvas, and returned for the conversation snapshot.
func (k *Kit) Synthesize(ctx context.Context, store *artifact.Store, userMessage, topic string) (string, []string) {
	title := k.assistant.Title(ctx, userMessage)
	suggestions := k.assistant.Suggestions(ctx, topic)

	store.CreateOrUpdate(artifact.TypeChatTitle, 0, artifact.StageAnalysisReady, artifact.Payload{
		Meta: artifact.Meta{Title: title},
	})
	store.CreateOrUpdate(artifact.TypeSuggestions, 0, artifact.StageAnalysisReady, artifact.Payload{
		Analysis: &artifact.AnalysisData{Insights: suggestions},
	})
	return title, suggestions
}

// chartFromSeries converts a monthly series into chart data with
// human-readable point labels.
func chartFromSeries(series []metrics.MonthlyAmount) *artifact.ChartData {
	chart := &artifact.ChartData{}
	for _, p := range series {
		chart.Points = append(chart.Points, artifact.ChartPoint{
			Month: p.Month,
			Value: p.Amount,
			Label: monthLabel(p.Month),
		})
		chart.Total = chart.Total.Add(p.Amount)
	}
	return chart
}

// projectedBalances builds the month-by-month balance projection at a
// fixed monthly net change, floored at zero once the balance is exhausted.
func projectedBalances(start time.Time, balance, monthlyNet decimal.Decimal, months int) []metrics.MonthlyAmount {
	out := make([]metrics.MonthlyAmount, 0, months)
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < months; i++ {
		projected := balance.Add(monthlyNet.Mul(decimal.NewFromInt(int64(i))))
		if projected.IsNegative() {
			projected = decimal.Zero
		}
		out = append(out, metrics.MonthlyAmount{Month: cur.Format("2006-01"), Amount: projected})
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// monthLabel renders "2025-04" as "Apr 2025"; unparseable input passes
// through untouched.
func monthLabel(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return t.Format("Jan 2006")
}

func periodDescription(from, to time.Time) string {
	return fmt.Sprintf("%s - %s", from.Format("Jan 2006"), to.Format("Jan 2006"))
}

func currencyCard(id, title string, value decimal.Decimal, currency string) artifact.MetricCard {
	return artifact.MetricCard{
		ID:       id,
		Title:    title,
		Value:    value,
		Format:   artifact.FormatCurrency,
		Currency: currency,
	}
}

// trendFromSeries compares the last point against the first. A series
// shorter than two months has no trend.
func trendFromSeries(series []metrics.MonthlyAmount) *artifact.Trend {
	if len(series) < 2 {
		return nil
	}
	first, last := series[0].Amount, series[len(series)-1].Amount
	switch {
	case last.GreaterThan(first):
		return &artifact.Trend{Direction: artifact.TrendUp, Description: "up vs period start"}
	case last.LessThan(first):
		return &artifact.Trend{Direction: artifact.TrendDown, Description: "down vs period start"}
	default:
		return &artifact.Trend{Direction: artifact.TrendFlat, Description: "flat over the period"}
	}
}

func money(v decimal.Decimal, currency string) string {
	return v.StringFixed(2) + " " + currency
}
