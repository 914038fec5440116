package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/midday-ai/canvas/internal/artifact"
	"github.com/midday-ai/canvas/internal/metrics"
)

// NameStressTest is the tool name for cash-flow stress testing.
const NameStressTest = "stress_test"

// stressScenario scales average income and expenses to model one outcome.
type stressScenario struct {
	id       string
	title    string
	income   decimal.Decimal
	expenses decimal.Decimal
}

var stressScenarios = []stressScenario{
	{id: "base-case", title: "Base case", income: decimal.NewFromInt(1), expenses: decimal.NewFromInt(1)},
	{id: "worst-case", title: "Worst case", income: decimal.NewFromFloat(0.7), expenses: decimal.NewFromFloat(1.2)},
	{id: "best-case", title: "Best case", income: decimal.NewFromFloat(1.2), expenses: decimal.NewFromFloat(0.9)},
}

type stressTestTool struct {
	kit *Kit
}

func (t *stressTestTool) Name() string { return NameStressTest }

func (t *stressTestTool) Describe() string {
	return "Cash runway under base, worst and best case scenarios"
}

func (t *stressTestTool) Run(ctx context.Context, inv Invocation) (json.RawMessage, error) {
	args, err := parsePeriodArgs(inv.Args)
	if err != nil {
		return nil, err
	}
	from, to := args.period(t.kit.now())

	art := inv.Store.CreateVersion(artifact.TypeStressTest, artifact.Payload{
		Meta: artifact.Meta{
			Currency:    args.Currency,
			From:        from,
			To:          to,
			Title:       "Stress test",
			Description: periodDescription(from, to),
		},
	})

	flow, err := t.kit.provider.CashFlow(ctx, from, to, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute cash flow: %w", err)
	}
	runway, err := t.kit.provider.Runway(ctx, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute runway: %w", err)
	}
	avgIncome := seriesAverage(flow.Inflow)
	avgExpenses := seriesAverage(flow.Outflow)

	baseNet := avgIncome.Sub(avgExpenses)
	projection := projectedBalances(t.kit.now().UTC(), runway.Balance, baseNet, projectionMonths)
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageChartReady, artifact.Payload{
		Chart: chartFromSeries(projection),
	})

	var cards []artifact.MetricCard
	var figures string
	for _, sc := range stressScenarios {
		net := avgIncome.Mul(sc.income).Sub(avgExpenses.Mul(sc.expenses))
		months := scenarioMonths(runway.Balance, net)
		card := artifact.MetricCard{
			ID:       sc.id,
			Title:    sc.title,
			Value:    decimal.NewFromInt(months),
			Format:   artifact.FormatDuration,
			Subtitle: "months of cover",
		}
		if months < 0 {
			card.Value = decimal.Zero
			card.Subtitle = "cash positive"
			figures += fmt.Sprintf("%s: cash positive\n", sc.title)
		} else {
			figures += fmt.Sprintf("%s: %d months\n", sc.title, months)
		}
		cards = append(cards, card)
	}
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageMetricsReady, artifact.Payload{
		Metrics: &artifact.MetricsData{Cards: cards},
	})

	summary := t.kit.assistant.Summary(ctx, "stress test", figures)
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageAnalysisReady, artifact.Payload{
		Analysis: &artifact.AnalysisData{Summary: summary},
	})

	return marshalResult(toolResult{
		ArtifactType: art.Type,
		Version:      art.Version,
		Currency:     args.Currency,
		Months:       args.Months,
	})
}

// scenarioMonths is the months until the balance runs out at net; -1 means
// the scenario never runs out (non-negative net).
func scenarioMonths(balance, net decimal.Decimal) int64 {
	if !net.IsNegative() {
		return -1
	}
	months := balance.Div(net.Neg()).IntPart()
	if months < 0 {
		return 0
	}
	return months
}

func seriesAverage(series []metrics.MonthlyAmount) decimal.Decimal {
	if len(series) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range series {
		sum = sum.Add(p.Amount)
	}
	return sum.Div(decimal.NewFromInt(int64(len(series)))).Round(2)
}
