package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/midday-ai/canvas/internal/artifact"
	"github.com/midday-ai/canvas/internal/metrics"
)

// NameCashFlow is the tool name for cash flow analysis.
const NameCashFlow = "cash_flow"

type cashFlowTool struct {
	kit *Kit
}

func (t *cashFlowTool) Name() string { return NameCashFlow }

func (t *cashFlowTool) Describe() string {
	return "Monthly cash inflows and outflows over a period, with the net position"
}

func (t *cashFlowTool) Run(ctx context.Context, inv Invocation) (json.RawMessage, error) {
	args, err := parsePeriodArgs(inv.Args)
	if err != nil {
		return nil, err
	}
	from, to := args.period(t.kit.now())

	art := inv.Store.CreateVersion(artifact.TypeCashFlow, artifact.Payload{
		Meta: artifact.Meta{
			Currency:    args.Currency,
			From:        from,
			To:          to,
			Title:       "Cash flow",
			Description: periodDescription(from, to),
		},
	})

	report, err := t.kit.provider.CashFlow(ctx, from, to, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute cash flow: %w", err)
	}

	// The chart plots the monthly net; inflow and outflow totals go on
	// the metrics grid.
	net := make([]metrics.MonthlyAmount, len(report.Inflow))
	inTotal, outTotal := decimal.Zero, decimal.Zero
	for i := range report.Inflow {
		net[i] = metrics.MonthlyAmount{
			Month:  report.Inflow[i].Month,
			Amount: report.Inflow[i].Amount.Sub(report.Outflow[i].Amount),
		}
		inTotal = inTotal.Add(report.Inflow[i].Amount)
		outTotal = outTotal.Add(report.Outflow[i].Amount)
	}
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageChartReady, artifact.Payload{
		Chart: chartFromSeries(net),
	})

	netCard := currencyCard("net-flow", "Net cash flow", report.Net, args.Currency)
	netCard.Trend = trendFromSeries(net)
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageMetricsReady, artifact.Payload{
		Metrics: &artifact.MetricsData{
			Cards: []artifact.MetricCard{
				netCard,
				currencyCard("total-in", "Money in", inTotal, args.Currency),
				currencyCard("total-out", "Money out", outTotal, args.Currency),
			},
		},
	})

	figures := fmt.Sprintf("Net cash flow: %s\nMoney in: %s\nMoney out: %s",
		money(report.Net, args.Currency), money(inTotal, args.Currency), money(outTotal, args.Currency))
	summary := t.kit.assistant.Summary(ctx, "cash flow", figures)
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
