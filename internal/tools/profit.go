package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/midday-ai/canvas/internal/artifact"
)

// NameProfit is the tool name for profit analysis.
const NameProfit = "profit"

type profitTool struct {
	kit *Kit
}

func (t *profitTool) Name() string { return NameProfit }

func (t *profitTool) Describe() string {
	return "Monthly profit (revenue minus expenses) over a period, with margin"
}

func (t *profitTool) Run(ctx context.Context, inv Invocation) (json.RawMessage, error) {
	args, err := parsePeriodArgs(inv.Args)
	if err != nil {
		return nil, err
	}
	from, to := args.period(t.kit.now())

	art := inv.Store.CreateVersion(artifact.TypeProfit, artifact.Payload{
		Meta: artifact.Meta{
			Currency:    args.Currency,
			From:        from,
			To:          to,
			Title:       "Profit",
			Description: periodDescription(from, to),
		},
	})

	report, err := t.kit.provider.Profit(ctx, from, to, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute profit: %w", err)
	}
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageChartReady, artifact.Payload{
		Chart: chartFromSeries(report.Monthly),
	})

	// Margin uses net revenue as the denominator; zero revenue means no
	// meaningful margin.
	margin := decimal.Zero
	if report.Revenue.IsPositive() {
		margin = report.Total.Div(report.Revenue).Mul(decimal.NewFromInt(100)).Round(1)
	}
	totalCard := currencyCard("total-profit", "Total profit", report.Total, args.Currency)
	totalCard.Trend = trendFromSeries(report.Monthly)
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageMetricsReady, artifact.Payload{
		Metrics: &artifact.MetricsData{
			Cards: []artifact.MetricCard{
				totalCard,
				{
					ID:       "profit-margin",
					Title:    "Profit margin",
					Value:    margin,
					Format:   artifact.FormatPercentage,
					Subtitle: "of net revenue",
				},
				currencyCard("net-revenue", "Net revenue", report.Revenue, args.Currency),
			},
		},
	})

	figures := fmt.Sprintf("Total profit: %s\nProfit margin: %s%%\nNet revenue: %s\nExpenses: %s",
		money(report.Total, args.Currency), margin.StringFixed(1),
		money(report.Revenue, args.Currency), money(report.Expenses, args.Currency))
	summary := t.kit.assistant.Summary(ctx, "profit", figures)
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
