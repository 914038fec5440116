package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/midday-ai/canvas/internal/artifact"
)

// NameRevenueSummary is the tool name for revenue analysis.
const NameRevenueSummary = "revenue_summary"

type revenueSummaryTool struct {
	kit *Kit
}

func (t *revenueSummaryTool) Name() string { return NameRevenueSummary }

func (t *revenueSummaryTool) Describe() string {
	return "Monthly revenue from paid invoices over a period, with totals and averages"
}

func (t *revenueSummaryTool) Run(ctx context.Context, inv Invocation) (json.RawMessage, error) {
	args, err := parsePeriodArgs(inv.Args)
	if err != nil {
		return nil, err
	}
	from, to := args.period(t.kit.now())

	art := inv.Store.CreateVersion(artifact.TypeRevenue, artifact.Payload{
		Meta: artifact.Meta{
			Currency:    args.Currency,
			From:        from,
			To:          to,
			Title:       "Revenue",
			Description: periodDescription(from, to),
		},
	})

	report, err := t.kit.provider.RevenueSummary(ctx, from, to, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageChartReady, artifact.Payload{
		Chart: chartFromSeries(report.Monthly),
	})

	totalCard := currencyCard("total-revenue", "Total revenue", report.Total, args.Currency)
	totalCard.Trend = trendFromSeries(report.Monthly)
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageMetricsReady, artifact.Payload{
		Metrics: &artifact.MetricsData{
			Cards: []artifact.MetricCard{
				totalCard,
				currencyCard("average-revenue", "Average per month", report.Average, args.Currency),
			},
		},
	})

	figures := fmt.Sprintf("Total revenue: %s\nAverage per month: %s\nMonths: %d",
		money(report.Total, args.Currency), money(report.Average, args.Currency), len(report.Monthly))
	summary := t.kit.assistant.Summary(ctx, "revenue", figures)
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
