package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/midday-ai/canvas/internal/artifact"
	"github.com/midday-ai/canvas/internal/metrics"
)

// NameMetricsBreakdown is the tool name for the per-month breakdown.
const NameMetricsBreakdown = "metrics_breakdown"

type metricsBreakdownTool struct {
	kit *Kit
}

func (t *metricsBreakdownTool) Name() string { return NameMetricsBreakdown }

func (t *metricsBreakdownTool) Describe() string {
	return "Per-month income and expense breakdown; opens one canvas per month plus an overview"
}

// Run streams the base overview canvas and one monthly family member per
// month in the period. Monthly members carry only a metrics grid and
// narrative - they skip chart_ready.
func (t *metricsBreakdownTool) Run(ctx context.Context, inv Invocation) (json.RawMessage, error) {
	args, err := parsePeriodArgs(inv.Args)
	if err != nil {
		return nil, err
	}
	from, to := args.period(t.kit.now())

	base := inv.Store.CreateVersion(artifact.TypeBreakdownSummary, artifact.Payload{
		Meta: artifact.Meta{
			Currency:    args.Currency,
			From:        from,
			To:          to,
			Title:       "Monthly breakdown",
			Description: periodDescription(from, to),
		},
	})

	flow, err := t.kit.provider.CashFlow(ctx, from, to, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute overview: %w", err)
	}
	net := make([]metrics.MonthlyAmount, len(flow.Inflow))
	for i := range flow.Inflow {
		net[i] = metrics.MonthlyAmount{
			Month:  flow.Inflow[i].Month,
			Amount: flow.Inflow[i].Amount.Sub(flow.Outflow[i].Amount),
		}
	}
	inv.Store.CreateOrUpdate(base.Type, base.Version, artifact.StageChartReady, artifact.Payload{
		Chart: chartFromSeries(net),
	})

	netCard := currencyCard("net", "Net over period", flow.Net, args.Currency)
	netCard.Trend = trendFromSeries(net)
	inv.Store.CreateOrUpdate(base.Type, base.Version, artifact.StageMetricsReady, artifact.Payload{
		Metrics: &artifact.MetricsData{Cards: []artifact.MetricCard{netCard}},
	})

	for _, monthKey := range metrics.MonthsBetween(from, to) {
		at, err := time.Parse("2006-01", monthKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse month %q: %w", monthKey, err)
		}
		if err := t.streamMonth(ctx, inv, at.Year(), at.Month(), args.Currency); err != nil {
			return nil, err
		}
	}

	figures := fmt.Sprintf("Net over period: %s\nMonths: %d",
		money(flow.Net, args.Currency), len(net))
	summary := t.kit.assistant.Summary(ctx, "monthly breakdown", figures)
	inv.Store.CreateOrUpdate(base.Type, base.Version, artifact.StageAnalysisReady, artifact.Payload{
		Analysis: &artifact.AnalysisData{Summary: summary},
	})

	return marshalResult(toolResult{
		ArtifactType: base.Type,
		Version:      base.Version,
		Currency:     args.Currency,
		Months:       args.Months,
	})
}

func (t *metricsBreakdownTool) streamMonth(ctx context.Context, inv Invocation, year int, month time.Month, currency string) error {
	typ := artifact.MonthlyBreakdownType(year, month)
	label := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")

	art := inv.Store.CreateVersion(typ, artifact.Payload{
		Meta: artifact.Meta{Currency: currency, Title: label},
	})

	report, err := t.kit.provider.Breakdown(ctx, year, month, currency)
	if err != nil {
		return fmt.Errorf("failed to compute breakdown for %s: %w", label, err)
	}

	table := &artifact.TableData{
		Title: "Expenses by category",
		Columns: []artifact.TableColumn{
			{Key: "category", Label: "Category", Align: "left"},
			{Key: "amount", Label: "Amount", Align: "right"},
		},
	}
	for _, c := range report.Categories {
		table.Rows = append(table.Rows, artifact.TableRow{
			ID: c.Category,
			Cells: map[string]string{
				"category": c.Category,
				"amount":   money(c.Amount, currency),
			},
		})
	}
	inv.Store.CreateOrUpdate(typ, art.Version, artifact.StageMetricsReady, artifact.Payload{
		Metrics: &artifact.MetricsData{
			Cards: []artifact.MetricCard{
				currencyCard("income", "Income", report.Income, currency),
				currencyCard("expenses", "Expenses", report.Expenses, currency),
				currencyCard("net", "Net", report.Net, currency),
			},
			Table: table,
		},
	})

	figures := fmt.Sprintf("Income: %s\nExpenses: %s\nNet: %s",
		money(report.Income, currency), money(report.Expenses, currency), money(report.Net, currency))
	summary := t.kit.assistant.Summary(ctx, label+" breakdown", figures)
	inv.Store.CreateOrUpdate(typ, art.Version, artifact.StageAnalysisReady, artifact.Payload{
		Analysis: &artifact.AnalysisData{Summary: summary},
	})
	return nil
}
