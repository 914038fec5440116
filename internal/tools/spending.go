package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/midday-ai/canvas/internal/artifact"
)

// NameSpending is the tool name for expense analysis.
const NameSpending = "spending"

type spendingTool struct {
	kit *Kit
}

func (t *spendingTool) Name() string { return NameSpending }

func (t *spendingTool) Describe() string {
	return "Monthly expenses over a period, with the category breakdown behind them"
}

func (t *spendingTool) Run(ctx context.Context, inv Invocation) (json.RawMessage, error) {
	args, err := parsePeriodArgs(inv.Args)
	if err != nil {
		return nil, err
	}
	from, to := args.period(t.kit.now())

	art := inv.Store.CreateVersion(artifact.TypeSpending, artifact.Payload{
		Meta: artifact.Meta{
			Currency:    args.Currency,
			From:        from,
			To:          to,
			Title:       "Spending",
			Description: periodDescription(from, to),
		},
	})

	report, err := t.kit.provider.Spending(ctx, from, to, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute spending: %w", err)
	}
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageChartReady, artifact.Payload{
		Chart: chartFromSeries(report.Monthly),
	})

	table := &artifact.TableData{
		Title: "Spending by category",
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
				"amount":   money(c.Amount, args.Currency),
			},
		})
	}
	totalCard := currencyCard("total-spending", "Total spending", report.Total, args.Currency)
	totalCard.Trend = trendFromSeries(report.Monthly)
	cards := []artifact.MetricCard{totalCard}
	if len(report.Categories) > 0 {
		top := report.Categories[0]
		topCard := currencyCard("top-category", "Largest category", top.Amount, args.Currency)
		topCard.Subtitle = top.Category
		cards = append(cards, topCard)
	}
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageMetricsReady, artifact.Payload{
		Metrics: &artifact.MetricsData{Cards: cards, Table: table},
	})

	figures := fmt.Sprintf("Total spending: %s\nCategories: %d\nMonths: %d",
		money(report.Total, args.Currency), len(report.Categories), len(report.Monthly))
	summary := t.kit.assistant.Summary(ctx, "spending", figures)
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
