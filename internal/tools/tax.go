package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/midday-ai/canvas/internal/artifact"
)

// NameTaxSummary is the tool name for tax aggregation.
const NameTaxSummary = "tax_summary"

type taxSummaryTool struct {
	kit *Kit
}

func (t *taxSummaryTool) Name() string { return NameTaxSummary }

func (t *taxSummaryTool) Describe() string {
	return "Tax collected per category over a period"
}

// Run streams the tax summary canvas. Tax has no monthly series worth
// charting, so the artifact goes straight from loading to metrics_ready;
// stage ordering permits skipped stages.
func (t *taxSummaryTool) Run(ctx context.Context, inv Invocation) (json.RawMessage, error) {
	args, err := parsePeriodArgs(inv.Args)
	if err != nil {
		return nil, err
	}
	from, to := args.period(t.kit.now())

	art := inv.Store.CreateVersion(artifact.TypeTaxSummary, artifact.Payload{
		Meta: artifact.Meta{
			Currency:    args.Currency,
			From:        from,
			To:          to,
			Title:       "Tax summary",
			Description: periodDescription(from, to),
		},
	})

	report, err := t.kit.provider.TaxSummary(ctx, from, to, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tax summary: %w", err)
	}

	table := &artifact.TableData{
		Title: "Tax by category",
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
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageMetricsReady, artifact.Payload{
		Metrics: &artifact.MetricsData{
			Cards: []artifact.MetricCard{
				currencyCard("total-tax", "Total tax", report.Total, args.Currency),
			},
			Table: table,
		},
	})

	figures := fmt.Sprintf("Total tax: %s\nCategories: %d",
		money(report.Total, args.Currency), len(report.Categories))
	summary := t.kit.assistant.Summary(ctx, "tax", figures)
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
