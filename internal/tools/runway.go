package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/midday-ai/canvas/internal/artifact"
)

// NameRunway is the tool name for the runway projection.
const NameRunway = "runway"

// projectionMonths is the horizon of the projected balance chart.
const projectionMonths = 12

type runwayTool struct {
	kit *Kit
}

func (t *runwayTool) Name() string { return NameRunway }

func (t *runwayTool) Describe() string {
	return "Months of cash cover at the current burn, with the projected balance decline"
}

func (t *runwayTool) Run(ctx context.Context, inv Invocation) (json.RawMessage, error) {
	args, err := parsePeriodArgs(inv.Args)
	if err != nil {
		return nil, err
	}
	now := t.kit.now()
	from := now.UTC()
	to := from.AddDate(0, projectionMonths-1, 0)

	art := inv.Store.CreateVersion(artifact.TypeRunway, artifact.Payload{
		Meta: artifact.Meta{
			Currency:    args.Currency,
			From:        from,
			To:          to,
			Title:       "Runway",
			Description: periodDescription(from, to),
		},
	})

	runway, err := t.kit.provider.Runway(ctx, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute runway: %w", err)
	}
	projection := projectedBalances(from, runway.Balance, runway.MonthlyBurn.Neg(), projectionMonths)
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageChartReady, artifact.Payload{
		Chart: chartFromSeries(projection),
	})

	monthsCard := artifact.MetricCard{
		ID:       "runway",
		Title:    "Runway",
		Value:    decimal.NewFromInt(runway.Months),
		Format:   artifact.FormatDuration,
		Subtitle: "months at current burn",
	}
	if runway.Months < 0 {
		monthsCard.Value = decimal.Zero
		monthsCard.Subtitle = "cash positive at current burn"
	}
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageMetricsReady, artifact.Payload{
		Metrics: &artifact.MetricsData{
			Cards: []artifact.MetricCard{
				monthsCard,
				currencyCard("balance", "Cash balance", runway.Balance, args.Currency),
				currencyCard("monthly-burn", "Monthly burn", runway.MonthlyBurn, args.Currency),
			},
		},
	})

	figures := fmt.Sprintf("Runway: %d months\nCash balance: %s\nMonthly burn: %s",
		runway.Months, money(runway.Balance, args.Currency), money(runway.MonthlyBurn, args.Currency))
	summary := t.kit.assistant.Summary(ctx, "runway", figures)
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageAnalysisReady, artifact.Payload{
		Analysis: &artifact.AnalysisData{Summary: summary},
	})

	return marshalResult(toolResult{
		ArtifactType: art.Type,
		Version:      art.Version,
		Currency:     args.Currency,
	})
}
