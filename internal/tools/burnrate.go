package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/midday-ai/canvas/internal/artifact"
)

// NameBurnRate is the tool name the assistant invokes for burn analysis.
const NameBurnRate = "burn_rate"

type burnRateTool struct {
	kit *Kit
}

func (t *burnRateTool) Name() string { return NameBurnRate }

func (t *burnRateTool) Describe() string {
	return "Monthly burn rate over a period, with runway projection at the current burn"
}

func (t *burnRateTool) Run(ctx context.Context, inv Invocation) (json.RawMessage, error) {
	args, err := parsePeriodArgs(inv.Args)
	if err != nil {
		return nil, err
	}
	from, to := args.period(t.kit.now())

	art := inv.Store.CreateVersion(artifact.TypeBurnRate, artifact.Payload{
		Meta: artifact.Meta{
			Currency:    args.Currency,
			From:        from,
			To:          to,
			Title:       "Burn rate",
			Description: periodDescription(from, to),
		},
	})

	report, err := t.kit.provider.BurnRate(ctx, from, to, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute burn rate: %w", err)
	}
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageChartReady, artifact.Payload{
		Chart: chartFromSeries(report.Monthly),
	})

	runway, err := t.kit.provider.Runway(ctx, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute runway: %w", err)
	}
	avgCard := currencyCard("average-burn", "Average monthly burn", report.Average, args.Currency)
	avgCard.Trend = trendFromSeries(report.Monthly)
	runwayCard := artifact.MetricCard{
		ID:       "runway",
		Title:    "Runway",
		Value:    decimal.NewFromInt(runway.Months),
		Format:   artifact.FormatDuration,
		Subtitle: "months at current burn",
	}
	if runway.Months < 0 {
		runwayCard.Value = decimal.Zero
		runwayCard.Subtitle = "cash positive at current burn"
	}
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageMetricsReady, artifact.Payload{
		Metrics: &artifact.MetricsData{
			Cards: []artifact.MetricCard{
				avgCard,
				runwayCard,
				currencyCard("balance", "Cash balance", runway.Balance, args.Currency),
			},
		},
	})

	figures := fmt.Sprintf("Average monthly burn: %s\nRunway: %d months\nCash balance: %s",
		money(report.Average, args.Currency), runway.Months, money(runway.Balance, args.Currency))
	summary := t.kit.assistant.Summary(ctx, "burn rate", figures)
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
