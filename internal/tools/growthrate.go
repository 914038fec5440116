package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/midday-ai/canvas/internal/artifact"
)

// NameGrowthRate is the tool name for period-over-period growth.
const NameGrowthRate = "growth_rate"

type growthRateTool struct {
	kit *Kit
}

func (t *growthRateTool) Name() string { return NameGrowthRate }

func (t *growthRateTool) Describe() string {
	return "Revenue growth rate against the preceding period of equal length"
}

func (t *growthRateTool) Run(ctx context.Context, inv Invocation) (json.RawMessage, error) {
	args, err := parsePeriodArgs(inv.Args)
	if err != nil {
		return nil, err
	}
	from, to := args.period(t.kit.now())

	art := inv.Store.CreateVersion(artifact.TypeGrowthRate, artifact.Payload{
		Meta: artifact.Meta{
			Currency:    args.Currency,
			From:        from,
			To:          to,
			Title:       "Growth rate",
			Description: periodDescription(from, to),
		},
	})

	current, err := t.kit.provider.RevenueSummary(ctx, from, to, args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute current revenue: %w", err)
	}
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageChartReady, artifact.Payload{
		Chart: chartFromSeries(current.Monthly),
	})

	// The comparison window is the same number of months immediately
	// before the requested period.
	previous, err := t.kit.provider.RevenueSummary(ctx,
		from.AddDate(0, -args.Months, 0), to.AddDate(0, -args.Months, 0), args.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to compute previous revenue: %w", err)
	}

	rate := decimal.Zero
	if previous.Total.IsPositive() {
		rate = current.Total.Sub(previous.Total).Div(previous.Total).Mul(decimal.NewFromInt(100)).Round(1)
	}
	rateCard := artifact.MetricCard{
		ID:       "growth-rate",
		Title:    "Growth rate",
		Value:    rate,
		Format:   artifact.FormatPercentage,
		Subtitle: "vs the preceding period",
	}
	switch {
	case rate.IsPositive():
		rateCard.Trend = &artifact.Trend{Direction: artifact.TrendUp, Description: "growing"}
	case rate.IsNegative():
		rateCard.Trend = &artifact.Trend{Direction: artifact.TrendDown, Description: "shrinking"}
	default:
		rateCard.Trend = &artifact.Trend{Direction: artifact.TrendFlat, Description: "flat"}
	}
	inv.Store.CreateOrUpdate(art.Type, art.Version, artifact.StageMetricsReady, artifact.Payload{
		Metrics: &artifact.MetricsData{
			Cards: []artifact.MetricCard{
				rateCard,
				currencyCard("current-revenue", "This period", current.Total, args.Currency),
				currencyCard("previous-revenue", "Previous period", previous.Total, args.Currency),
			},
		},
	})

	figures := fmt.Sprintf("Growth rate: %s%%\nThis period: %s\nPrevious period: %s",
		rate.StringFixed(1), money(current.Total, args.Currency), money(previous.Total, args.Currency))
	summary := t.kit.assistant.Summary(ctx, "growth rate", figures)
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
