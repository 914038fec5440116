package metrics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Static is a deterministic in-memory Provider for tests and simulation
// mode. Figures are pure functions of the requested period, so repeated
// calls always agree.
type Static struct {
	// Balance is the opening balance used by Runway.
	Balance decimal.Decimal
}

// NewStatic returns a Static provider with a plausible opening balance.
func NewStatic() *Static {
	return &Static{Balance: decimal.NewFromInt(250_000)}
}

var _ Provider = (*Static)(nil)

// monthSeed derives a stable per-month integer from the formatted month, so
// the synthetic series varies without randomness.
func monthSeed(month string) int64 {
	var h int64
	for _, r := range month {
		h = h*31 + int64(r)
	}
	if h < 0 {
		h = -h
	}
	return h % 7
}

func syntheticSeries(from, to time.Time, base int64, step int64) []MonthlyAmount {
	months := MonthsBetween(from, to)
	out := make([]MonthlyAmount, 0, len(months))
	for _, m := range months {
		out = append(out, MonthlyAmount{
			Month:  m,
			Amount: decimal.NewFromInt(base + step*monthSeed(m)),
		})
	}
	return out
}

func average(series []MonthlyAmount) decimal.Decimal {
	if len(series) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range series {
		sum = sum.Add(p.Amount)
	}
	return sum.Div(decimal.NewFromInt(int64(len(series)))).Round(2)
}

func (s *Static) BurnRate(_ context.Context, from, to time.Time, currency string) (BurnRateReport, error) {
	monthly := syntheticSeries(from, to, 42_000, 1_500)
	return BurnRateReport{
		Currency: currency,
		From:     from,
		To:       to,
		Monthly:  monthly,
		Average:  average(monthly),
	}, nil
}

func (s *Static) Runway(_ context.Context, currency string) (RunwayReport, error) {
	burn := decimal.NewFromInt(46_500)
	months := s.Balance.Div(burn).IntPart()
	return RunwayReport{
		Currency:    currency,
		Balance:     s.Balance,
		MonthlyBurn: burn,
		Months:      months,
	}, nil
}

func (s *Static) RevenueSummary(_ context.Context, from, to time.Time, currency string) (RevenueReport, error) {
	monthly := syntheticSeries(from, to, 61_000, 2_750)
	total := decimal.Zero
	for _, p := range monthly {
		total = total.Add(p.Amount)
	}
	return RevenueReport{
		Currency: currency,
		From:     from,
		To:       to,
		Monthly:  monthly,
		Total:    total,
		Average:  average(monthly),
	}, nil
}

func (s *Static) Profit(_ context.Context, from, to time.Time, currency string) (ProfitReport, error) {
	income := syntheticSeries(from, to, 61_000, 2_750)
	expenses := syntheticSeries(from, to, 42_000, 1_500)
	monthly := make([]MonthlyAmount, len(income))
	revenue, spent := decimal.Zero, decimal.Zero
	for i := range income {
		monthly[i] = MonthlyAmount{
			Month:  income[i].Month,
			Amount: income[i].Amount.Sub(expenses[i].Amount),
		}
		revenue = revenue.Add(income[i].Amount)
		spent = spent.Add(expenses[i].Amount)
	}
	return ProfitReport{
		Currency: currency,
		From:     from,
		To:       to,
		Monthly:  monthly,
		Revenue:  revenue,
		Expenses: spent,
		Total:    revenue.Sub(spent),
	}, nil
}

func (s *Static) Spending(_ context.Context, from, to time.Time, currency string) (SpendingReport, error) {
	monthly := syntheticSeries(from, to, 42_000, 1_500)
	total := decimal.Zero
	for _, p := range monthly {
		total = total.Add(p.Amount)
	}
	months := int64(len(monthly))
	categories := []CategoryAmount{
		{Category: "payroll", Amount: decimal.NewFromInt(24_000 * months)},
		{Category: "software", Amount: decimal.NewFromInt(6_300 * months)},
		{Category: "office", Amount: decimal.NewFromInt(4_100 * months)},
		{Category: "travel", Amount: decimal.NewFromInt(2_200 * months)},
	}
	return SpendingReport{
		Currency:   currency,
		From:       from,
		To:         to,
		Monthly:    monthly,
		Categories: categories,
		Total:      total,
	}, nil
}

func (s *Static) CashFlow(_ context.Context, from, to time.Time, currency string) (CashFlowReport, error) {
	inflow := syntheticSeries(from, to, 61_000, 2_750)
	outflow := syntheticSeries(from, to, 42_000, 1_500)
	net := decimal.Zero
	for i := range inflow {
		net = net.Add(inflow[i].Amount).Sub(outflow[i].Amount)
	}
	return CashFlowReport{
		Currency: currency,
		From:     from,
		To:       to,
		Inflow:   inflow,
		Outflow:  outflow,
		Net:      net,
	}, nil
}

func (s *Static) TaxSummary(_ context.Context, from, to time.Time, currency string) (TaxReport, error) {
	months := int64(len(MonthsBetween(from, to)))
	categories := []CategoryAmount{
		{Category: "vat", Amount: decimal.NewFromInt(3_200 * months)},
		{Category: "payroll", Amount: decimal.NewFromInt(5_400 * months)},
		{Category: "corporate", Amount: decimal.NewFromInt(1_850 * months)},
	}
	total := decimal.Zero
	for _, c := range categories {
		total = total.Add(c.Amount)
	}
	return TaxReport{
		Currency:   currency,
		From:       from,
		To:         to,
		Categories: categories,
		Total:      total,
	}, nil
}

func (s *Static) Breakdown(_ context.Context, year int, month time.Month, currency string) (BreakdownReport, error) {
	at := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	key := at.Format("2006-01")
	income := decimal.NewFromInt(61_000 + 2_750*monthSeed(key))
	categories := []CategoryAmount{
		{Category: "payroll", Amount: decimal.NewFromInt(24_000)},
		{Category: "software", Amount: decimal.NewFromInt(6_300 + 400*monthSeed(key))},
		{Category: "office", Amount: decimal.NewFromInt(4_100)},
		{Category: "travel", Amount: decimal.NewFromInt(2_200 + 900*monthSeed(key))},
	}
	expenses := decimal.Zero
	for _, c := range categories {
		expenses = expenses.Add(c.Amount)
	}
	return BreakdownReport{
		Currency:   currency,
		Year:       year,
		Month:      month,
		Income:     income,
		Expenses:   expenses,
		Net:        income.Sub(expenses),
		Categories: categories,
	}, nil
}
