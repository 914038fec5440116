package metrics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyAmount is one point of a monthly series. Month is formatted as
// "2006-01".
type MonthlyAmount struct {
	Month  string
	Amount decimal.Decimal
}

// CategoryAmount is one row of a category aggregation.
type CategoryAmount struct {
	Category string
	Amount   decimal.Decimal
}

// BurnRateReport is the monthly net spend over a period.
type BurnRateReport struct {
	Currency string
	From, To time.Time
	Monthly  []MonthlyAmount
	Average  decimal.Decimal
}

// RunwayReport projects how long the current balance lasts at the average
// burn. Months is -1 when the burn is zero or negative (infinite runway).
type RunwayReport struct {
	Currency    string
	Balance     decimal.Decimal
	MonthlyBurn decimal.Decimal
	Months      int64
}

// RevenueReport is the monthly income over a period.
type RevenueReport struct {
	Currency string
	From, To time.Time
	Monthly  []MonthlyAmount
	Total    decimal.Decimal
	Average  decimal.Decimal
}

// CashFlowReport pairs inflows and outflows per month. Net is the sum over
// the whole period.
type CashFlowReport struct {
	Currency string
	From, To time.Time
	Inflow   []MonthlyAmount
	Outflow  []MonthlyAmount
	Net      decimal.Decimal
}

// ProfitReport is monthly profit (income minus expenses) over a period.
// Revenue and Expenses carry the period totals behind the net figure; the
// margin is profit over revenue.
type ProfitReport struct {
	Currency string
	From, To time.Time
	Monthly  []MonthlyAmount
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
	Total    decimal.Decimal
}

// SpendingReport pairs the monthly expense series with the category
// aggregation over the same period.
type SpendingReport struct {
	Currency   string
	From, To   time.Time
	Monthly    []MonthlyAmount
	Categories []CategoryAmount
	Total      decimal.Decimal
}

// TaxReport aggregates collected tax by category over a period.
type TaxReport struct {
	Currency   string
	From, To   time.Time
	Categories []CategoryAmount
	Total      decimal.Decimal
}

// BreakdownReport summarizes a single month: totals plus the expense
// categories that produced them.
type BreakdownReport struct {
	Currency   string
	Year       int
	Month      time.Month
	Income     decimal.Decimal
	Expenses   decimal.Decimal
	Net        decimal.Decimal
	Categories []CategoryAmount
}

// Provider computes dashboard figures. Implementations must be safe for
// concurrent use; tools for one chat turn run in parallel.
type Provider interface {
	BurnRate(ctx context.Context, from, to time.Time, currency string) (BurnRateReport, error)
	Runway(ctx context.Context, currency string) (RunwayReport, error)
	RevenueSummary(ctx context.Context, from, to time.Time, currency string) (RevenueReport, error)
	Profit(ctx context.Context, from, to time.Time, currency string) (ProfitReport, error)
	Spending(ctx context.Context, from, to time.Time, currency string) (SpendingReport, error)
	CashFlow(ctx context.Context, from, to time.Time, currency string) (CashFlowReport, error)
	TaxSummary(ctx context.Context, from, to time.Time, currency string) (TaxReport, error)
	Breakdown(ctx context.Context, year int, month time.Month, currency string) (BreakdownReport, error)
}

// MonthsBetween lists the months from from through to inclusive, formatted
// like MonthlyAmount.Month. Providers use it to emit zero-filled series so
// charts never have gaps.
func MonthsBetween(from, to time.Time) []string {
	var out []string
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		out = append(out, cur.Format("2006-01"))
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}
