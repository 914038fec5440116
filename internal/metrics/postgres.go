package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Postgres computes figures by aggregating the transactions and invoices
// tables. Amounts are selected as text and parsed into decimals so no
// float conversion ever touches money.
//
// Postgres is safe for concurrent use; pgxpool handles connection sharing.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgres creates a Provider over an existing connection pool. A nil
// logger falls back to slog.Default.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger, now: time.Now}
}

var _ Provider = (*Postgres)(nil)

// periodBounds widens (from, to) to whole months: the start of from's month
// and the exclusive start of the month after to's.
func periodBounds(from, to time.Time) (time.Time, time.Time) {
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return start, end
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	return d, nil
}

// monthlySums runs a query returning (month, amount::text) rows and
// zero-fills the months the query did not produce.
func (p *Postgres) monthlySums(ctx context.Context, query string, from, to time.Time, currency string) ([]MonthlyAmount, error) {
	start, end := periodBounds(from, to)
	rows, err := p.pool.Query(ctx, query, start, end, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly sums: %w", err)
	}
	defer rows.Close()

	byMonth := make(map[string]decimal.Decimal)
	for rows.Next() {
		var month, amount string
		if err := rows.Scan(&month, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly sum: %w", err)
		}
		d, err := parseAmount(amount)
		if err != nil {
			return nil, err
		}
		byMonth[month] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read monthly sums: %w", err)
	}

	out := make([]MonthlyAmount, 0)
	for _, m := range MonthsBetween(from, to) {
		out = append(out, MonthlyAmount{Month: m, Amount: byMonth[m]})
	}
	return out, nil
}

func (p *Postgres) BurnRate(ctx context.Context, from, to time.Time, currency string) (BurnRateReport, error) {
	const query = `
		SELECT to_char(date_trunc('month', occurred_at), 'YYYY-MM'),
		       (-SUM(amount))::text
		FROM transactions
		WHERE occurred_at >= $1 AND occurred_at < $2
		  AND currency = $3 AND amount < 0
		GROUP BY 1`
	monthly, err := p.monthlySums(ctx, query, from, to, currency)
	if err != nil {
		return BurnRateReport{}, err
	}
	return BurnRateReport{
		Currency: currency,
		From:     from,
		To:       to,
		Monthly:  monthly,
		Average:  average(monthly),
	}, nil
}

func (p *Postgres) Runway(ctx context.Context, currency string) (RunwayReport, error) {
	var balanceText, burnText string
	err := p.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::text FROM transactions WHERE currency = $1`,
		currency).Scan(&balanceText)
	if err != nil {
		return RunwayReport{}, fmt.Errorf("failed to query balance: %w", err)
	}
	err = p.pool.QueryRow(ctx,
		`SELECT COALESCE(-SUM(amount) / 6, 0)::text
		 FROM transactions
		 WHERE currency = $1 AND amount < 0 AND occurred_at >= $2`,
		currency, p.now().AddDate(0, -6, 0)).Scan(&burnText)
	if err != nil {
		return RunwayReport{}, fmt.Errorf("failed to query burn: %w", err)
	}

	balance, err := parseAmount(balanceText)
	if err != nil {
		return RunwayReport{}, err
	}
	burn, err := parseAmount(burnText)
	if err != nil {
		return RunwayReport{}, err
	}

	months := int64(-1)
	if burn.IsPositive() {
		months = balance.Div(burn).IntPart()
		if months < 0 {
			months = 0
		}
	}
	return RunwayReport{
		Currency:    currency,
		Balance:     balance,
		MonthlyBurn: burn.Round(2),
		Months:      months,
	}, nil
}

func (p *Postgres) RevenueSummary(ctx context.Context, from, to time.Time, currency string) (RevenueReport, error) {
	// Revenue counts paid invoices by payment month, not bank inflows.
	const query = `
		SELECT to_char(date_trunc('month', paid_at), 'YYYY-MM'),
		       SUM(amount)::text
		FROM invoices
		WHERE paid_at >= $1 AND paid_at < $2
		  AND currency = $3 AND status = 'paid'
		GROUP BY 1`
	monthly, err := p.monthlySums(ctx, query, from, to, currency)
	if err != nil {
		return RevenueReport{}, err
	}
	total := decimal.Zero
	for _, m := range monthly {
		total = total.Add(m.Amount)
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

func (p *Postgres) Profit(ctx context.Context, from, to time.Time, currency string) (ProfitReport, error) {
	const query = `
		SELECT to_char(date_trunc('month', occurred_at), 'YYYY-MM'),
		       SUM(amount)::text
		FROM transactions
		WHERE occurred_at >= $1 AND occurred_at < $2 AND currency = $3
		GROUP BY 1`
	monthly, err := p.monthlySums(ctx, query, from, to, currency)
	if err != nil {
		return ProfitReport{}, err
	}

	start, end := periodBounds(from, to)
	var revenueText, expensesText string
	err = p.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0)::text,
		        COALESCE(-SUM(amount) FILTER (WHERE amount < 0), 0)::text
		 FROM transactions
		 WHERE occurred_at >= $1 AND occurred_at < $2 AND currency = $3`,
		start, end, currency).Scan(&revenueText, &expensesText)
	if err != nil {
		return ProfitReport{}, fmt.Errorf("failed to query profit totals: %w", err)
	}
	revenue, err := parseAmount(revenueText)
	if err != nil {
		return ProfitReport{}, err
	}
	expenses, err := parseAmount(expensesText)
	if err != nil {
		return ProfitReport{}, err
	}

	return ProfitReport{
		Currency: currency,
		From:     from,
		To:       to,
		Monthly:  monthly,
		Revenue:  revenue,
		Expenses: expenses,
		Total:    revenue.Sub(expenses),
	}, nil
}

func (p *Postgres) Spending(ctx context.Context, from, to time.Time, currency string) (SpendingReport, error) {
	const monthlyQuery = `
		SELECT to_char(date_trunc('month', occurred_at), 'YYYY-MM'),
		       (-SUM(amount))::text
		FROM transactions
		WHERE occurred_at >= $1 AND occurred_at < $2
		  AND currency = $3 AND amount < 0
		GROUP BY 1`
	monthly, err := p.monthlySums(ctx, monthlyQuery, from, to, currency)
	if err != nil {
		return SpendingReport{}, err
	}

	start, end := periodBounds(from, to)
	rows, err := p.pool.Query(ctx,
		`SELECT category, (-SUM(amount))::text
		 FROM transactions
		 WHERE occurred_at >= $1 AND occurred_at < $2
		   AND currency = $3 AND amount < 0
		 GROUP BY category
		 ORDER BY SUM(amount) ASC`,
		start, end, currency)
	if err != nil {
		return SpendingReport{}, fmt.Errorf("failed to query spending categories: %w", err)
	}
	defer rows.Close()

	report := SpendingReport{Currency: currency, From: from, To: to, Monthly: monthly, Total: decimal.Zero}
	for _, m := range monthly {
		report.Total = report.Total.Add(m.Amount)
	}
	for rows.Next() {
		var category, amountText string
		if err := rows.Scan(&category, &amountText); err != nil {
			return SpendingReport{}, fmt.Errorf("failed to scan spending category: %w", err)
		}
		amount, err := parseAmount(amountText)
		if err != nil {
			return SpendingReport{}, err
		}
		report.Categories = append(report.Categories, CategoryAmount{Category: category, Amount: amount})
	}
	if err := rows.Err(); err != nil {
		return SpendingReport{}, fmt.Errorf("failed to read spending categories: %w", err)
	}
	return report, nil
}

func (p *Postgres) CashFlow(ctx context.Context, from, to time.Time, currency string) (CashFlowReport, error) {
	const query = `
		SELECT to_char(date_trunc('month', occurred_at), 'YYYY-MM'),
		       COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0)::text,
		       COALESCE(-SUM(amount) FILTER (WHERE amount < 0), 0)::text
		FROM transactions
		WHERE occurred_at >= $1 AND occurred_at < $2 AND currency = $3
		GROUP BY 1`
	start, end := periodBounds(from, to)
	rows, err := p.pool.Query(ctx, query, start, end, currency)
	if err != nil {
		return CashFlowReport{}, fmt.Errorf("failed to query cash flow: %w", err)
	}
	defer rows.Close()

	type flow struct{ in, out decimal.Decimal }
	byMonth := make(map[string]flow)
	for rows.Next() {
		var month, inText, outText string
		if err := rows.Scan(&month, &inText, &outText); err != nil {
			return CashFlowReport{}, fmt.Errorf("failed to scan cash flow: %w", err)
		}
		in, err := parseAmount(inText)
		if err != nil {
			return CashFlowReport{}, err
		}
		out, err := parseAmount(outText)
		if err != nil {
			return CashFlowReport{}, err
		}
		byMonth[month] = flow{in: in, out: out}
	}
	if err := rows.Err(); err != nil {
		return CashFlowReport{}, fmt.Errorf("failed to read cash flow: %w", err)
	}

	report := CashFlowReport{Currency: currency, From: from, To: to, Net: decimal.Zero}
	for _, m := range MonthsBetween(from, to) {
		f := byMonth[m]
		report.Inflow = append(report.Inflow, MonthlyAmount{Month: m, Amount: f.in})
		report.Outflow = append(report.Outflow, MonthlyAmount{Month: m, Amount: f.out})
		report.Net = report.Net.Add(f.in).Sub(f.out)
	}
	return report, nil
}

func (p *Postgres) TaxSummary(ctx context.Context, from, to time.Time, currency string) (TaxReport, error) {
	const query = `
		SELECT category, SUM(tax_amount)::text
		FROM transactions
		WHERE occurred_at >= $1 AND occurred_at < $2
		  AND currency = $3 AND tax_amount <> 0
		GROUP BY category
		ORDER BY SUM(tax_amount) DESC`
	start, end := periodBounds(from, to)
	rows, err := p.pool.Query(ctx, query, start, end, currency)
	if err != nil {
		return TaxReport{}, fmt.Errorf("failed to query tax summary: %w", err)
	}
	defer rows.Close()

	report := TaxReport{Currency: currency, From: from, To: to, Total: decimal.Zero}
	for rows.Next() {
		var category, amountText string
		if err := rows.Scan(&category, &amountText); err != nil {
			return TaxReport{}, fmt.Errorf("failed to scan tax summary: %w", err)
		}
		amount, err := parseAmount(amountText)
		if err != nil {
			return TaxReport{}, err
		}
		report.Categories = append(report.Categories, CategoryAmount{Category: category, Amount: amount})
		report.Total = report.Total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return TaxReport{}, fmt.Errorf("failed to read tax summary: %w", err)
	}
	return report, nil
}

func (p *Postgres) Breakdown(ctx context.Context, year int, month time.Month, currency string) (BreakdownReport, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var incomeText, expensesText string
	err := p.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0)::text,
		        COALESCE(-SUM(amount) FILTER (WHERE amount < 0), 0)::text
		 FROM transactions
		 WHERE occurred_at >= $1 AND occurred_at < $2 AND currency = $3`,
		start, end, currency).Scan(&incomeText, &expensesText)
	if err != nil {
		return BreakdownReport{}, fmt.Errorf("failed to query month totals: %w", err)
	}
	income, err := parseAmount(incomeText)
	if err != nil {
		return BreakdownReport{}, err
	}
	expenses, err := parseAmount(expensesText)
	if err != nil {
		return BreakdownReport{}, err
	}

	rows, err := p.pool.Query(ctx,
		`SELECT category, (-SUM(amount))::text
		 FROM transactions
		 WHERE occurred_at >= $1 AND occurred_at < $2
		   AND currency = $3 AND amount < 0
		 GROUP BY category
		 ORDER BY SUM(amount) ASC`,
		start, end, currency)
	if err != nil {
		return BreakdownReport{}, fmt.Errorf("failed to query month categories: %w", err)
	}
	defer rows.Close()

	report := BreakdownReport{
		Currency: currency,
		Year:     year,
		Month:    month,
		Income:   income,
		Expenses: expenses,
		Net:      income.Sub(expenses),
	}
	for rows.Next() {
		var category, amountText string
		if err := rows.Scan(&category, &amountText); err != nil {
			return BreakdownReport{}, fmt.Errorf("failed to scan month category: %w", err)
		}
		amount, err := parseAmount(amountText)
		if err != nil {
			return BreakdownReport{}, err
		}
		report.Categories = append(report.Categories, CategoryAmount{Category: category, Amount: amount})
	}
	if err := rows.Err(); err != nil {
		return BreakdownReport{}, fmt.Errorf("failed to read month categories: %w", err)
	}
	return report, nil
}
