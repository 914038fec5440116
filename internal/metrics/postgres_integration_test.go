package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/midday-ai/canvas/internal/metrics"
	"github.com/midday-ai/canvas/internal/testutil"
)

// seedLedger inserts a small but complete ledger: six months of payroll and
// software spend, matching paid invoices, and VAT on every sale.
func seedLedger(t *testing.T, db *testutil.TestDB) {
	t.Helper()
	ctx := context.Background()

	for m := 1; m <= 6; m++ {
		day := time.Date(2025, time.Month(m), 5, 0, 0, 0, 0, time.UTC)
		_, err := db.Pool.Exec(ctx,
			`INSERT INTO transactions (occurred_at, amount, tax_amount, currency, category)
			 VALUES ($1, -24000, 0, 'USD', 'payroll'),
			        ($1, -6000, 0, 'USD', 'software'),
			        ($1, 50000, 5000, 'USD', 'sales')`,
			day)
		if err != nil {
			t.Fatalf("seed transactions: %v", err)
		}
		_, err = db.Pool.Exec(ctx,
			`INSERT INTO invoices (customer, amount, currency, status, issued_at, paid_at)
			 VALUES ('acme', 50000, 'USD', 'paid', $1, $2),
			        ('globex', 12000, 'USD', 'sent', $1, NULL)`,
			day, day.AddDate(0, 0, 10))
		if err != nil {
			t.Fatalf("seed invoices: %v", err)
		}
	}
}

func TestPostgresProvider(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	seedLedger(t, db)

	p := metrics.NewPostgres(db.Pool, nil)
	ctx := context.Background()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	t.Run("burn rate", func(t *testing.T) {
		got, err := p.BurnRate(ctx, from, to, "USD")
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Monthly) != 6 {
			t.Fatalf("months = %d, want 6", len(got.Monthly))
		}
		for _, m := range got.Monthly {
			if m.Amount.IntPart() != 30000 {
				t.Errorf("%s burn = %s, want 30000", m.Month, m.Amount)
			}
		}
		if got.Average.IntPart() != 30000 {
			t.Errorf("average = %s, want 30000", got.Average)
		}
	})

	t.Run("revenue counts only paid invoices", func(t *testing.T) {
		got, err := p.RevenueSummary(ctx, from, to, "USD")
		if err != nil {
			t.Fatal(err)
		}
		if got.Total.IntPart() != 300000 {
			t.Errorf("total = %s, want 300000", got.Total)
		}
	})

	t.Run("profit", func(t *testing.T) {
		got, err := p.Profit(ctx, from, to, "USD")
		if err != nil {
			t.Fatal(err)
		}
		// 50000 income - 30000 expenses per month over six months.
		if got.Total.IntPart() != 120000 {
			t.Errorf("total = %s, want 120000", got.Total)
		}
		if got.Revenue.IntPart() != 300000 || got.Expenses.IntPart() != 180000 {
			t.Errorf("revenue/expenses = %s/%s, want 300000/180000", got.Revenue, got.Expenses)
		}
		for _, m := range got.Monthly {
			if m.Amount.IntPart() != 20000 {
				t.Errorf("%s profit = %s, want 20000", m.Month, m.Amount)
			}
		}
	})

	t.Run("spending", func(t *testing.T) {
		got, err := p.Spending(ctx, from, to, "USD")
		if err != nil {
			t.Fatal(err)
		}
		if got.Total.IntPart() != 180000 {
			t.Errorf("total = %s, want 180000", got.Total)
		}
		if len(got.Categories) != 2 || got.Categories[0].Category != "payroll" {
			t.Errorf("categories = %+v, want payroll first then software", got.Categories)
		}
	})

	t.Run("cash flow", func(t *testing.T) {
		got, err := p.CashFlow(ctx, from, to, "USD")
		if err != nil {
			t.Fatal(err)
		}
		if got.Net.IntPart() != 120000 {
			t.Errorf("net = %s, want 120000", got.Net)
		}
	})

	t.Run("tax summary", func(t *testing.T) {
		got, err := p.TaxSummary(ctx, from, to, "USD")
		if err != nil {
			t.Fatal(err)
		}
		if got.Total.IntPart() != 30000 {
			t.Errorf("total tax = %s, want 30000", got.Total)
		}
		if len(got.Categories) != 1 || got.Categories[0].Category != "sales" {
			t.Errorf("categories = %+v, want single sales row", got.Categories)
		}
	})

	t.Run("breakdown", func(t *testing.T) {
		got, err := p.Breakdown(ctx, 2025, time.March, "USD")
		if err != nil {
			t.Fatal(err)
		}
		if got.Income.IntPart() != 50000 || got.Expenses.IntPart() != 30000 {
			t.Errorf("income/expenses = %s/%s, want 50000/30000", got.Income, got.Expenses)
		}
		if len(got.Categories) != 2 {
			t.Errorf("categories = %+v, want payroll and software", got.Categories)
		}
		if len(got.Categories) == 2 && got.Categories[0].Category != "payroll" {
			t.Errorf("largest category = %q, want payroll first", got.Categories[0].Category)
		}
	})

	t.Run("zero-filled months outside data", func(t *testing.T) {
		got, err := p.BurnRate(ctx, from, time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), "USD")
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Monthly) != 8 {
			t.Fatalf("months = %d, want 8", len(got.Monthly))
		}
		if !got.Monthly[6].Amount.IsZero() || !got.Monthly[7].Amount.IsZero() {
			t.Error("empty months were not zero-filled")
		}
	})
}
