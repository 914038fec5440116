// Package metrics computes the financial figures behind the dashboard
// canvases: burn rate, runway, revenue, profit, spending, cash flow, tax
// totals and monthly category breakdowns.
//
// Tools depend only on the Provider interface. The Postgres implementation
// aggregates the transactions and invoices tables; Static produces
// deterministic synthetic figures for tests and simulation mode. All
// monetary values are decimals, never floats.
package metrics
