// Package rates implements the rate providers consumed by the projection
// engine. Every provider returns exactly one annualized decimal RateRow per
// requested month, or a debt.ConfigError.
//
// Variants:
//   - Constant: the same row for every month
//   - FiscalYearVariable: a step function of fiscal year with carry-forward
//   - MonthlyTable: explicit per-month rows, typically loaded from CSV
package rates
