// Package scenario runs projection conformance scenarios.
//
// A scenario is a YAML file describing one small projection (anchor,
// horizon, opening stocks, rates, shares, deficits) and the assertions its
// trace must satisfy. Scenarios run the real engine; nothing is stubbed.
//
// # Scenario Format
//
//	name: budget_identity
//	description: "gfn equals interest + deficit + redemptions"
//	anchor: "2025-07-01"
//	horizon_months: 2
//	start: {short: 1000000, nb: 500000, tips: 200000}
//	rates:
//	  constant: {short: 0.03, nb: 0.04, tips: 0.02}
//	shares:
//	  fixed: {short: 0.3, nb: 0.6, tips: 0.1}
//	primary_deficit: 123.0
//	decay: {nb: 0.01, tips: 0.01}
//	assertions:
//	  - type: budget_identity
//	    tolerance: 1e-6
//
// # Assertion Types
//
//   - row_count: the trace has exactly count rows
//   - budget_identity: gfn = interest_total + other_interest + primary_deficit + redemptions_total
//   - share_normalization: every share row sums to 1
//   - redemption_bound: short redeems in full, nb/tips within [0, opening]
//   - non_negative: opening stocks and interest are >= 0
//   - interest_additivity: interest_total is the sum of the bucket amounts
//   - deterministic: a second run yields an identical trace
//   - shares_at: the shares applied at month equal expect
//   - value_at: column at month equals value within tolerance
//   - expect_error: the run fails with error code
//
// # Golden Files
//
// The trace of a passing scenario renders to fixed-precision text and is
// compared with golden/<name>.golden next to the scenario file.
package scenario
