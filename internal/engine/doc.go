// Package engine implements the monthly debt projection loop.
//
// The engine turns a starting DebtState, a rate provider, an issuance policy
// and two exogenous monthly series (primary deficit, other interest) into a
// Trace with one row per month.
//
// ARCHITECTURE:
//
// Sequential Monthly Loop:
// Month n+1 opens with month n's closing state, so the loop is strictly
// sequential. Each month:
//  1. look up the rate row and share row
//  2. accrue interest on the opening state (coupon overrides apply here)
//  3. compute redemptions on the opening state
//  4. size the gross financing need: GFN = deficit + interest + other + redemptions
//  5. allocate new issuance as share × GFN per bucket
//  6. verify the row invariants and append it to the trace
//  7. advance the state
//
// States are values. UpdateState returns a new State; nothing is mutated in
// place, so the trace is the sequence of opening snapshots.
//
// ERRORS:
//
// Provider failures surface as debt.ConfigError before the first month is
// simulated. A violated row invariant surfaces as debt.InvariantError naming
// the month and field. In both cases Run returns a nil trace: there are no
// partial results.
//
// The package does no I/O and no logging. Cancellation is checked between
// months via the context passed to Run.
package engine
