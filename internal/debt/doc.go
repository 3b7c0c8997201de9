// Package debt holds the value types shared by the projection engine and its
// providers: the three interest-bearing buckets, the per-period DebtState
// snapshot, the per-month rate and share rows, and the error taxonomy.
//
// # Buckets
//
//   - short: bills-like, rolls over fully every month
//   - nb:    notes and bonds, amortizes at a constant monthly decay
//   - tips:  inflation-linked, amortizes at a constant monthly decay
//
// A residual "other" category exists in the budget but is exogenous: it never
// appears as a Bucket and is never mutated by the engine.
//
// # Errors
//
// Configuration errors (ConfigError) are raised before or at the first use of
// an invalid rate, share or coverage gap. Invariant violations
// (InvariantError) indicate a modeling bug and abort the whole run. Both carry
// the offending month and field so that a failed run is diagnosable.
package debt
