package engine

import (
	"context"
	"fmt"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
)

// RatesProvider supplies one annualized decimal rate row per requested month.
// Implemented by rates.Constant, rates.FiscalYearVariable and rates.MonthlyTable.
type RatesProvider interface {
	Get(idx []calendar.Month) ([]debt.RateRow, error)
}

// IssuancePolicy supplies one normalized share row per requested month.
// Implemented by issuance.FixedShares and issuance.PiecewiseShares.
type IssuancePolicy interface {
	Get(idx []calendar.Month) ([]debt.ShareRow, error)
}

// DefaultDecay is the monthly redemption fraction for nb and tips when
// WithDecay is not given.
const DefaultDecay = 0.01

// Engine runs projections for one pair of providers. It holds no per-run
// state, so one Engine may serve many Run calls, including concurrent ones,
// provided the providers are safe for concurrent reads (all in this module are).
type Engine struct {
	rates     RatesProvider
	issuance  IssuancePolicy
	decayNB   float64
	decayTips float64
	overrides map[debt.Bucket]float64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDecay sets the monthly redemption fractions for nb and tips.
//
// Default: DefaultDecay for both.
func WithDecay(nb, tips float64) EngineOption {
	return func(e *Engine) {
		e.decayNB = nb
		e.decayTips = tips
	}
}

// WithCouponOverrides sets per-bucket annualized rates earned by the existing
// stock, in place of the provider's marginal rate. Buckets absent from the
// map use the provider rate.
func WithCouponOverrides(overrides map[debt.Bucket]float64) EngineOption {
	return func(e *Engine) {
		e.overrides = make(map[debt.Bucket]float64, len(overrides))
		for b, r := range overrides {
			e.overrides[b] = r
		}
	}
}

// New creates an Engine and validates its parameters.
func New(rates RatesProvider, issuance IssuancePolicy, opts ...EngineOption) (*Engine, error) {
	if rates == nil {
		return nil, &debt.ConfigError{Code: debt.ErrCodeInvalidParameter, Field: "rates", Message: "rates provider is required"}
	}
	if issuance == nil {
		return nil, &debt.ConfigError{Code: debt.ErrCodeInvalidParameter, Field: "issuance", Message: "issuance policy is required"}
	}

	e := &Engine{
		rates:     rates,
		issuance:  issuance,
		decayNB:   DefaultDecay,
		decayTips: DefaultDecay,
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, d := range []struct {
		field string
		v     float64
	}{{"decay_nb", e.decayNB}, {"decay_tips", e.decayTips}} {
		if !debt.IsFinite(d.v) || d.v < 0 || d.v > 1 {
			return nil, &debt.ConfigError{Code: debt.ErrCodeInvalidParameter, Field: d.field, Value: d.v, Message: "decay must be in [0,1]"}
		}
	}

	known := 0
	for _, b := range debt.Buckets {
		r, ok := e.overrides[b]
		if !ok {
			continue
		}
		known++
		if err := debt.ValidateRate("existing_coupons."+string(b), r); err != nil {
			return nil, err
		}
	}
	if known != len(e.overrides) {
		return nil, &debt.ConfigError{Code: debt.ErrCodeInvalidParameter, Field: "existing_coupons",
			Message: "coupon overrides may only name short, nb or tips"}
	}
	return e, nil
}

// Decay returns the configured nb and tips decay fractions.
func (e *Engine) Decay() (nb, tips float64) { return e.decayNB, e.decayTips }

// Inputs are the per-run inputs of a projection.
type Inputs struct {
	// Index is the month sequence to simulate. It must be non-empty and
	// strictly increasing.
	Index []calendar.Month

	// Start is the opening state of the first month.
	Start debt.State

	// PrimaryDeficit is the monthly primary deficit. Months absent from the
	// series are zero.
	PrimaryDeficit calendar.Series

	// OtherInterest is the exogenous monthly interest add-on. Nil means zero.
	OtherInterest calendar.Series
}

// Run simulates every month of in.Index and returns the complete trace.
// Any configuration error or invariant violation aborts the run with a nil
// trace. ctx is checked between months.
func (e *Engine) Run(ctx context.Context, in Inputs) (*Trace, error) {
	if err := debt.CheckIndex(in.Index); err != nil {
		return nil, err
	}
	if err := in.Start.Validate(); err != nil {
		return nil, err
	}

	rateRows, err := e.rates.Get(in.Index)
	if err != nil {
		return nil, fmt.Errorf("rates: %w", err)
	}
	shareRows, err := e.issuance.Get(in.Index)
	if err != nil {
		return nil, fmt.Errorf("issuance: %w", err)
	}
	if len(rateRows) != len(in.Index) {
		return nil, &debt.ConfigError{Code: debt.ErrCodeMissingCoverage, Field: "rates",
			Message: fmt.Sprintf("provider returned %d rows for %d months", len(rateRows), len(in.Index))}
	}
	if len(shareRows) != len(in.Index) {
		return nil, &debt.ConfigError{Code: debt.ErrCodeMissingCoverage, Field: "shares",
			Message: fmt.Sprintf("policy returned %d rows for %d months", len(shareRows), len(in.Index))}
	}

	deficits := in.PrimaryDeficit.Reindex(in.Index)
	other := in.OtherInterest.Reindex(in.Index)

	trace := &Trace{Rows: make([]TraceRow, 0, len(in.Index))}
	state := in.Start
	for i, m := range in.Index {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("projection interrupted before %s: %w", m, err)
		}

		// Provider rows are re-checked here so that a misbehaving provider
		// fails at the first unresolved month.
		if err := rateRows[i].Validate(); err != nil {
			return nil, withMonth(err, m)
		}
		if err := shareRows[i].Validate(); err != nil {
			return nil, withMonth(err, m)
		}

		row, next := e.step(m, state, rateRows[i], shareRows[i], deficits[i], other[i])
		if err := checkRow(row, row.Issuance()); err != nil {
			return nil, err
		}
		if err := checkClosing(m, next); err != nil {
			return nil, err
		}
		trace.Rows = append(trace.Rows, row)
		state = next
	}
	trace.Closing = state
	return trace, nil
}

// step runs one month and returns its trace row and the closing state.
func (e *Engine) step(m calendar.Month, opening debt.State, rates debt.RateRow, shares debt.ShareRow, deficit, other float64) (TraceRow, debt.State) {
	interest := ComputeInterest(opening, rates, e.overrides)
	red := ComputeRedemptions(opening, e.decayNB, e.decayTips)

	gfn := deficit + interest.Total + other + red.Total
	issued := Allocate(gfn, shares)

	row := TraceRow{
		Month:            m,
		StockShort:       opening.Short,
		StockNB:          opening.NB,
		StockTips:        opening.Tips,
		InterestShort:    interest.Short,
		InterestNB:       interest.NB,
		InterestTips:     interest.Tips,
		InterestTotal:    interest.Total,
		OtherInterest:    other,
		SharesShort:      shares.Short,
		SharesNB:         shares.NB,
		SharesTips:       shares.Tips,
		GFN:              gfn,
		RedemptionsShort: red.Short,
		RedemptionsNB:    red.NB,
		RedemptionsTips:  red.Tips,
		RedemptionsTotal: red.Total,
		PrimaryDeficit:   deficit,
	}
	return row, UpdateState(opening, issued, e.decayNB, e.decayTips)
}

// withMonth attaches m to a ConfigError that does not name a month yet.
func withMonth(err error, m calendar.Month) error {
	if ce, ok := err.(*debt.ConfigError); ok && ce.Month.IsZero() {
		c := *ce
		c.Month = m
		return &c
	}
	return err
}
