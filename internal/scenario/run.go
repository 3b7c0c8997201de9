package scenario

import (
	"context"
	"fmt"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
	"github.com/roach88/debtproj/internal/engine"
	"github.com/roach88/debtproj/internal/issuance"
	"github.com/roach88/debtproj/internal/rates"
)

// Result is the outcome of one scenario.
type Result struct {
	Name string `json:"name"`
	Pass bool   `json:"pass"`

	// Trace is nil when the run failed.
	Trace *engine.Trace `json:"-"`

	// RunErr is the engine error, if the run failed.
	RunErr error `json:"-"`

	Errors []string `json:"errors,omitempty"`
}

func newResult(name string) *Result {
	return &Result{Name: name, Pass: true, Errors: []string{}}
}

// AddError records a failed check.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes s and evaluates its assertions. The returned error is
// reserved for scenarios that cannot be set up at all; engine failures and
// assertion failures are reported in the Result.
func Run(s *Scenario) (*Result, error) {
	res := newResult(s.Name)
	wantCode, wantErr := s.expectedError()

	tr, runErr := s.project(context.Background())
	res.Trace, res.RunErr = tr, runErr

	switch {
	case wantErr && runErr == nil:
		res.AddError("expect_error: run succeeded, want error %s", wantCode)
		return res, nil
	case wantErr:
		if got := debt.CodeOf(runErr); got != wantCode {
			res.AddError("expect_error: got %q (%v), want %s", got, runErr, wantCode)
		}
		return res, nil
	case runErr != nil:
		res.AddError("run failed: %v", runErr)
		return res, nil
	}

	for _, a := range s.Assertions {
		if err := check(s, a, tr); err != nil {
			res.AddError("%s: %v", a.Type, err)
		}
	}
	return res, nil
}

// project builds the providers and engine from s and runs it.
func (s *Scenario) project(ctx context.Context) (*engine.Trace, error) {
	idx, err := calendar.BuildIndex(s.Anchor.Start(), s.HorizonMonths)
	if err != nil {
		return nil, err
	}
	rp, err := s.ratesProvider()
	if err != nil {
		return nil, err
	}
	ip, err := s.issuancePolicy()
	if err != nil {
		return nil, err
	}

	var opts []engine.EngineOption
	if s.Decay != nil {
		opts = append(opts, engine.WithDecay(s.Decay.NB, s.Decay.Tips))
	}
	if len(s.ExistingCoupons) > 0 {
		overrides := make(map[debt.Bucket]float64, len(s.ExistingCoupons))
		for name, r := range s.ExistingCoupons {
			b, err := debt.ParseBucket(name)
			if err != nil {
				return nil, &debt.ConfigError{Code: debt.ErrCodeInvalidParameter, Field: "existing_coupons", Message: err.Error()}
			}
			overrides[b] = r
		}
		opts = append(opts, engine.WithCouponOverrides(overrides))
	}

	eng, err := engine.New(rp, ip, opts...)
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx, engine.Inputs{
		Index:          idx,
		Start:          s.Start,
		PrimaryDeficit: series(idx, s.PrimaryDeficit, s.PrimaryDeficitByMonth),
		OtherInterest:  series(idx, s.OtherInterest, s.OtherInterestByMonth),
	})
}

func (s *Scenario) ratesProvider() (engine.RatesProvider, error) {
	if s.Rates.Constant != nil {
		return rates.NewConstant(*s.Rates.Constant)
	}
	byBucket := make(map[debt.Bucket]map[int]float64, len(s.Rates.FiscalYear))
	for name, m := range s.Rates.FiscalYear {
		b, err := debt.ParseBucket(name)
		if err != nil {
			return nil, &debt.ConfigError{Code: debt.ErrCodeInvalidParameter, Field: "rates.fiscal_year", Message: err.Error()}
		}
		byBucket[b] = m
	}
	return rates.NewFiscalYearVariable(byBucket)
}

func (s *Scenario) issuancePolicy() (engine.IssuancePolicy, error) {
	if s.Shares.Fixed != nil {
		return issuance.NewFixedShares(*s.Shares.Fixed)
	}
	return issuance.NewPiecewiseShares(s.Shares.Segments)
}

// series is base for every month of idx, with byMonth entries replacing it.
// Keys were checked by Validate.
func series(idx []calendar.Month, base float64, byMonth map[string]float64) calendar.Series {
	out := calendar.Constant(idx, base)
	for k, v := range byMonth {
		m, err := calendar.ParseMonth(k)
		if err != nil {
			continue
		}
		out[m] = v
	}
	return out
}
