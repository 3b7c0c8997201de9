package scenario

import (
	"fmt"
	"math"
	"reflect"

	"github.com/roach88/debtproj/internal/debt"
	"github.com/roach88/debtproj/internal/engine"
)

// DefaultTolerance is the absolute tolerance of numeric assertions that do
// not set one.
const DefaultTolerance = 1e-6

func tolerance(a Assertion) float64 {
	if a.Tolerance > 0 {
		return a.Tolerance
	}
	return DefaultTolerance
}

func check(s *Scenario, a Assertion, tr *engine.Trace) error {
	tol := tolerance(a)
	switch a.Type {
	case AssertRowCount:
		if tr.Len() != a.Count {
			return fmt.Errorf("got %d rows, want %d", tr.Len(), a.Count)
		}
	case AssertBudgetIdentity:
		return eachRow(tr, func(r engine.TraceRow) error {
			want := r.InterestTotal + r.OtherInterest + r.PrimaryDeficit + r.RedemptionsTotal
			if math.Abs(r.GFN-want) > tol {
				return fmt.Errorf("gfn %v, want %v", r.GFN, want)
			}
			return nil
		})
	case AssertShareNormalization:
		return eachRow(tr, func(r engine.TraceRow) error {
			if sum := r.Shares().Sum(); math.Abs(sum-1) > tol {
				return fmt.Errorf("shares sum to %v", sum)
			}
			return nil
		})
	case AssertRedemptionBound:
		return eachRow(tr, func(r engine.TraceRow) error {
			if r.RedemptionsShort != r.StockShort {
				return fmt.Errorf("short redemption %v, opening %v", r.RedemptionsShort, r.StockShort)
			}
			if r.RedemptionsNB < 0 || r.RedemptionsNB > r.StockNB {
				return fmt.Errorf("nb redemption %v outside [0, %v]", r.RedemptionsNB, r.StockNB)
			}
			if r.RedemptionsTips < 0 || r.RedemptionsTips > r.StockTips {
				return fmt.Errorf("tips redemption %v outside [0, %v]", r.RedemptionsTips, r.StockTips)
			}
			return nil
		})
	case AssertNonNegative:
		return eachRow(tr, func(r engine.TraceRow) error {
			for i, v := range []float64{r.StockShort, r.StockNB, r.StockTips, r.InterestShort, r.InterestNB, r.InterestTips} {
				if v < 0 {
					return fmt.Errorf("%s is %v", engine.NumericColumns[i], v)
				}
			}
			return nil
		})
	case AssertInterestAdditivity:
		return eachRow(tr, func(r engine.TraceRow) error {
			if sum := r.InterestShort + r.InterestNB + r.InterestTips; math.Abs(r.InterestTotal-sum) > tol {
				return fmt.Errorf("interest_total %v, bucket sum %v", r.InterestTotal, sum)
			}
			return nil
		})
	case AssertDeterministic:
		again, err := Run(withoutDeterminism(s))
		if err != nil {
			return err
		}
		if again.Trace == nil || !reflect.DeepEqual(tr, again.Trace) {
			return fmt.Errorf("second run produced a different trace")
		}
	case AssertSharesAt:
		r, err := rowAt(tr, a)
		if err != nil {
			return err
		}
		if !sharesClose(r.Shares(), *a.Expect, tol) {
			return fmt.Errorf("%s: shares %+v, want %+v", a.Month, r.Shares(), *a.Expect)
		}
	case AssertValueAt:
		r, err := rowAt(tr, a)
		if err != nil {
			return err
		}
		one := &engine.Trace{Rows: []engine.TraceRow{r}}
		col, ok := one.Column(a.Column)
		if !ok {
			return fmt.Errorf("unknown column %q", a.Column)
		}
		if math.Abs(col[0]-*a.Value) > tol {
			return fmt.Errorf("%s %s: got %v, want %v", a.Month, a.Column, col[0], *a.Value)
		}
	}
	return nil
}

func eachRow(tr *engine.Trace, fn func(engine.TraceRow) error) error {
	for _, r := range tr.Rows {
		if err := fn(r); err != nil {
			return fmt.Errorf("%s: %w", r.Month, err)
		}
	}
	return nil
}

func rowAt(tr *engine.Trace, a Assertion) (engine.TraceRow, error) {
	for _, r := range tr.Rows {
		if r.Month == a.Month {
			return r, nil
		}
	}
	return engine.TraceRow{}, fmt.Errorf("month %s not in trace", a.Month)
}

func sharesClose(a, b debt.ShareRow, tol float64) bool {
	return math.Abs(a.Short-b.Short) <= tol && math.Abs(a.NB-b.NB) <= tol && math.Abs(a.Tips-b.Tips) <= tol
}

// withoutDeterminism returns a copy of s without deterministic assertions,
// so the re-run does not recurse.
func withoutDeterminism(s *Scenario) *Scenario {
	c := *s
	c.Assertions = nil
	for _, a := range s.Assertions {
		if a.Type != AssertDeterministic {
			c.Assertions = append(c.Assertions, a)
		}
	}
	return &c
}
