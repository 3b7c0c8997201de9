package engine

import (
	"math"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
)

// identityTolerance is the relative tolerance for the budget identity and
// the issuance/GFN reconciliation.
const identityTolerance = 1e-9

func withinTolerance(got, want float64) bool {
	return math.Abs(got-want) <= identityTolerance*math.Max(1, math.Abs(want))
}

func violation(code debt.ErrorCode, m calendar.Month, field string, v float64, msg string) error {
	return &debt.InvariantError{Code: code, Month: m, Field: field, Value: v, Message: msg}
}

// checkRow verifies a completed row before it is appended to the trace.
func checkRow(r TraceRow, issued Issuance) error {
	for i, v := range r.Values() {
		if !debt.IsFinite(v) {
			return violation(debt.ErrCodeNonFinite, r.Month, NumericColumns[i], v, "non-finite value in trace row")
		}
	}

	opening := r.Opening()
	for _, b := range debt.Buckets {
		if v := opening.Get(b); v < 0 {
			return violation(debt.ErrCodeNegativeStock, r.Month, "stock_"+string(b), v, "opening stock is negative")
		}
	}

	for _, f := range []struct {
		name string
		v    float64
	}{
		{"interest_short", r.InterestShort},
		{"interest_nb", r.InterestNB},
		{"interest_tips", r.InterestTips},
	} {
		if f.v < 0 {
			return violation(debt.ErrCodeNegativeInterest, r.Month, f.name, f.v, "interest is negative")
		}
	}
	if sum := r.InterestShort + r.InterestNB + r.InterestTips; sum != r.InterestTotal {
		return violation(debt.ErrCodeBudgetIdentity, r.Month, "interest_total", r.InterestTotal, "interest total is not the sum of bucket interest")
	}

	if r.RedemptionsShort != r.StockShort {
		return violation(debt.ErrCodeRedemptionBound, r.Month, "redemptions_short", r.RedemptionsShort, "short redemption must equal opening short stock")
	}
	if r.RedemptionsNB < 0 || r.RedemptionsNB > r.StockNB {
		return violation(debt.ErrCodeRedemptionBound, r.Month, "redemptions_nb", r.RedemptionsNB, "redemption outside [0, opening stock]")
	}
	if r.RedemptionsTips < 0 || r.RedemptionsTips > r.StockTips {
		return violation(debt.ErrCodeRedemptionBound, r.Month, "redemptions_tips", r.RedemptionsTips, "redemption outside [0, opening stock]")
	}

	want := r.PrimaryDeficit + r.InterestTotal + r.OtherInterest + r.RedemptionsTotal
	if !withinTolerance(r.GFN, want) {
		return violation(debt.ErrCodeBudgetIdentity, r.Month, "gfn", r.GFN, "gfn does not equal deficit + interest + other interest + redemptions")
	}
	if total := issued.Total(); !withinTolerance(total, r.GFN) {
		return violation(debt.ErrCodeIssuanceMismatch, r.Month, "gfn", total, "new issuance does not sum to gfn")
	}
	return nil
}

// checkClosing verifies the state produced at the end of month m.
func checkClosing(m calendar.Month, s debt.State) error {
	for _, b := range debt.Buckets {
		v := s.Get(b)
		if !debt.IsFinite(v) {
			return violation(debt.ErrCodeNonFinite, m, "closing_stock_"+string(b), v, "closing stock is non-finite")
		}
		if v < 0 {
			return violation(debt.ErrCodeNegativeStock, m, "closing_stock_"+string(b), v, "closing stock is negative")
		}
	}
	return nil
}
