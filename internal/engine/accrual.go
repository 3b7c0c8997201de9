package engine

import (
	"github.com/roach88/debtproj/internal/debt"
)

// Interest is one month of accrued interest by bucket.
type Interest struct {
	Short float64
	NB    float64
	Tips  float64
	Total float64
}

// ComputeInterest accrues one month of interest on the opening state:
// stock × annual rate / 12 per bucket. An override rate, when present for a
// bucket, replaces the provider rate for that bucket's existing stock.
// Total is the exact sum of the three bucket amounts.
func ComputeInterest(state debt.State, rates debt.RateRow, overrides map[debt.Bucket]float64) Interest {
	rate := func(b debt.Bucket) float64 {
		if r, ok := overrides[b]; ok {
			return r
		}
		return rates.Get(b)
	}
	i := Interest{
		Short: state.Short * (rate(debt.Short) / 12),
		NB:    state.NB * (rate(debt.NB) / 12),
		Tips:  state.Tips * (rate(debt.Tips) / 12),
	}
	i.Total = i.Short + i.NB + i.Tips
	return i
}

// Redemptions is one month of maturing principal by bucket.
type Redemptions struct {
	Short float64
	NB    float64
	Tips  float64
	Total float64
}

// ComputeRedemptions returns the month's redemptions for the opening state.
// Short rolls over in full; nb and tips decay by a constant fraction.
func ComputeRedemptions(state debt.State, decayNB, decayTips float64) Redemptions {
	r := Redemptions{
		Short: state.Short,
		NB:    state.NB * decayNB,
		Tips:  state.Tips * decayTips,
	}
	r.Total = r.Short + r.NB + r.Tips
	return r
}

// Issuance is one month of new issuance by bucket.
type Issuance struct {
	Short float64
	NB    float64
	Tips  float64
}

// Total returns the sum of the three bucket amounts.
func (i Issuance) Total() float64 { return i.Short + i.NB + i.Tips }

// Allocate splits gfn across buckets by shares.
func Allocate(gfn float64, shares debt.ShareRow) Issuance {
	return Issuance{
		Short: shares.Short * gfn,
		NB:    shares.NB * gfn,
		Tips:  shares.Tips * gfn,
	}
}

// UpdateState returns the closing state: opening − redemption + issuance,
// per bucket. The input state is not modified.
func UpdateState(state debt.State, issued Issuance, decayNB, decayTips float64) debt.State {
	r := ComputeRedemptions(state, decayNB, decayTips)
	return debt.State{
		Short: state.Short - r.Short + issued.Short,
		NB:    state.NB - r.NB + issued.NB,
		Tips:  state.Tips - r.Tips + issued.Tips,
	}
}
