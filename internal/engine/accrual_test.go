package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/debtproj/internal/debt"
)

var testRates = debt.RateRow{Short: 0.03, NB: 0.04, Tips: 0.02}

func TestComputeInterest(t *testing.T) {
	s := debt.State{Short: 1_000_000, NB: 500_000, Tips: 200_000}

	i := ComputeInterest(s, testRates, nil)
	assert.InDelta(t, 2500.0, i.Short, 1e-9)
	assert.InDelta(t, 1666.6666666666667, i.NB, 1e-9)
	assert.InDelta(t, 333.3333333333333, i.Tips, 1e-9)
	assert.Equal(t, i.Short+i.NB+i.Tips, i.Total)
}

func TestComputeInterest_Override(t *testing.T) {
	s := debt.State{Short: 1_000_000, NB: 500_000, Tips: 200_000}

	i := ComputeInterest(s, testRates, map[debt.Bucket]float64{debt.NB: 0.06})
	assert.InDelta(t, 2500.0, i.Short, 1e-9)
	assert.InDelta(t, 2500.0, i.NB, 1e-9)
	assert.InDelta(t, 333.3333333333333, i.Tips, 1e-9)
}

func TestComputeRedemptions(t *testing.T) {
	s := debt.State{Short: 1_000_000, NB: 500_000, Tips: 200_000}

	r := ComputeRedemptions(s, 0.01, 0.02)
	assert.Equal(t, s.Short, r.Short)
	assert.InDelta(t, 5000.0, r.NB, 1e-9)
	assert.InDelta(t, 4000.0, r.Tips, 1e-9)
	assert.Equal(t, r.Short+r.NB+r.Tips, r.Total)

	full := ComputeRedemptions(s, 1, 0)
	assert.Equal(t, s.NB, full.NB)
	assert.Equal(t, 0.0, full.Tips)
}

func TestUpdateState(t *testing.T) {
	s := debt.State{Short: 1_000_000, NB: 500_000, Tips: 200_000}
	issued := Issuance{Short: 300, NB: 600, Tips: 100}

	next := UpdateState(s, issued, 0.01, 0.01)

	// Short rolls over entirely, so only new issuance remains.
	assert.Equal(t, 300.0, next.Short)
	assert.InDelta(t, 495_600.0, next.NB, 1e-9)
	assert.InDelta(t, 198_100.0, next.Tips, 1e-9)
	// Input is untouched.
	assert.Equal(t, 1_000_000.0, s.Short)
}

func TestAllocate(t *testing.T) {
	iss := Allocate(1000, debt.ShareRow{Short: 0.2, NB: 0.7, Tips: 0.1})
	assert.InDelta(t, 200.0, iss.Short, 1e-9)
	assert.InDelta(t, 700.0, iss.NB, 1e-9)
	assert.InDelta(t, 100.0, iss.Tips, 1e-9)
	assert.InDelta(t, 1000.0, iss.Total(), 1e-9)
}
