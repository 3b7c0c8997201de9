package issuance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
)

var (
	sharesA = debt.ShareRow{Short: 0.2, NB: 0.7, Tips: 0.1}
	sharesB = debt.ShareRow{Short: 0.3, NB: 0.6, Tips: 0.1}
)

func months(start string, n int) []calendar.Month {
	m := calendar.MustParseMonth(start)
	idx := make([]calendar.Month, n)
	for i := range idx {
		idx[i] = m.Add(i)
	}
	return idx
}

func TestFixedShares(t *testing.T) {
	p, err := NewFixedShares(sharesA)
	require.NoError(t, err)

	rows, err := p.Get(months("2025-07", 5))
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for _, r := range rows {
		assert.Equal(t, sharesA, r)
		assert.InDelta(t, 1.0, r.Sum(), debt.ShareTolerance)
	}
}

func TestFixedShares_Invalid(t *testing.T) {
	_, err := NewFixedShares(debt.ShareRow{Short: 0.5, NB: 0.6, Tips: -0.1})
	require.Error(t, err)
	assert.Equal(t, debt.ErrCodeInvalidShare, debt.CodeOf(err))
	assert.Contains(t, err.Error(), "shares.tips")

	_, err = NewFixedShares(debt.ShareRow{Short: 0.5, NB: 0.6, Tips: 0.1})
	assert.Equal(t, debt.ErrCodeSharesSum, debt.CodeOf(err))
}

func TestPiecewiseShares_Switch(t *testing.T) {
	idx := months("2025-07", 4)
	p, err := NewPiecewiseShares([]Segment{
		{Start: idx[0], Shares: sharesA},
		{Start: idx[2], Shares: sharesB},
	})
	require.NoError(t, err)

	rows, err := p.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, []debt.ShareRow{sharesA, sharesA, sharesB, sharesB}, rows)
}

func TestPiecewiseShares_UnsortedAndBeforeFirst(t *testing.T) {
	idx := months("2025-01", 6)
	p, err := NewPiecewiseShares([]Segment{
		{Start: idx[4], Shares: sharesB},
		{Start: idx[2], Shares: sharesA},
	})
	require.NoError(t, err)

	rows, err := p.Get(idx)
	require.NoError(t, err)
	// Months before the first segment take the first segment's shares.
	assert.Equal(t, []debt.ShareRow{sharesA, sharesA, sharesA, sharesA, sharesB, sharesB}, rows)
	assert.Equal(t, idx[2], p.Segments()[0].Start)
}

func TestPiecewiseShares_DuplicateStartKeepsLatest(t *testing.T) {
	idx := months("2025-07", 2)
	p, err := NewPiecewiseShares([]Segment{
		{Start: idx[0], Shares: sharesA},
		{Start: idx[0], Shares: sharesB},
	})
	require.NoError(t, err)

	assert.Len(t, p.Segments(), 1)
	assert.Equal(t, sharesB, p.At(idx[1]))
}

func TestPiecewiseShares_Invalid(t *testing.T) {
	_, err := NewPiecewiseShares(nil)
	assert.True(t, debt.IsConfigError(err))

	_, err = NewPiecewiseShares([]Segment{{Shares: sharesA}})
	assert.Equal(t, debt.ErrCodeInvalidParameter, debt.CodeOf(err))

	tests := []struct {
		name     string
		shares   debt.ShareRow
		wantCode debt.ErrorCode
	}{
		{"shares in bounds but sum above one", debt.ShareRow{Short: 0.9, NB: 0.9}, debt.ErrCodeSharesSum},
		{"share above one", debt.ShareRow{Short: 1.2}, debt.ErrCodeInvalidShare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPiecewiseShares([]Segment{
				{Start: calendar.MustParseMonth("2025-07"), Shares: sharesA},
				{Start: calendar.MustParseMonth("2026-01"), Shares: tt.shares},
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "segments[1]")
			assert.Equal(t, tt.wantCode, debt.CodeOf(err))
		})
	}
}

func TestGlide(t *testing.T) {
	idx := months("2025-07", 8)
	p, err := Glide(sharesA, sharesB, idx[2], 4)
	require.NoError(t, err)

	rows, err := p.Get(idx)
	require.NoError(t, err)

	assert.Equal(t, sharesA, rows[0])
	assert.Equal(t, sharesA, rows[1])
	assert.InDelta(t, 0.225, rows[2].Short, 1e-12)
	assert.InDelta(t, 0.25, rows[3].Short, 1e-12)
	assert.InDelta(t, 0.275, rows[4].Short, 1e-12)
	assert.Equal(t, sharesB, rows[5])
	assert.Equal(t, sharesB, rows[7])
	for _, r := range rows {
		assert.NoError(t, r.Validate())
	}
}

func TestGlide_ZeroMonthsSwitchesImmediately(t *testing.T) {
	idx := months("2025-07", 3)
	p, err := Glide(sharesA, sharesB, idx[1], 0)
	require.NoError(t, err)

	rows, err := p.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, []debt.ShareRow{sharesA, sharesB, sharesB}, rows)

	_, err = Glide(sharesA, sharesB, idx[0], -1)
	assert.Equal(t, debt.ErrCodeInvalidParameter, debt.CodeOf(err))
}
