// Package issuance implements the issuance-share policies consumed by the
// projection engine. A policy yields one normalized ShareRow per requested
// month; shares are validated when the policy is built, never at lookup.
package issuance

import (
	"fmt"
	"sort"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
)

// FixedShares applies the same shares to every month.
type FixedShares struct {
	shares debt.ShareRow
}

// NewFixedShares validates shares and returns the policy.
func NewFixedShares(shares debt.ShareRow) (*FixedShares, error) {
	if err := shares.Validate(); err != nil {
		return nil, err
	}
	return &FixedShares{shares: shares}, nil
}

// Shares returns the configured shares.
func (f *FixedShares) Shares() debt.ShareRow { return f.shares }

// Get returns one copy of the shares per month of idx.
func (f *FixedShares) Get(idx []calendar.Month) ([]debt.ShareRow, error) {
	if err := debt.CheckIndex(idx); err != nil {
		return nil, err
	}
	out := make([]debt.ShareRow, len(idx))
	for i := range out {
		out[i] = f.shares
	}
	return out, nil
}

// Segment is a share triple effective from Start onwards.
type Segment struct {
	Start  calendar.Month `json:"start" yaml:"start"`
	Shares debt.ShareRow  `json:"shares" yaml:"shares"`
}

// PiecewiseShares switches shares at segment start months. For each month
// the latest segment starting at or before it applies; months before the
// first segment use the first segment.
type PiecewiseShares struct {
	segments []Segment // sorted by Start, unique starts
}

// NewPiecewiseShares validates and sorts segments. When two segments share a
// start month the one later in the list wins.
func NewPiecewiseShares(segments []Segment) (*PiecewiseShares, error) {
	if len(segments) == 0 {
		return nil, &debt.ConfigError{Code: debt.ErrCodeInvalidShare, Field: "segments", Message: "piecewise policy needs at least one segment"}
	}
	for i, s := range segments {
		if s.Start.IsZero() {
			return nil, &debt.ConfigError{Code: debt.ErrCodeInvalidParameter, Field: fmt.Sprintf("segments[%d].start", i), Message: "segment requires a start month"}
		}
		if err := s.Shares.Validate(); err != nil {
			return nil, fmt.Errorf("segments[%d] (start %s): %w", i, s.Start, err)
		}
	}

	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	// Stable sort keeps list order among equal starts; keep the last of each run.
	deduped := sorted[:0]
	for i, s := range sorted {
		if i+1 < len(sorted) && sorted[i+1].Start == s.Start {
			continue
		}
		deduped = append(deduped, s)
	}
	return &PiecewiseShares{segments: deduped}, nil
}

// Segments returns a copy of the normalized segments.
func (p *PiecewiseShares) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// At returns the shares in effect for month m.
func (p *PiecewiseShares) At(m calendar.Month) debt.ShareRow {
	// Index of the first segment starting after m.
	i := sort.Search(len(p.segments), func(i int) bool { return p.segments[i].Start.After(m) })
	if i == 0 {
		return p.segments[0].Shares
	}
	return p.segments[i-1].Shares
}

// Get returns the shares in effect for every month of idx.
func (p *PiecewiseShares) Get(idx []calendar.Month) ([]debt.ShareRow, error) {
	if err := debt.CheckIndex(idx); err != nil {
		return nil, err
	}
	out := make([]debt.ShareRow, len(idx))
	for i, m := range idx {
		out[i] = p.At(m)
	}
	return out, nil
}

// Glide builds a policy that moves linearly from from to to over months
// monthly steps beginning at start, then holds to. The first step is already
// 1/months of the way; months == 0 switches at start. Months before start
// keep from.
func Glide(from, to debt.ShareRow, start calendar.Month, months int) (*PiecewiseShares, error) {
	if months < 0 {
		return nil, &debt.ConfigError{Code: debt.ErrCodeInvalidParameter, Field: "transition.months", Value: float64(months), Message: "transition length must be >= 0"}
	}
	if err := from.Validate(); err != nil {
		return nil, fmt.Errorf("transition from: %w", err)
	}
	if err := to.Validate(); err != nil {
		return nil, fmt.Errorf("transition to: %w", err)
	}

	segments := make([]Segment, 0, months+2)
	segments = append(segments, Segment{Start: start.Add(-1), Shares: from})
	for k := 1; k <= months; k++ {
		row := from.Lerp(to, float64(k)/float64(months))
		if k == months {
			row = to
		}
		segments = append(segments, Segment{Start: start.Add(k - 1), Shares: row})
	}
	if months == 0 {
		segments = append(segments, Segment{Start: start, Shares: to})
	}
	return NewPiecewiseShares(segments)
}
