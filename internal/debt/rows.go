package debt

import (
	"math"
)

// ShareTolerance is the allowed deviation of a share row's sum from 1.
// It matches the reference behavior; tests that construct exact shares may
// assert tighter bounds.
const ShareTolerance = 1e-6

// Rate bounds, as annualized decimals. Values above 1 (100%) almost always
// mean a percent was supplied where a decimal was expected.
const (
	MinRate = 0.0
	MaxRate = 1.0
)

// RateRow holds annualized decimal rates for one month.
type RateRow struct {
	Short float64 `json:"short" yaml:"short"`
	NB    float64 `json:"nb" yaml:"nb"`
	Tips  float64 `json:"tips" yaml:"tips"`
}

// Get returns the rate of bucket b.
func (r RateRow) Get(b Bucket) float64 {
	switch b {
	case Short:
		return r.Short
	case NB:
		return r.NB
	case Tips:
		return r.Tips
	}
	return math.NaN()
}

// Set returns a copy of r with bucket b set to v.
func (r RateRow) Set(b Bucket, v float64) RateRow {
	switch b {
	case Short:
		r.Short = v
	case NB:
		r.NB = v
	case Tips:
		r.Tips = v
	}
	return r
}

// Validate checks that every rate is finite and within [MinRate, MaxRate].
func (r RateRow) Validate() error {
	for _, b := range Buckets {
		if err := ValidateRate(string(b), r.Get(b)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRate checks a single annualized decimal rate.
func ValidateRate(field string, v float64) error {
	if !isFinite(v) {
		return &ConfigError{Code: ErrCodeInvalidRate, Field: "rate." + field, Value: v, Message: "rate not finite"}
	}
	if v < MinRate || v > MaxRate {
		return &ConfigError{Code: ErrCodeInvalidRate, Field: "rate." + field, Value: v,
			Message: "rate out of bounds [0,1] (annualized decimal expected)"}
	}
	return nil
}

// ShareRow holds issuance shares for one month.
type ShareRow struct {
	Short float64 `json:"short" yaml:"short"`
	NB    float64 `json:"nb" yaml:"nb"`
	Tips  float64 `json:"tips" yaml:"tips"`
}

// Get returns the share of bucket b.
func (s ShareRow) Get(b Bucket) float64 {
	switch b {
	case Short:
		return s.Short
	case NB:
		return s.NB
	case Tips:
		return s.Tips
	}
	return math.NaN()
}

// Sum returns the sum of the three shares.
func (s ShareRow) Sum() float64 { return s.Short + s.NB + s.Tips }

// Validate checks bounds and normalization. The error names the offending
// share and its value.
func (s ShareRow) Validate() error {
	for _, b := range Buckets {
		v := s.Get(b)
		if !isFinite(v) || v < 0 || v > 1 {
			return &ConfigError{Code: ErrCodeInvalidShare, Field: "shares." + string(b), Value: v,
				Message: "share out of bounds [0,1] or non-finite"}
		}
	}
	if total := s.Sum(); math.Abs(total-1) > ShareTolerance {
		return &ConfigError{Code: ErrCodeSharesSum, Field: "shares", Value: total,
			Message: "shares must sum to 1.0 (±1e-6)"}
	}
	return nil
}

// Lerp returns the share row a fraction t of the way from s to to.
// Convex combinations of normalized rows remain normalized.
func (s ShareRow) Lerp(to ShareRow, t float64) ShareRow {
	return ShareRow{
		Short: s.Short + (to.Short-s.Short)*t,
		NB:    s.NB + (to.NB-s.NB)*t,
		Tips:  s.Tips + (to.Tips-s.Tips)*t,
	}
}
