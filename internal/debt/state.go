package debt

import (
	"fmt"
	"math"
	"strings"
)

// Bucket names one of the interest-bearing debt categories.
type Bucket string

const (
	Short Bucket = "short"
	NB    Bucket = "nb"
	Tips  Bucket = "tips"
)

// Buckets lists the buckets in column order.
var Buckets = []Bucket{Short, NB, Tips}

// ParseBucket normalizes a bucket name ("SHORT", "nb", ...).
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(strings.ToLower(strings.TrimSpace(s))) {
	case Short:
		return Short, nil
	case NB:
		return NB, nil
	case Tips:
		return Tips, nil
	}
	return "", fmt.Errorf("unknown bucket %q: must be one of short, nb, tips", s)
}

// State is the outstanding principal by bucket at a period boundary.
// It is a value type: transitions return a new State rather than mutating one.
type State struct {
	Short float64 `json:"short" yaml:"short"`
	NB    float64 `json:"nb" yaml:"nb"`
	Tips  float64 `json:"tips" yaml:"tips"`
}

// Total returns the sum of the three buckets.
func (s State) Total() float64 { return s.Short + s.NB + s.Tips }

// Get returns the stock of bucket b.
func (s State) Get(b Bucket) float64 {
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

// Validate checks that every bucket is finite and non-negative.
func (s State) Validate() error {
	for _, b := range Buckets {
		v := s.Get(b)
		if !isFinite(v) {
			return &ConfigError{Code: ErrCodeInvalidParameter, Field: "stock_" + string(b), Value: v,
				Message: "starting stock must be finite"}
		}
		if v < 0 {
			return &ConfigError{Code: ErrCodeInvalidParameter, Field: "stock_" + string(b), Value: v,
				Message: "starting stock must be non-negative"}
		}
	}
	return nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool { return isFinite(v) }
