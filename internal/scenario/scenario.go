package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
	"github.com/roach88/debtproj/internal/issuance"
)

// Scenario is one conformance case.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Anchor        calendar.Month `yaml:"anchor"`
	HorizonMonths int            `yaml:"horizon_months"`
	Start         debt.State     `yaml:"start"`

	Rates  RatesSpec  `yaml:"rates"`
	Shares SharesSpec `yaml:"shares"`

	// PrimaryDeficit applies to every month; PrimaryDeficitByMonth
	// replaces it for the months it names ("YYYY-MM-DD" or "YYYY-MM").
	PrimaryDeficit        float64            `yaml:"primary_deficit,omitempty"`
	PrimaryDeficitByMonth map[string]float64 `yaml:"primary_deficit_by_month,omitempty"`
	OtherInterest         float64            `yaml:"other_interest,omitempty"`
	OtherInterestByMonth  map[string]float64 `yaml:"other_interest_by_month,omitempty"`

	Decay           *Decay             `yaml:"decay,omitempty"`
	ExistingCoupons map[string]float64 `yaml:"existing_coupons,omitempty"`

	Assertions []Assertion `yaml:"assertions"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// RatesSpec selects a constant or fiscal-year rate provider. Fiscal-year
// rates are annualized decimals keyed by bucket then fiscal year.
type RatesSpec struct {
	Constant   *debt.RateRow              `yaml:"constant,omitempty"`
	FiscalYear map[string]map[int]float64 `yaml:"fiscal_year,omitempty"`
}

// SharesSpec selects fixed or piecewise shares.
type SharesSpec struct {
	Fixed    *debt.ShareRow     `yaml:"fixed,omitempty"`
	Segments []issuance.Segment `yaml:"segments,omitempty"`
}

// Decay sets the nb and tips monthly decay fractions.
type Decay struct {
	NB   float64 `yaml:"nb"`
	Tips float64 `yaml:"tips"`
}

// Assertion is one check on the run outcome.
type Assertion struct {
	Type string `yaml:"type"`

	Count     int            `yaml:"count,omitempty"`     // row_count
	Month     calendar.Month `yaml:"month,omitempty"`     // shares_at, value_at
	Expect    *debt.ShareRow `yaml:"expect,omitempty"`    // shares_at
	Column    string         `yaml:"column,omitempty"`    // value_at
	Value     *float64       `yaml:"value,omitempty"`     // value_at
	Tolerance float64        `yaml:"tolerance,omitempty"` // numeric checks
	Code      string         `yaml:"code,omitempty"`      // expect_error
}

// Assertion types.
const (
	AssertRowCount           = "row_count"
	AssertBudgetIdentity     = "budget_identity"
	AssertShareNormalization = "share_normalization"
	AssertRedemptionBound    = "redemption_bound"
	AssertNonNegative        = "non_negative"
	AssertInterestAdditivity = "interest_additivity"
	AssertDeterministic      = "deterministic"
	AssertSharesAt           = "shares_at"
	AssertValueAt            = "value_at"
	AssertExpectError        = "expect_error"
)

// Load reads and validates a scenario file. Unknown fields are rejected.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	s.Path = path

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// Find returns the scenario files (.yaml, .yml) under dir in lexical
// order. A non-empty filter is a glob matched against the file name
// without extension.
func Find(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(filepath.Base(path), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	sort.Strings(files)
	return files, err
}

// Validate checks required fields and assertion parameters.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Anchor.IsZero() {
		return fmt.Errorf("anchor is required")
	}
	if s.HorizonMonths <= 0 {
		return fmt.Errorf("horizon_months must be positive")
	}
	if (s.Rates.Constant == nil) == (len(s.Rates.FiscalYear) == 0) {
		return fmt.Errorf("rates: exactly one of constant or fiscal_year is required")
	}
	if (s.Shares.Fixed == nil) == (len(s.Shares.Segments) == 0) {
		return fmt.Errorf("shares: exactly one of fixed or segments is required")
	}
	for _, byMonth := range []map[string]float64{s.PrimaryDeficitByMonth, s.OtherInterestByMonth} {
		for k := range byMonth {
			if _, err := calendar.ParseMonth(k); err != nil {
				return fmt.Errorf("month key %q: %w", k, err)
			}
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(i int, a Assertion) error {
	switch a.Type {
	case AssertRowCount:
		if a.Count <= 0 {
			return fmt.Errorf("assertions[%d]: count must be positive for row_count", i)
		}
	case AssertBudgetIdentity, AssertShareNormalization, AssertRedemptionBound,
		AssertNonNegative, AssertInterestAdditivity, AssertDeterministic:
	case AssertSharesAt:
		if a.Month.IsZero() || a.Expect == nil {
			return fmt.Errorf("assertions[%d]: month and expect are required for shares_at", i)
		}
	case AssertValueAt:
		if a.Month.IsZero() || a.Column == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: month, column and value are required for value_at", i)
		}
	case AssertExpectError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for expect_error", i)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", i)
	}
	return nil
}

func (s *Scenario) expectedError() (debt.ErrorCode, bool) {
	for _, a := range s.Assertions {
		if a.Type == AssertExpectError {
			return debt.ErrorCode(a.Code), true
		}
	}
	return "", false
}
