// Package config loads and validates the projection configuration file.
//
// Loading runs in four stages:
//  1. strict YAML decoding (unknown keys are errors)
//  2. structural validation against the embedded CUE schema
//  3. semantic validation (shares, rates, required combinations)
//  4. environment overrides (DEBTPROJ_HORIZON_MONTHS, DEBTPROJ_DB,
//     DEBTPROJ_OUTPUT_DIR)
//
// Annual maps keyed by year (GDP growth, budget shares, inflation, variable
// rates) are in percent. Constant rates, coupon overrides, shares and decay
// fractions are decimals.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/debtproj/internal/calendar"
)

// Environment variables applied after the file is loaded.
const (
	EnvHorizonMonths = "DEBTPROJ_HORIZON_MONTHS"
	EnvDB            = "DEBTPROJ_DB"
	EnvOutputDir     = "DEBTPROJ_OUTPUT_DIR"
)

// DefaultOutputDir is the run directory base when output.dir is unset.
const DefaultOutputDir = "output"

// Config is the decoded configuration file.
type Config struct {
	AnchorDate    calendar.Month `yaml:"anchor_date" json:"anchor_date"`
	HorizonMonths int            `yaml:"horizon_months" json:"horizon_months"`

	StartState    StartState    `yaml:"start_state" json:"start_state"`
	GDP           GDP           `yaml:"gdp" json:"gdp"`
	Budget        Budget        `yaml:"budget" json:"budget"`
	Inflation     Inflation     `yaml:"inflation,omitempty" json:"inflation,omitempty"`
	OtherInterest OtherInterest `yaml:"other_interest,omitempty" json:"other_interest"`
	Rates         Rates         `yaml:"rates" json:"rates"`

	// ExistingCoupons overrides the rate earned by the pre-existing stock of
	// a bucket (annualized decimals).
	ExistingCoupons map[string]float64 `yaml:"existing_coupons,omitempty" json:"existing_coupons,omitempty"`

	Issuance    Issuance    `yaml:"issuance" json:"issuance"`
	Redemptions Redemptions `yaml:"redemptions,omitempty" json:"redemptions"`
	Output      Output      `yaml:"output,omitempty" json:"output"`

	// baseDir resolves relative paths; it is the directory of the loaded file.
	baseDir string
}

// StartState is the opening stock, inline or from the latest row of a CSV.
type StartState struct {
	Short     *float64 `yaml:"short,omitempty" json:"short,omitempty"`
	NB        *float64 `yaml:"nb,omitempty" json:"nb,omitempty"`
	Tips      *float64 `yaml:"tips,omitempty" json:"tips,omitempty"`
	StocksCSV string   `yaml:"stocks_csv,omitempty" json:"stocks_csv,omitempty"`
}

// GDP anchors the GDP model.
type GDP struct {
	AnchorFY           int             `yaml:"anchor_fy" json:"anchor_fy"`
	AnchorValue        float64         `yaml:"anchor_value_usd_millions" json:"anchor_value_usd_millions"`
	AnnualFYGrowthRate map[int]float64 `yaml:"annual_fy_growth_rate,omitempty" json:"annual_fy_growth_rate,omitempty"`
}

// Budget holds revenue and primary outlays as percent of GDP.
type Budget struct {
	Frame             string             `yaml:"frame" json:"frame"`
	AnnualRevenuePct  map[int]float64    `yaml:"annual_revenue_pct_gdp" json:"annual_revenue_pct_gdp"`
	AnnualOutlaysPct  map[int]float64    `yaml:"annual_outlays_pct_gdp" json:"annual_outlays_pct_gdp"`
	AdditionalRevenue *AdditionalRevenue `yaml:"additional_revenue,omitempty" json:"additional_revenue,omitempty"`
}

// AdditionalRevenue configures revenue on top of the baseline shares.
type AdditionalRevenue struct {
	Enabled                bool            `yaml:"enabled" json:"enabled"`
	Mode                   string          `yaml:"mode,omitempty" json:"mode,omitempty"`
	AnnualPctGDP           map[int]float64 `yaml:"annual_pct_gdp,omitempty" json:"annual_pct_gdp,omitempty"`
	AnnualLevelUSDMillions map[int]float64 `yaml:"annual_level_usd_millions,omitempty" json:"annual_level_usd_millions,omitempty"`
	AnchorYear             *int            `yaml:"anchor_year,omitempty" json:"anchor_year,omitempty"`
	AnchorAmount           *float64        `yaml:"anchor_amount,omitempty" json:"anchor_amount,omitempty"`
	Index                  string          `yaml:"index,omitempty" json:"index,omitempty"`
}

// Inflation holds annual inflation in percent by year.
type Inflation struct {
	PCE map[int]float64 `yaml:"pce,omitempty" json:"pce,omitempty"`
	CPI map[int]float64 `yaml:"cpi,omitempty" json:"cpi,omitempty"`
}

// OtherInterest configures the exogenous interest add-on. It is enabled
// unless explicitly disabled.
type OtherInterest struct {
	Enabled      *bool           `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Frame        string          `yaml:"frame,omitempty" json:"frame,omitempty"`
	AnnualPctGDP map[int]float64 `yaml:"annual_pct_gdp,omitempty" json:"annual_pct_gdp,omitempty"`
	AnnualUSDMn  map[int]float64 `yaml:"annual_usd_mn,omitempty" json:"annual_usd_mn,omitempty"`
}

// IsEnabled reports whether the other-interest add-on is active.
func (o OtherInterest) IsEnabled() bool { return o.Enabled == nil || *o.Enabled }

// Rate provider types.
const (
	RatesConstant   = "constant"
	RatesFiscalYear = "fiscal_year"
	RatesMonthlyCSV = "monthly_csv"
)

// Rates selects and parameterizes the rate provider.
type Rates struct {
	Type       string                     `yaml:"type" json:"type"`
	Values     *BucketValues              `yaml:"values,omitempty" json:"values,omitempty"`
	FiscalYear map[string]map[int]float64 `yaml:"fiscal_year,omitempty" json:"fiscal_year,omitempty"`
	MonthlyCSV string                     `yaml:"monthly_csv,omitempty" json:"monthly_csv,omitempty"`
}

// BucketValues is a short/nb/tips triple.
type BucketValues struct {
	Short float64 `yaml:"short" json:"short"`
	NB    float64 `yaml:"nb" json:"nb"`
	Tips  float64 `yaml:"tips" json:"tips"`
}

// Issuance configures the issuance share policy.
type Issuance struct {
	DefaultShares *BucketValues `yaml:"default_shares,omitempty" json:"default_shares,omitempty"`
	Segments      []Segment     `yaml:"segments,omitempty" json:"segments,omitempty"`
	Transition    *Transition   `yaml:"transition,omitempty" json:"transition,omitempty"`
}

// Segment is a piecewise share segment.
type Segment struct {
	Start calendar.Month `yaml:"start" json:"start"`
	Short float64        `yaml:"short" json:"short"`
	NB    float64        `yaml:"nb" json:"nb"`
	Tips  float64        `yaml:"tips" json:"tips"`
}

// Transition glides from From to the default shares over Months months
// starting at the anchor.
type Transition struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Months  int           `yaml:"months" json:"months"`
	From    *BucketValues `yaml:"from,omitempty" json:"from,omitempty"`
}

// Redemptions sets monthly decay fractions. Unset fields use the engine
// default.
type Redemptions struct {
	DecayNB   *float64 `yaml:"decay_nb,omitempty" json:"decay_nb,omitempty"`
	DecayTips *float64 `yaml:"decay_tips,omitempty" json:"decay_tips,omitempty"`
}

// Output locates run artifacts.
type Output struct {
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
	DB  string `yaml:"db,omitempty" json:"db,omitempty"`
}

// Load reads, validates and finalizes the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(path)
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes and schema-checks config bytes. It does not apply
// environment overrides or semantic validation; Load does both.
func Parse(data []byte, filename string) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ValidationError{Field: "", Message: "config file is empty"}
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := CheckSchema(data, filename); err != nil {
		return nil, err
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = DefaultOutputDir
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvHorizonMonths); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Field: EnvHorizonMonths, Message: fmt.Sprintf("not an integer: %q", v)}
		}
		c.HorizonMonths = n
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.Output.DB = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Output.Dir = v
	}
	return nil
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
	// Pos is "file:line:col" when the error came from the schema check.
	Pos string
	Err error
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Pos != "" {
		msg = e.Pos + ": " + msg
	}
	return "invalid config: " + msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}

func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Resolve returns path relative to the config file's directory unless it is
// absolute or empty.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
