package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainConfig prefixes the config fingerprint hash.
const DomainConfig = "debtproj/config/v1"

// Units documents the unit of every numeric family in the echo.
var Units = map[string]string{
	"stocks":            "USD millions",
	"gdp":               "USD millions, fiscal-year level",
	"annual_pct_maps":   "percent (2.5 means 2.5%)",
	"rates.values":      "annualized decimal (0.045 means 4.5%)",
	"rates.fiscal_year": "percent, converted to annualized decimal",
	"existing_coupons":  "annualized decimal",
	"shares":            "fraction of gross financing need, sums to 1",
	"decay":             "fraction of opening stock redeemed per month",
}

// Echo is the normalized configuration written next to run artifacts.
type Echo struct {
	Config    *Config           `json:"config"`
	Units     map[string]string `json:"units"`
	DecayNB   float64           `json:"decay_nb"`
	DecayTips float64           `json:"decay_tips"`
	Params    *Parameters       `json:"params,omitempty"`
}

// Normalized returns the echo of c with defaults resolved.
func (c *Config) Normalized(params *Parameters) Echo {
	nb, tips := c.Decay()
	return Echo{Config: c, Units: Units, DecayNB: nb, DecayTips: tips, Params: params}
}

// Fingerprint returns the hex SHA-256 of the echo's JSON encoding, prefixed
// with DomainConfig and a NUL separator. JSON object keys are emitted in a
// fixed order, so equal configs have equal fingerprints.
func (e Echo) Fingerprint() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainConfig))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
