package debt

import (
	"errors"
	"fmt"

	"github.com/roach88/debtproj/internal/calendar"
)

// ErrorCode categorizes configuration errors and invariant violations.
type ErrorCode string

// Configuration error codes.
const (
	// ErrCodeInvalidRate indicates a non-finite or out-of-bounds rate.
	ErrCodeInvalidRate ErrorCode = "INVALID_RATE"

	// ErrCodeInvalidShare indicates a share outside [0,1] or non-finite.
	ErrCodeInvalidShare ErrorCode = "INVALID_SHARE"

	// ErrCodeSharesSum indicates shares that do not sum to 1 within ShareTolerance.
	ErrCodeSharesSum ErrorCode = "SHARES_SUM"

	// ErrCodeMissingCoverage indicates a provider cannot produce a row for a month.
	ErrCodeMissingCoverage ErrorCode = "MISSING_COVERAGE"

	// ErrCodeMissingBucket indicates no value at all was configured for a bucket.
	ErrCodeMissingBucket ErrorCode = "MISSING_BUCKET"

	// ErrCodeInvalidIndex indicates an empty or unordered month index.
	ErrCodeInvalidIndex ErrorCode = "INVALID_INDEX"

	// ErrCodeInvalidParameter indicates a bad scalar parameter (decay, stock, override).
	ErrCodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
)

// Invariant violation codes.
const (
	ErrCodeNonFinite        ErrorCode = "NON_FINITE"
	ErrCodeNegativeStock    ErrorCode = "NEGATIVE_STOCK"
	ErrCodeNegativeInterest ErrorCode = "NEGATIVE_INTEREST"
	ErrCodeBudgetIdentity   ErrorCode = "BUDGET_IDENTITY"
	ErrCodeIssuanceMismatch ErrorCode = "ISSUANCE_MISMATCH"
	ErrCodeRedemptionBound  ErrorCode = "REDEMPTION_BOUND"
)

// ConfigError reports an invalid or missing input detected before or at the
// point of first use. It is fatal: nothing is silently corrected.
type ConfigError struct {
	Code ErrorCode

	// Field names the offending input, e.g. "shares.tips" or "rate.nb".
	Field string

	// Month is set when the error concerns a specific month.
	Month calendar.Month

	// Value is the offending value, when there is one.
	Value float64

	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field=%s, value=%v)", e.Field, e.Value)
	}
	if !e.Month.IsZero() {
		msg += fmt.Sprintf(" (month=%s)", e.Month)
	}
	return msg
}

// InvariantError reports a violated numerical invariant in a computed row.
// The run that produced it has no valid trace.
type InvariantError struct {
	Code    ErrorCode
	Month   calendar.Month
	Field   string
	Value   float64
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s (month=%s, field=%s, value=%v)", e.Code, e.Message, e.Month, e.Field, e.Value)
}

// IsConfigError reports whether err wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsInvariantError reports whether err wraps an InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// CodeOf returns the error code of a wrapped ConfigError or InvariantError,
// or "" if err is neither.
func CodeOf(err error) ErrorCode {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var ie *InvariantError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}
