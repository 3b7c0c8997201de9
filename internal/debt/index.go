package debt

import "github.com/roach88/debtproj/internal/calendar"

// CheckIndex validates a month index and reports failures as a ConfigError
// with code INVALID_INDEX.
func CheckIndex(idx []calendar.Month) error {
	if err := calendar.ValidateIndex(idx); err != nil {
		return &ConfigError{Code: ErrCodeInvalidIndex, Field: "index", Message: err.Error()}
	}
	return nil
}
