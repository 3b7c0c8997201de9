// Package output writes run artifacts: the timestamped run directory, CSV
// tables and JSON documents.
package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// TimestampFormat names run directories (UTC).
const TimestampFormat = "20060102T150405Z"

// Artifact file names inside a run directory.
const (
	TraceFile         = "monthly_trace.csv"
	AnnualCYFile      = "annual_cy.csv"
	AnnualFYFile      = "annual_fy.csv"
	BridgeFile        = "bridge_table.csv"
	RatesPreviewFile  = "rates_preview.csv"
	SharesPreviewFile = "issuance_preview.csv"
	DeficitsFile      = "deficits_preview.csv"
	OtherInterestFile = "other_interest_preview.csv"
	ConfigEchoFile    = "config_echo.json"
	ChecklistFile     = "uat_checklist.json"
	LogFile           = "run.log"
)

// CreateRunDir creates a fresh directory under base named by now in UTC. If
// the name is taken, -1, -2, ... suffixes are tried in order.
func CreateRunDir(base string, now time.Time) (string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	ts := now.UTC().Format(TimestampFormat)
	for suffix := 0; ; suffix++ {
		name := ts
		if suffix > 0 {
			name = fmt.Sprintf("%s-%d", ts, suffix)
		}
		dir := filepath.Join(base, name)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create run dir: %w", err)
		}
	}
}
