package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/debtproj/internal/store"
)

// baseConfig covers FY2025 (Jul-Sep 2025) and FY2026 over a 12-month horizon.
const baseConfig = `anchor_date: "2025-07-01"
horizon_months: 12

start_state:
  short: 6000000
  nb: 21000000
  tips: 2000000

gdp:
  anchor_fy: 2025
  anchor_value_usd_millions: 30000000
  annual_fy_growth_rate:
    2026: 4.0
    2027: 4.0
    2028: 4.0

budget:
  frame: FY
  annual_revenue_pct_gdp:
    2025: 17.0
  annual_outlays_pct_gdp:
    2025: 20.0

other_interest:
  annual_pct_gdp:
    2025: 0.1

rates:
  type: constant
  values:
    short: 0.043
    nb: 0.035
    tips: 0.02

issuance:
  default_shares:
    short: 0.2
    nb: 0.7
    tips: 0.1
`

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

const fixedRunDir = "20250102T030405Z"

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// withConfig returns baseConfig with the given top-level lines replaced.
func withConfig(replacements map[string]string) string {
	out := baseConfig
	for old, repl := range replacements {
		out = strings.Replace(out, old, repl, 1)
	}
	return out
}

func execute(cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// newTestRunCommand returns a run command with a fixed clock and run ids.
func newTestRunCommand(format string, ids ...string) *cobra.Command {
	return newRunCommand(&RunOptions{
		RootOptions: &RootOptions{Format: format},
		IDGenerator: store.NewFixedGenerator(ids...),
		Now:         func() time.Time { return fixedNow },
	})
}

// archivedRun runs baseConfig once with --db and returns the database path.
func archivedRun(t *testing.T, runID string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := writeFile(t, dir, "macro.yaml", baseConfig)
	dbPath := filepath.Join(dir, "runs.db")

	_, _, err := execute(newTestRunCommand("text", runID),
		"--config", cfg, "--out", filepath.Join(dir, "out"), "--db", dbPath)
	require.NoError(t, err)
	return dbPath
}
