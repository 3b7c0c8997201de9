package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/debtproj/internal/engine"
)

// Render formats a trace for golden comparison: a header line, one line
// per month with every numeric column at six decimals, and the closing
// stocks.
func Render(name string, tr *engine.Trace) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", name)
	buf.WriteString(strings.Join(engine.Columns(), ","))
	buf.WriteByte('\n')
	for _, r := range tr.Rows {
		buf.WriteString(r.Month.String())
		for _, v := range r.Values() {
			fmt.Fprintf(&buf, ",%.6f", v)
		}
		buf.WriteByte('\n')
	}
	c := tr.Final()
	fmt.Fprintf(&buf, "closing,%.6f,%.6f,%.6f\n", c.Short, c.NB, c.Tips)
	return buf.Bytes()
}

// GoldenDir is the directory holding the golden files of the scenario
// files in dir.
func GoldenDir(dir string) string { return filepath.Join(dir, "golden") }

// GoldenPath returns the golden file of s.
func GoldenPath(s *Scenario) string {
	return filepath.Join(GoldenDir(filepath.Dir(s.Path)), s.Name+".golden")
}

// RunWithGolden runs s, fails t on any assertion error, and compares the
// rendered trace with its golden file. Regenerate with:
//
//	go test ./internal/scenario -update
func RunWithGolden(t *testing.T, s *Scenario) error {
	t.Helper()
	res, err := Run(s)
	if err != nil {
		return err
	}
	if !res.Pass {
		return fmt.Errorf("scenario %s failed: %s", s.Name, strings.Join(res.Errors, "; "))
	}
	if res.Trace == nil {
		// expect_error scenarios have no trace to compare.
		return nil
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir(filepath.Dir(s.Path))),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, Render(s.Name, res.Trace))
	return nil
}

// CompareGolden reports whether the trace of res matches the golden file of
// s. ok is false with a nil error when the golden file does not exist.
func CompareGolden(s *Scenario, res *Result) (match, ok bool, err error) {
	want, err := os.ReadFile(GoldenPath(s))
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("read golden: %w", err)
	}
	if res.Trace == nil {
		return false, true, nil
	}
	return bytes.Equal(want, Render(s.Name, res.Trace)), true, nil
}

// UpdateGolden writes the trace of res as the golden file of s.
func UpdateGolden(s *Scenario, res *Result) error {
	if res.Trace == nil {
		return fmt.Errorf("scenario %s has no trace to record", s.Name)
	}
	path := GoldenPath(s)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden dir: %w", err)
	}
	if err := os.WriteFile(path, Render(s.Name, res.Trace), 0o644); err != nil {
		return fmt.Errorf("write golden: %w", err)
	}
	return nil
}
