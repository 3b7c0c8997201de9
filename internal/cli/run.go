package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/config"
	"github.com/roach88/debtproj/internal/debt"
	"github.com/roach88/debtproj/internal/output"
	"github.com/roach88/debtproj/internal/store"
)

// GoldenHorizonMonths is the horizon of a --golden run.
const GoldenHorizonMonths = 12

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config   string
	Golden   bool
	Params   string
	Out      string
	Database string
	Strict   bool

	// IDGenerator allows overriding the run id generator (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDGenerator store.IDGenerator

	// Now allows overriding the clock that names run directories.
	Now func() time.Time
}

// RunSummary is the result printed after a successful run.
type RunSummary struct {
	RunID         string         `json:"run_id"`
	RunDir        string         `json:"run_dir"`
	Anchor        calendar.Month `json:"anchor"`
	Months        int            `json:"months"`
	Fingerprint   string         `json:"config_fingerprint"`
	Closing       debt.State     `json:"closing"`
	InterestTotal float64        `json:"interest_total"`
	LastFY        int            `json:"last_fy"`
	LastFYPctGDP  float64        `json:"last_fy_pct_gdp"`
	Checklist     bool           `json:"checklist_passed"`
	FailedChecks  []string       `json:"failed_checks,omitempty"`
	Archived      string         `json:"archived_to,omitempty"`
}

func (s RunSummary) String() string {
	var b strings.Builder
	mark := "✓"
	if !s.Checklist {
		mark = "✗"
	}
	fmt.Fprintf(&b, "%s run %s: %d months from %s\n", mark, s.RunID, s.Months, s.Anchor)
	fmt.Fprintf(&b, "  output:   %s\n", s.RunDir)
	fmt.Fprintf(&b, "  closing:  short %s  nb %s  tips %s (USD mn)\n",
		usd(s.Closing.Short), usd(s.Closing.NB), usd(s.Closing.Tips))
	fmt.Fprintf(&b, "  interest: %s (USD mn, incl. other)\n", usd(s.InterestTotal))
	if s.LastFY != 0 {
		fmt.Fprintf(&b, "  FY%d interest: %s of GDP\n", s.LastFY, pct(100*s.LastFYPctGDP))
	}
	if len(s.FailedChecks) > 0 {
		fmt.Fprintf(&b, "  failed checks: %s\n", strings.Join(s.FailedChecks, ", "))
	}
	if s.Archived != "" {
		fmt.Fprintf(&b, "  archived: %s\n", s.Archived)
	}
	fmt.Fprintf(&b, "  config:   %s", s.Fingerprint)
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a projection from a config file",
		Long: `Run a monthly debt projection.

Loads and validates the config, builds the budget, GDP, other-interest,
rate and issuance inputs, runs the engine over the horizon and writes
the artifacts to a fresh timestamped directory under the output dir:

  monthly_trace.csv, annual_cy.csv, annual_fy.csv, bridge_table.csv,
  rates_preview.csv, issuance_preview.csv, deficits_preview.csv,
  other_interest_preview.csv, config_echo.json, uat_checklist.json, run.log

When a database is given (--db, output.db or DEBTPROJ_DB) the run is
also archived there.

Exit codes:
  0 - Run completed (failed checklist items are reported, not fatal)
  1 - Invariant violation, or a failed checklist item with --strict
  2 - Command error (bad config, paths, database)

Examples:
  debtproj run --config input/macro.yaml
  debtproj run --config input/macro.yaml --golden
  debtproj run --config input/macro.yaml --params output/parameters.json --db runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjection(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to config YAML (required)")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().BoolVar(&opts.Golden, "golden", false, fmt.Sprintf("run a short %d-month horizon", GoldenHorizonMonths))
	cmd.Flags().StringVar(&opts.Params, "params", "", "path to parameters.json overriding issuance shares")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output directory (overrides output.dir)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run archive (overrides output.db)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when a checklist item fails")

	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runProjection(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		code, exit := classify(err)
		if code == ErrCodeGeneric {
			code, exit = ErrCodeLoadFailed, ExitCommandError
		}
		return formatter.Fail(code, exit, "failed to load config", err)
	}

	var params *config.Parameters
	if opts.Params != "" {
		if params, err = config.LoadParameters(opts.Params); err != nil {
			return formatter.Fail(ErrCodeLoadFailed, ExitCommandError, "failed to load parameters", err)
		}
	}

	if opts.Golden {
		cfg.HorizonMonths = GoldenHorizonMonths
		if err := cfg.Validate(); err != nil {
			return formatter.Fail(ErrCodeInvalidConfig, ExitCommandError, "config does not support a golden run", err)
		}
	}

	echo := cfg.Normalized(params)
	fingerprint, err := echo.Fingerprint()
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, ExitFailure, "failed to fingerprint config", err)
	}

	outDir := opts.Out
	if outDir == "" {
		outDir = cfg.Resolve(cfg.Output.Dir)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	runDir, err := output.CreateRunDir(outDir, now())
	if err != nil {
		return formatter.Fail(ErrCodeWriteFailed, ExitCommandError, "failed to create run directory", err)
	}

	logFile, err := os.Create(filepath.Join(runDir, output.LogFile))
	if err != nil {
		return formatter.Fail(ErrCodeWriteFailed, ExitCommandError, "failed to create run log", err)
	}
	defer logFile.Close()
	logger = newLogger(io.MultiWriter(cmd.ErrOrStderr(), logFile), opts.Verbose)

	ids := opts.IDGenerator
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	runID := ids.Generate()
	logger = logger.With("run_id", runID)
	logger.Info("RUN START",
		"config", opts.Config,
		"config_fingerprint", fingerprint,
		"anchor", cfg.AnchorDate,
		"horizon_months", cfg.HorizonMonths,
		"run_dir", runDir)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	proj, err := project(ctx, cfg, params, logger)
	if err != nil {
		logger.Error("RUN FAILED", "error", err)
		code, exit := classify(err)
		_ = formatter.Error(code, err.Error(), errorDetails(err))
		return WrapExitError(exit, "projection failed", err)
	}

	if err := proj.write(output.NewWriter(runDir), echo); err != nil {
		logger.Error("RUN FAILED", "error", err)
		return formatter.Fail(ErrCodeWriteFailed, ExitCommandError, "failed to write artifacts", err)
	}

	summary := RunSummary{
		RunID:        runID,
		RunDir:       runDir,
		Anchor:       cfg.AnchorDate,
		Months:       proj.Trace.Len(),
		Fingerprint:  fingerprint,
		Closing:      proj.Trace.Final(),
		Checklist:    proj.Checklist.Passed(),
		FailedChecks: proj.Checklist.Failed(),
	}
	for _, r := range proj.Trace.Rows {
		summary.InterestTotal += r.InterestTotal + r.OtherInterest
	}
	if n := len(proj.FY); n > 0 {
		summary.LastFY, summary.LastFYPctGDP = proj.FY[n-1].Year, proj.FY[n-1].PctGDP
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Resolve(cfg.Output.DB)
	}
	if dbPath != "" {
		data, err := jsonString(echo)
		if err != nil {
			return formatter.Fail(ErrCodeGeneric, ExitFailure, "failed to encode config echo", err)
		}
		run := store.Run{
			ID:                runID,
			CreatedAt:         now().UTC(),
			Anchor:            cfg.AnchorDate,
			HorizonMonths:     cfg.HorizonMonths,
			ConfigFingerprint: fingerprint,
			ConfigEcho:        data,
			RunDir:            runDir,
			Closing:           summary.Closing,
			ChecklistPassed:   summary.Checklist,
		}
		if err := archiveRun(ctx, dbPath, run, proj); err != nil {
			logger.Error("RUN FAILED", "error", err)
			return formatter.Fail(ErrCodeDatabase, ExitCommandError, "failed to archive run", err)
		}
		summary.Archived = dbPath
		logger.Info("run archived", "db", dbPath)
	}

	for _, name := range summary.FailedChecks {
		logger.Warn("checklist failed", "check", name)
	}
	logger.Info("RUN END",
		"config_fingerprint", fingerprint,
		"months", summary.Months,
		"checklist_passed", summary.Checklist)

	if err := formatter.SuccessWithTrace(summary, runID); err != nil {
		return err
	}
	if opts.Strict && !summary.Checklist {
		return NewExitError(ExitFailure, fmt.Sprintf("%d checklist item(s) failed", len(summary.FailedChecks)))
	}
	return nil
}

func jsonString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func archiveRun(ctx context.Context, path string, run store.Run, p *projection) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteRun(ctx, run, p.Trace, p.CY, p.FY)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM. The
// projection checks it between months.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, cancelling run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
