package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/engine"
	"github.com/roach88/debtproj/internal/macro"
	"github.com/roach88/debtproj/internal/report"
	"github.com/roach88/debtproj/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	From     string // optional first month, YYYY-MM or YYYY-MM-DD
	To       string // optional last month
	Annual   string // optional: print the FY or CY table instead
}

// TraceResult holds a stored trace or annual table.
type TraceResult struct {
	Run    store.Run          `json:"run"`
	Rows   []engine.TraceRow  `json:"rows,omitempty"`
	Annual []report.AnnualRow `json:"annual,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print an archived run's trace",
		Long: `Print the monthly trace of an archived run, optionally restricted to
a window of months, or its fiscal- or calendar-year interest table.

Examples:
  debtproj trace --db runs.db --run 0192...
  debtproj trace --db runs.db --run 0192... --from 2026-01 --to 2026-12
  debtproj trace --db runs.db --run 0192... --annual fy
  debtproj trace --db runs.db --run 0192... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.From, "from", "", "first month to print")
	cmd.Flags().StringVar(&opts.To, "to", "", "last month to print")
	cmd.Flags().StringVar(&opts.Annual, "annual", "", "print the annual table for frame fy|cy")

	return cmd
}

func parseWindow(from, to string) (calendar.Month, calendar.Month, error) {
	var f, t calendar.Month
	var err error
	if from != "" {
		if f, err = calendar.ParseMonth(from); err != nil {
			return f, t, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		if t, err = calendar.ParseMonth(to); err != nil {
			return f, t, fmt.Errorf("--to: %w", err)
		}
	}
	if !f.IsZero() && !t.IsZero() && t.Before(f) {
		return f, t, fmt.Errorf("--to %s is before --from %s", t, f)
	}
	return f, t, nil
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	from, to, err := parseWindow(opts.From, opts.To)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, ExitCommandError, "invalid window", err)
	}
	var frame macro.Frame
	if opts.Annual != "" {
		if frame, err = macro.ParseFrame(opts.Annual); err != nil {
			return formatter.Fail(ErrCodeGeneric, ExitCommandError, "invalid --annual", err)
		}
	}

	st, err := openArchive(opts.Database)
	if err != nil {
		code, _ := classify(err)
		if code == ErrCodeGeneric {
			code = ErrCodeDatabase
		}
		return formatter.Fail(code, ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ErrCodeNotFound, ExitCommandError, "run not found", err)
	}
	if err != nil {
		return formatter.Fail(ErrCodeDatabase, ExitCommandError, "failed to read run", err)
	}

	result := TraceResult{Run: run}
	if frame != "" {
		if result.Annual, err = st.ReadAnnual(ctx, run.ID, frame); err != nil {
			return formatter.Fail(ErrCodeDatabase, ExitCommandError, "failed to read annual table", err)
		}
	} else {
		tr, err := st.ReadTrace(ctx, run.ID, from, to)
		if err != nil {
			return formatter.Fail(ErrCodeDatabase, ExitCommandError, "failed to read trace", err)
		}
		result.Rows = tr.Rows
	}

	if formatter.JSON() {
		return formatter.SuccessWithTrace(result, run.ID)
	}
	if frame != "" {
		return outputAnnualText(formatter, result, frame)
	}
	return outputTraceText(formatter, result)
}

func outputTraceText(f *OutputFormatter, result TraceResult) error {
	w := f.Writer
	fmt.Fprintf(w, "Run %s (anchor %s, %d months)\n\n", result.Run.ID, result.Run.Anchor, result.Run.HorizonMonths)
	if len(result.Rows) == 0 {
		fmt.Fprintln(w, "No months in window.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MONTH\tSHORT\tNB\tTIPS\tINTEREST\tOTHER\tGFN\tDEFICIT\t")
	for _, r := range result.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Month,
			usd(r.StockShort), usd(r.StockNB), usd(r.StockTips),
			usd(r.InterestTotal), usd(r.OtherInterest),
			usd(r.GFN), usd(r.PrimaryDeficit))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	c := result.Run.Closing
	fmt.Fprintf(w, "\nClosing: short %s  nb %s  tips %s (USD mn)\n", usd(c.Short), usd(c.NB), usd(c.Tips))
	f.VerboseLog("config fingerprint: %s", result.Run.ConfigFingerprint)
	return nil
}

func outputAnnualText(f *OutputFormatter, result TraceResult, frame macro.Frame) error {
	w := f.Writer
	fmt.Fprintf(w, "Run %s: %s interest\n\n", result.Run.ID, frame)
	if len(result.Annual) == 0 {
		fmt.Fprintln(w, "No annual rows.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "YEAR\tMONTHS\tINTEREST\tGDP\t% GDP\tADDL REVENUE\t")
	for _, a := range result.Annual {
		fmt.Fprintf(tw, "%s%d\t%d\t%s\t%s\t%s\t%s\t\n",
			frame, a.Year, a.Months, usd(a.Interest), usd(a.GDP), pct(100*a.PctGDP), usd(a.AdditionalRevenue))
	}
	return tw.Flush()
}
