package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/debtproj/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database    string
	Fingerprint string
	Delete      string
}

// RunsResult lists archived runs.
type RunsResult struct {
	Runs []store.Run `json:"runs"`
}

// DeleteResult names the run removed by runs --delete.
type DeleteResult struct {
	Deleted string `json:"deleted"`
}

func (r DeleteResult) String() string {
	return fmt.Sprintf("✓ Deleted run %s", r.Deleted)
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List or delete archived runs",
		Long: `List the runs archived in a SQLite database, oldest first.

--delete removes one run together with its trace and annual rows.

Examples:
  debtproj runs --db runs.db
  debtproj runs --db runs.db --fingerprint 3f1c...
  debtproj runs --db runs.db --format json
  debtproj runs --db runs.db --delete 0192f1c4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only runs with this config fingerprint")
	cmd.Flags().StringVar(&opts.Delete, "delete", "", "delete the run with this id")
	cmd.MarkFlagsMutuallyExclusive("fingerprint", "delete")

	return cmd
}

// openArchive opens an existing archive. Unlike store.Open it refuses to
// create a new database file.
func openArchive(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return store.Open(path)
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

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

	if opts.Delete != "" {
		if err := st.DeleteRun(ctx, opts.Delete); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return formatter.Fail(ErrCodeNotFound, ExitCommandError, "run not found", err)
			}
			return formatter.Fail(ErrCodeDatabase, ExitCommandError, "failed to delete run", err)
		}
		return formatter.Success(DeleteResult{Deleted: opts.Delete})
	}

	runs, err := st.ListRuns(ctx, opts.Fingerprint)
	if err != nil {
		return formatter.Fail(ErrCodeDatabase, ExitCommandError, "failed to list runs", err)
	}

	if formatter.JSON() {
		return formatter.Success(RunsResult{Runs: runs})
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tANCHOR\tMONTHS\tCHECKLIST\tFINGERPRINT")
	for _, r := range runs {
		check := "✓"
		if !r.ChecklistPassed {
			check = "✗"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Anchor, r.HorizonMonths, check, shortHash(r.ConfigFingerprint))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d run(s)\n", len(runs))
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
