package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/lmsync/internal/livemeasure"
	"github.com/roach88/lmsync/internal/report"
	"github.com/roach88/lmsync/internal/stats"
	"github.com/roach88/lmsync/internal/store"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	*RootOptions
	Database          string
	UpsertMode        string
	NoComponentCommit bool
	MetricsFile       string
}

// ReconcileResult is the outcome of a reconcile run.
type ReconcileResult struct {
	Project    string           `json:"project"`
	Components int              `json:"components"`
	State      string           `json:"state"`
	Statistics map[string]int64 `json:"statistics"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile <report>",
		Short: "Persist the live measures of an analysis report",
		Long: `Persist the live measures of an analysis report.

The report (CUE, JSON or YAML, local path or URL) holds the component tree
of a project and the measures computed for each component. Each component's
stored live measures are replaced by the measures worth keeping: measures
equal to their metric's best value on files, distributions on files and
empty measures are dropped.

Example:
  lmsync reconcile --db ./lmsync.db ./analysis.cue
  lmsync reconcile --db ./lmsync.db --upsert-mode never https://ci.example.com/analysis.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.UpsertMode, "upsert-mode", "", "write path: auto|always|never (default from config)")
	cmd.Flags().BoolVar(&opts.NoComponentCommit, "no-component-commit", false, "commit once at the end instead of after each component")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write step statistics in Prometheus text format to this file")

	return cmd
}

func runReconcile(opts *ReconcileOptions, location string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	cfg := opts.settings()
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.UpsertMode != "" {
		cfg.UpsertMode = opts.UpsertMode
	}
	if opts.NoComponentCommit {
		cfg.CommitPerComponent = false
	}
	if err := cfg.Validate(); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, "invalid settings", err)
	}
	mode, err := store.ParseUpsertMode(cfg.UpsertMode)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, "invalid settings", err)
	}

	slog.Info("loading report", "location", location)
	analysis, err := report.Load(ctx, location)
	if err != nil {
		code := ErrCodeGeneric
		var le *report.LoadError
		if errors.As(err, &le) {
			code = le.Code
		}
		return formatter.fail(ExitCommandError, code, "failed to load report", err)
	}
	formatter.VerboseLog("Loaded %d component(s) of %s", analysis.Root.Count(), analysis.Root.Key)

	st, err := store.Open(cfg.Database, store.WithUpsertMode(mode))
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	registry := prometheus.NewRegistry()
	gauge := stats.NewGaugeVec()
	registry.MustRegister(gauge)
	statistics := stats.New(livemeasure.Description).WithGauge(gauge)

	step := livemeasure.NewStep(
		livemeasure.NewStoreDatabase(st),
		analysis.Metrics,
		analysis.Measures,
		analysis.Root,
		livemeasure.WithPerComponentCommit(cfg.CommitPerComponent),
	)
	if err := step.Execute(ctx, statistics); err != nil {
		code := ErrCodeStorage
		if livemeasure.IsPrecondition(err) {
			code = ErrCodePrecondition
		}
		return formatter.fail(ExitFailure, code, "reconciliation failed", err)
	}

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, registry); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeGeneric, "failed to write metrics file", err)
		}
	}

	result := ReconcileResult{
		Project:    analysis.Root.Key,
		Components: analysis.Root.Count(),
		State:      step.State().String(),
		Statistics: map[string]int64{},
	}
	for _, name := range statistics.Names() {
		v, _ := statistics.Get(name)
		result.Statistics[name] = v
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("%s (%s, %d components)", statistics, result.Project, result.Components))
}
