package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lmsync/internal/metric"
	"github.com/roach88/lmsync/internal/store"
)

// MeasuresOptions holds flags for the measures command.
type MeasuresOptions struct {
	*RootOptions
	Database string
	Project  string
}

// MeasureRow is a stored live measure as shown by the measures command.
type MeasureRow struct {
	Component string   `json:"component"`
	Metric    string   `json:"metric"`
	Value     *float64 `json:"value,omitempty"`
	Text      *string  `json:"text,omitempty"`
	Variation *float64 `json:"variation,omitempty"`
	Data      string   `json:"data,omitempty"`
	UpdatedAt int64    `json:"updated_at"`
}

// NewMeasuresCommand creates the measures command.
func NewMeasuresCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MeasuresOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "measures [component-uuid]",
		Short: "List stored live measures",
		Long: `List the live measures stored for a component, or for every
component of a project with --project.

Metrics of the core catalog are shown by key, others by UUID.

Examples:
  lmsync measures --db ./lmsync.db 5a1c2e4f-...
  lmsync measures --db ./lmsync.db --project 0f9e8d7c-... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			component := ""
			if len(args) == 1 {
				component = args[0]
			}
			return runMeasures(opts, component, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Project, "project", "", "list every component of this project UUID")

	return cmd
}

func runMeasures(opts *MeasuresOptions, componentUUID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	if (componentUUID == "") == (opts.Project == "") {
		return formatter.fail(ExitCommandError, ErrCodeConfig, "give either a component UUID or --project", nil)
	}

	database := opts.settings().Database
	if opts.Database != "" {
		database = opts.Database
	}

	st, err := store.Open(database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	var lms []store.LiveMeasure
	if componentUUID != "" {
		lms, err = st.SelectByComponent(ctx, componentUUID)
	} else {
		lms, err = st.SelectByProject(ctx, opts.Project)
	}
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDatabase, "failed to read live measures", err)
	}

	keys := coreMetricKeys()
	rows := make([]MeasureRow, 0, len(lms))
	for _, lm := range lms {
		name, ok := keys[lm.MetricUUID]
		if !ok {
			name = lm.MetricUUID
		}
		rows = append(rows, MeasureRow{
			Component: lm.ComponentUUID,
			Metric:    name,
			Value:     lm.Value,
			Text:      lm.TextValue,
			Variation: lm.Variation,
			Data:      string(lm.Data),
			UpdatedAt: lm.UpdatedAt,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(rows)
	}

	w := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(w, "No live measures found")
		return nil
	}
	for _, r := range rows {
		fmt.Fprintln(w, formatMeasureRow(r, opts.Project != ""))
	}
	return nil
}

func formatMeasureRow(r MeasureRow, withComponent bool) string {
	var fields []string
	if withComponent {
		fields = append(fields, r.Component)
	}
	fields = append(fields, r.Metric)
	if r.Value != nil {
		fields = append(fields, fmt.Sprintf("value=%g", *r.Value))
	}
	if r.Text != nil {
		fields = append(fields, fmt.Sprintf("text=%q", *r.Text))
	}
	if r.Variation != nil {
		fields = append(fields, fmt.Sprintf("variation=%g", *r.Variation))
	}
	if r.Data != "" {
		fields = append(fields, fmt.Sprintf("data=%q", r.Data))
	}
	return strings.Join(fields, " ")
}

func coreMetricKeys() map[string]string {
	keys := make(map[string]string)
	for _, m := range metric.Core() {
		keys[m.UUID] = m.Key
	}
	return keys
}
