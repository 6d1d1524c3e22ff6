package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lmsync/internal/report"
)

const analysisYAML = `
project:
  key: proj
  uuid: p-uuid
  type: PROJECT
  measures:
    ncloc: {value: 120}
  children:
    - key: proj:a.go
      uuid: f-uuid
      type: FILE
      measures:
        ncloc: {value: 120}
        coverage: {value: 100}
        violations: {value: 3, variation: 1}
        function_complexity_distribution: {text: "1=3"}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReconcile_JSON(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeFile(t, dir, "analysis.yaml", analysisYAML)
	dbPath := filepath.Join(dir, "lm.db")

	for _, mode := range []string{"always", "never"} {
		out, _, err := execute(t, "--format", "json", "reconcile", "--db", dbPath, "--upsert-mode", mode, reportPath)
		require.NoError(t, err)

		resp, result := jsonResponse[ReconcileResult](t, out)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "proj", result.Project)
		assert.Equal(t, 2, result.Components)
		assert.Equal(t, "Committed", result.State)
		assert.Equal(t, int64(3), result.Statistics["insertsOrUpdates"], mode)
	}

	out, _, err := execute(t, "--format", "json", "measures", "--db", dbPath, "f-uuid")
	require.NoError(t, err)
	_, rows := jsonResponse[[]MeasureRow](t, out)

	var metrics []string
	for _, r := range rows {
		metrics = append(metrics, r.Metric)
	}
	assert.ElementsMatch(t, []string{"ncloc", "violations"}, metrics)
}

func TestReconcile_Text(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeFile(t, dir, "analysis.yaml", analysisYAML)

	out, _, err := execute(t, "reconcile", "--db", filepath.Join(dir, "lm.db"), reportPath)
	require.NoError(t, err)
	assert.Equal(t, "Persist live measures: insertsOrUpdates=3 (proj, 2 components)\n", out)
}

func TestReconcile_DatabaseFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeFile(t, dir, "analysis.yaml", analysisYAML)
	dbPath := filepath.Join(dir, "env.db")

	clearEnv(t)
	cmd := NewRootCommand()
	cmd.SetOut(&discard{})
	cmd.SetErr(&discard{})
	cmd.SetArgs([]string{"reconcile", reportPath})
	t.Setenv("LMSYNC_DB", dbPath)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestReconcile_MetricsFile(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeFile(t, dir, "analysis.yaml", analysisYAML)
	metricsPath := filepath.Join(dir, "lmsync.prom")

	_, _, err := execute(t, "reconcile", "--db", filepath.Join(dir, "lm.db"), "--metrics-file", metricsPath, reportPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `lmsync_step_statistic{name="insertsOrUpdates",step="Persist live measures"} 3`)
}

func TestReconcile_InvalidReport(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeFile(t, dir, "analysis.yaml", "project: {key: p, type: PROJECT, measures: {colour: {value: 1}}}\n")

	out, _, err := execute(t, "--format", "json", "reconcile", "--db", filepath.Join(dir, "lm.db"), reportPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp, _ := jsonResponse[any](t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, report.ErrCodeMetric, resp.Error.Code)
}

func TestReconcile_InvalidUpsertMode(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeFile(t, dir, "analysis.yaml", analysisYAML)

	_, _, err := execute(t, "reconcile", "--db", filepath.Join(dir, "lm.db"), "--upsert-mode", "sometimes", reportPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid settings")
}

func TestReconcile_MissingArgument(t *testing.T) {
	_, _, err := execute(t, "reconcile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
