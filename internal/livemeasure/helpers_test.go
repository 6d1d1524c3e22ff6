package livemeasure

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lmsync/internal/component"
	"github.com/roach88/lmsync/internal/measure"
	"github.com/roach88/lmsync/internal/metric"
	"github.com/roach88/lmsync/internal/stats"
	"github.com/roach88/lmsync/internal/store"
	"github.com/roach88/lmsync/internal/testutil"
)

var upsertModes = []store.UpsertMode{store.UpsertAlways, store.UpsertNever}

// fixture is an analysis over a small tree backed by a SQLite store.
type fixture struct {
	store    *store.Store
	metrics  *metric.MapRepository
	measures *measure.MapRepository
	root     *component.Component
	clock    *testutil.Clock
}

// newFixture builds the tree
//
//	proj (p)
//	└── proj:core (m)
//	    └── proj:core/src (d)
//	        ├── proj:core/src/a.go (f1)
//	        └── proj:core/src/b.go (f2)
func newFixture(t *testing.T, mode store.UpsertMode) *fixture {
	t.Helper()
	f := &fixture{
		metrics:  metric.NewCoreRepository(),
		measures: measure.NewMapRepository(),
		clock:    testutil.NewClock(time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)),
	}

	root, err := component.NewTree(&component.Component{
		UUID: "p", Key: "proj", Type: component.Project,
		Children: []*component.Component{{
			UUID: "m", Key: "proj:core", Type: component.Module,
			Children: []*component.Component{{
				UUID: "d", Key: "proj:core/src", Type: component.Directory,
				Children: []*component.Component{
					{UUID: "f1", Key: "proj:core/src/a.go", Type: component.File},
					{UUID: "f2", Key: "proj:core/src/b.go", Type: component.File},
				},
			}},
		}},
	})
	require.NoError(t, err)
	f.root = root

	s, err := store.Open(filepath.Join(t.TempDir(), "lm.db"),
		store.WithUpsertMode(mode),
		store.WithIDGenerator(store.NewSequenceGenerator("lm")),
		store.WithClock(f.clock.Now),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	f.store = s
	return f
}

// run executes a fresh step and returns its statistics.
func (f *fixture) run(t *testing.T, opts ...StepOption) *stats.Statistics {
	t.Helper()
	statistics := stats.New(Description)
	step := NewStep(NewStoreDatabase(f.store), f.metrics, f.measures, f.root, opts...)
	require.NoError(t, step.Execute(context.Background(), statistics))
	require.Equal(t, Committed, step.State())
	return statistics
}

// stored returns the sorted metric keys stored for a component.
func (f *fixture) stored(t *testing.T, componentUUID string) []string {
	t.Helper()
	rows, err := f.store.SelectByComponent(context.Background(), componentUUID)
	require.NoError(t, err)
	keys := []string{}
	for _, lm := range rows {
		keys = append(keys, metricKey(t, lm.MetricUUID))
	}
	sort.Strings(keys)
	return keys
}

// snapshot describes every stored row in traversal order, without
// generated uuids and timestamps.
func (f *fixture) snapshot(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	err := component.Walk(f.root, component.Visitor{
		Fn: func(c *component.Component) error {
			rows, err := f.store.SelectByComponent(context.Background(), c.UUID)
			if err != nil {
				return err
			}
			lines := make([]string, 0, len(rows))
			for _, lm := range rows {
				lines = append(lines, formatRow(t, c, lm))
			}
			sort.Strings(lines)
			for _, line := range lines {
				b.WriteString(line)
				b.WriteByte('\n')
			}
			return nil
		},
	})
	require.NoError(t, err)
	return b.String()
}

func formatRow(t *testing.T, c *component.Component, lm store.LiveMeasure) string {
	fields := []string{c.Key, metricKey(t, lm.MetricUUID)}
	if lm.Value != nil {
		fields = append(fields, fmt.Sprintf("value=%g", *lm.Value))
	}
	if lm.TextValue != nil {
		fields = append(fields, fmt.Sprintf("text=%q", *lm.TextValue))
	}
	if lm.Variation != nil {
		fields = append(fields, fmt.Sprintf("variation=%g", *lm.Variation))
	}
	if lm.Data != nil {
		fields = append(fields, fmt.Sprintf("data=%q", lm.Data))
	}
	return strings.Join(fields, " ")
}

func metricKey(t *testing.T, metricUUID string) string {
	t.Helper()
	for _, m := range metric.Core() {
		if m.UUID == metricUUID {
			return m.Key
		}
	}
	t.Fatalf("no core metric with uuid %s", metricUUID)
	return ""
}

func byUUID(root *component.Component, uuid string) *component.Component {
	var found *component.Component
	_ = component.Walk(root, component.Visitor{Fn: func(c *component.Component) error {
		if c.UUID == uuid {
			found = c
		}
		return nil
	}})
	return found
}

func level(t *testing.T, l string) measure.Measure {
	t.Helper()
	m, err := measure.NewLevel(l)
	require.NoError(t, err)
	return m
}
