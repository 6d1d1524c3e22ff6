package livemeasure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lmsync/internal/component"
	"github.com/roach88/lmsync/internal/measure"
	"github.com/roach88/lmsync/internal/metric"
	"github.com/roach88/lmsync/internal/stats"
	"github.com/roach88/lmsync/internal/store"
)

func TestExecute_ReplacesStaleMetrics(t *testing.T) {
	for _, mode := range upsertModes {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, mode)
			d := byUUID(f.root, "d")

			f.measures.Add(d.UUID, metric.Ncloc, measure.NewInt(10))
			f.measures.Add(d.UUID, metric.Complexity, measure.NewInt(3))
			f.run(t)
			assert.Equal(t, []string{metric.Complexity, metric.Ncloc}, f.stored(t, "d"))

			f.measures.Remove(d.UUID, metric.Ncloc)
			f.measures.Add(d.UUID, metric.Violations, measure.NewInt(4))
			f.run(t)
			assert.Equal(t, []string{metric.Complexity, metric.Violations}, f.stored(t, "d"))
		})
	}
}

func TestExecute_ExactSetPerComponent(t *testing.T) {
	for _, mode := range upsertModes {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, mode)
			f1 := byUUID(f.root, "f1")

			f.measures.Add(f1.UUID, metric.Ncloc, measure.NewInt(80))
			f.measures.Add(f1.UUID, metric.Coverage, measure.NewDouble(100))
			f.measures.Add(f1.UUID, metric.FunctionComplexityDistribution, measure.NewString("1=3"))
			f.measures.Add(f1.UUID, metric.LinesToCover, measure.NewNoValue())
			f.measures.Add(f1.UUID, metric.Violations, measure.NewInt(2))
			f.run(t)

			assert.Equal(t, []string{metric.Ncloc, metric.Violations}, f.stored(t, "f1"))
			assert.Empty(t, f.stored(t, "f2"))
			assert.Empty(t, f.stored(t, "p"))
		})
	}
}

func TestExecute_ComponentWithoutMeasuresIsCleared(t *testing.T) {
	for _, mode := range upsertModes {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, mode)
			f2 := byUUID(f.root, "f2")

			f.measures.Add(f2.UUID, metric.Ncloc, measure.NewInt(40))
			f.run(t)
			require.Len(t, f.stored(t, "f2"), 1)

			f.measures.Remove(f2.UUID, metric.Ncloc)
			f.run(t)
			assert.Empty(t, f.stored(t, "f2"))
		})
	}
}

func TestExecute_BestValueRemovesExistingRow(t *testing.T) {
	for _, mode := range upsertModes {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, mode)
			f1 := byUUID(f.root, "f1")

			f.measures.Add(f1.UUID, metric.Coverage, measure.NewDouble(80))
			f.run(t)
			assert.Equal(t, []string{metric.Coverage}, f.stored(t, "f1"))

			f.measures.Add(f1.UUID, metric.Coverage, measure.NewDouble(100))
			f.run(t)
			assert.Empty(t, f.stored(t, "f1"))
		})
	}
}

func TestExecute_BestValueKeptOnNonFiles(t *testing.T) {
	for _, mode := range upsertModes {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, mode)

			f.measures.Add("d", metric.Coverage, measure.NewDouble(100))
			f.measures.Add("m", metric.Violations, measure.NewInt(0))
			f.run(t)

			assert.Equal(t, []string{metric.Coverage}, f.stored(t, "d"))
			assert.Equal(t, []string{metric.Violations}, f.stored(t, "m"))
		})
	}
}

func TestExecute_InsertsOrUpdatesStatistic(t *testing.T) {
	for _, mode := range upsertModes {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, mode)
			f1 := byUUID(f.root, "f1")

			f.measures.Add(f.root.UUID, metric.Ncloc, measure.NewInt(120))
			f.measures.Add(f1.UUID, metric.Ncloc, measure.NewInt(80))
			f.measures.Add(f1.UUID, metric.Coverage, measure.NewDouble(100))
			f.measures.Add(f1.UUID, metric.LinesToCover, measure.NewNoValue())

			statistics := f.run(t)
			n, ok := statistics.Get(StatInsertsOrUpdates)
			require.True(t, ok)
			assert.Equal(t, int64(2), n)
		})
	}
}

func TestExecute_Idempotent(t *testing.T) {
	for _, mode := range upsertModes {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, mode)
			seedTree(f)

			f.run(t)
			first := f.snapshot(t)

			f.clock.Advance(time.Hour)
			f.run(t)
			assert.Equal(t, first, f.snapshot(t))
		})
	}
}

func TestExecute_UpsertLeavesUnchangedRowsUntouched(t *testing.T) {
	f := newFixture(t, store.UpsertAlways)
	d := byUUID(f.root, "d")
	f.measures.Add(d.UUID, metric.Ncloc, measure.NewInt(10))
	f.measures.Add(d.UUID, metric.Complexity, measure.NewInt(3))
	f.run(t)

	before, err := f.store.SelectByComponent(context.Background(), "d")
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	f.measures.Add(d.UUID, metric.Complexity, measure.NewInt(5))
	f.run(t)

	after, err := f.store.SelectByComponent(context.Background(), "d")
	require.NoError(t, err)
	require.Len(t, after, 2)

	for i := range after {
		assert.Equal(t, before[i].UUID, after[i].UUID, "row identity is kept")
		assert.Equal(t, before[i].CreatedAt, after[i].CreatedAt)
		switch metricKey(t, after[i].MetricUUID) {
		case metric.Ncloc:
			assert.Equal(t, before[i].UpdatedAt, after[i].UpdatedAt, "unchanged row is not rewritten")
		case metric.Complexity:
			assert.Equal(t, f.clock.Now().UnixMilli(), after[i].UpdatedAt)
			assert.Equal(t, 5.0, *after[i].Value)
		}
	}
}

func TestExecute_BackendsAgree(t *testing.T) {
	snapshots := map[store.UpsertMode]string{}
	for _, mode := range upsertModes {
		f := newFixture(t, mode)
		seedTree(f)
		f.run(t)

		// second run with changes exercises the replace paths
		d := byUUID(f.root, "d")
		f.measures.Remove(d.UUID, metric.Complexity)
		f.measures.Add(d.UUID, metric.Violations, measure.NewInt(9))
		f.run(t)

		snapshots[mode] = f.snapshot(t)
	}
	assert.Equal(t, snapshots[store.UpsertAlways], snapshots[store.UpsertNever])
}

func TestExecute_UnknownMetricFails(t *testing.T) {
	f := newFixture(t, store.UpsertAlways)
	f.measures.Add("f1", metric.Ncloc, measure.NewInt(80))
	f.measures.Add("f2", "no_such_metric", measure.NewInt(1))
	f.measures.Add("f2", metric.Ncloc, measure.NewInt(40))

	step := NewStep(NewStoreDatabase(f.store), f.metrics, f.measures, f.root)
	err := step.Execute(context.Background(), stats.New(Description))

	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
	assert.Contains(t, err.Error(), "no_such_metric")
	assert.Contains(t, err.Error(), "proj:core/src/b.go")
	assert.Equal(t, Failed, step.State())
	assert.Empty(t, f.stored(t, "f2"), "failing component is rolled back")
}

func TestExecute_TypeMismatchFails(t *testing.T) {
	f := newFixture(t, store.UpsertNever)
	f.measures.Add(f.root.UUID, metric.Coverage, measure.NewString("85%"))

	step := NewStep(NewStoreDatabase(f.store), f.metrics, f.measures, f.root)
	err := step.Execute(context.Background(), stats.New(Description))

	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, Failed, step.State())
}

func TestExecute_RunsOnce(t *testing.T) {
	f := newFixture(t, store.UpsertAlways)
	step := NewStep(NewStoreDatabase(f.store), f.metrics, f.measures, f.root)

	require.NoError(t, step.Execute(context.Background(), stats.New(Description)))
	assert.ErrorIs(t, step.Execute(context.Background(), stats.New(Description)), ErrAlreadyExecuted)
	assert.Equal(t, Committed, step.State())
}

func TestExecute_InvalidRoot(t *testing.T) {
	f := newFixture(t, store.UpsertAlways)

	tests := []struct {
		name string
		root *component.Component
	}{
		{"nil root", nil},
		{"directory root", byUUID(f.root, "d")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := NewStep(NewStoreDatabase(f.store), f.metrics, f.measures, tt.root)
			err := step.Execute(context.Background(), stats.New(Description))
			assert.ErrorIs(t, err, ErrPrecondition)
			assert.Equal(t, Failed, step.State())
		})
	}
}

func TestExecute_StorageErrorPropagates(t *testing.T) {
	boom := errors.New("database is locked")

	tests := []struct {
		name           string
		supportsUpsert bool
		failOn         string
	}{
		{"upsert", true, "upsert"},
		{"delete", false, "delete"},
		{"commit", true, "commit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, store.UpsertAlways)
			f.measures.Add("f1", metric.Ncloc, measure.NewInt(80))

			sess := &recordingSession{failOn: tt.failOn, err: boom}
			db := &fakeDatabase{supportsUpsert: tt.supportsUpsert, sess: sess}
			step := NewStep(db, f.metrics, f.measures, f.root)

			err := step.Execute(context.Background(), stats.New(Description))
			assert.ErrorIs(t, err, boom)
			assert.False(t, IsPrecondition(err))
			assert.Equal(t, Failed, step.State())
			assert.True(t, sess.closed, "session is released on failure")
		})
	}
}

func TestExecute_ProbeAndBeginErrors(t *testing.T) {
	boom := errors.New("no connection")
	f := newFixture(t, store.UpsertAlways)

	step := NewStep(&fakeDatabase{probeErr: boom}, f.metrics, f.measures, f.root)
	assert.ErrorIs(t, step.Execute(context.Background(), stats.New(Description)), boom)

	step = NewStep(&fakeDatabase{beginErr: boom}, f.metrics, f.measures, f.root)
	assert.ErrorIs(t, step.Execute(context.Background(), stats.New(Description)), boom)
	assert.Equal(t, Failed, step.State())
}

func TestExecute_CommitCadence(t *testing.T) {
	f := newFixture(t, store.UpsertAlways)

	sess := &recordingSession{}
	step := NewStep(&fakeDatabase{supportsUpsert: true, sess: sess}, f.metrics, f.measures, f.root)
	require.NoError(t, step.Execute(context.Background(), stats.New(Description)))
	// five components plus the final commit
	assert.Equal(t, 6, sess.commits)

	sess = &recordingSession{}
	step = NewStep(&fakeDatabase{supportsUpsert: true, sess: sess}, f.metrics, f.measures, f.root,
		WithPerComponentCommit(false))
	require.NoError(t, step.Execute(context.Background(), stats.New(Description)))
	assert.Equal(t, 1, sess.commits)
}

func TestExecute_VisitsEveryComponentOnce(t *testing.T) {
	f := newFixture(t, store.UpsertAlways)

	sess := &recordingSession{}
	step := NewStep(&fakeDatabase{supportsUpsert: true, sess: sess}, f.metrics, f.measures, f.root,
		WithPerComponentCommit(false))
	require.NoError(t, step.Execute(context.Background(), stats.New(Description)))

	assert.Equal(t, []string{
		"delete p except []",
		"delete m except []",
		"delete d except []",
		"delete f1 except []",
		"delete f2 except []",
		"commit",
	}, sess.calls)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "NotStarted", NotStarted.String())
	assert.Equal(t, "Committed", Committed.String())
	assert.Equal(t, "State(9)", State(9).String())
}

// seedTree adds measures to every component of the fixture tree.
func seedTree(f *fixture) {
	p := f.root
	m := byUUID(p, "m")
	d := byUUID(p, "d")
	f1 := byUUID(p, "f1")
	f2 := byUUID(p, "f2")

	f.measures.Add(p.UUID, metric.Ncloc, measure.NewInt(120))
	f.measures.Add(p.UUID, metric.Coverage, measure.NewDouble(85.5))
	alert, _ := measure.NewLevel(measure.LevelOK)
	f.measures.Add(p.UUID, metric.AlertStatus, alert)
	f.measures.Add(p.UUID, metric.QualityGateDetails, measure.NewString(`{"level":"OK"}`))

	f.measures.Add(m.UUID, metric.Ncloc, measure.NewInt(120))
	f.measures.Add(m.UUID, metric.Violations, measure.NewInt(0))

	f.measures.Add(d.UUID, metric.Ncloc, measure.NewInt(120))
	f.measures.Add(d.UUID, metric.FileComplexityDistribution, measure.NewString("1=2;5=0"))
	f.measures.Add(d.UUID, metric.Complexity, measure.NewInt(7))

	f.measures.Add(f1.UUID, metric.Ncloc, measure.NewInt(80))
	f.measures.Add(f1.UUID, metric.Coverage, measure.NewDouble(100))
	f.measures.Add(f1.UUID, metric.UncoveredLines, measure.NewInt(0))
	f.measures.Add(f1.UUID, metric.Violations, measure.NewInt(2).WithVariation(1))
	f.measures.Add(f1.UUID, metric.FunctionComplexityDistribution, measure.NewString("1=3"))
	f.measures.Add(f1.UUID, metric.LinesToCover, measure.NewNoValue())
	f.measures.Add(f1.UUID, metric.TechnicalDebt, measure.NewLong(0).WithVariation(0))

	f.measures.Add(f2.UUID, metric.Ncloc, measure.NewInt(40))
	f.measures.Add(f2.UUID, metric.Coverage, measure.NewDouble(50).WithVariation(-10))
	f.measures.Add(f2.UUID, metric.DuplicatedLines, measure.NewNoValue().WithData("blocks"))
	f.measures.Add(f2.UUID, metric.ReliabilityRating, measure.NewInt(1))
	f.measures.Add(f2.UUID, metric.SecurityRating, measure.NewInt(3))
}

// fakeDatabase hands out a recordingSession.
type fakeDatabase struct {
	supportsUpsert bool
	sess           *recordingSession
	probeErr       error
	beginErr       error
}

func (d *fakeDatabase) SupportsUpsert(context.Context) (bool, error) {
	return d.supportsUpsert, d.probeErr
}

func (d *fakeDatabase) Begin(context.Context) (Transaction, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.sess, nil
}
