package livemeasure

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/lmsync/internal/component"
	"github.com/roach88/lmsync/internal/measure"
	"github.com/roach88/lmsync/internal/metric"
	"github.com/roach88/lmsync/internal/stats"
	"github.com/roach88/lmsync/internal/store"
)

// Description is the human-readable name of the step.
const Description = "Persist live measures"

// StatInsertsOrUpdates is the statistic holding the number of rows written.
const StatInsertsOrUpdates = "insertsOrUpdates"

// Transaction is a Session that can be committed and released.
type Transaction interface {
	Session
	Commit() error
	Close() error
}

// Database is the storage backend of the step.
type Database interface {
	SupportsUpsert(ctx context.Context) (bool, error)
	Begin(ctx context.Context) (Transaction, error)
}

// storeDatabase adapts *store.Store to Database.
type storeDatabase struct {
	store *store.Store
}

// NewStoreDatabase returns a Database backed by s.
func NewStoreDatabase(s *store.Store) Database {
	return storeDatabase{store: s}
}

func (d storeDatabase) SupportsUpsert(ctx context.Context) (bool, error) {
	return d.store.SupportsUpsert(ctx)
}

func (d storeDatabase) Begin(ctx context.Context) (Transaction, error) {
	sess, err := d.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// State is the lifecycle of a Step.
type State int

const (
	NotStarted State = iota
	TraversalInProgress
	Committed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case TraversalInProgress:
		return "TraversalInProgress"
	case Committed:
		return "Committed"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Step persists the live measures of a component tree.
// A Step executes once; create a new one per analysis run.
type Step struct {
	db       Database
	metrics  metric.Repository
	measures measure.Repository
	root     *component.Component

	commitPerComponent bool
	state              State
}

// StepOption configures a Step.
type StepOption func(*Step)

// WithPerComponentCommit controls whether the session is committed after
// each component in addition to the final commit. Default: true.
func WithPerComponentCommit(enabled bool) StepOption {
	return func(s *Step) {
		s.commitPerComponent = enabled
	}
}

// NewStep creates a step over the tree rooted at root.
func NewStep(db Database, metrics metric.Repository, measures measure.Repository, root *component.Component, opts ...StepOption) *Step {
	s := &Step{
		db:                 db,
		metrics:            metrics,
		measures:           measures,
		root:               root,
		commitPerComponent: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Description returns the step name.
func (s *Step) Description() string {
	return Description
}

// State returns the current lifecycle state.
func (s *Step) State() State {
	return s.state
}

// Execute reconciles the stored live measures of every component, commits,
// and reports StatInsertsOrUpdates to statistics.
//
// Any error aborts the execution: uncommitted writes are rolled back and the
// step ends in Failed. Storage errors are returned wrapped, never retried.
func (s *Step) Execute(ctx context.Context, statistics stats.Sink) (err error) {
	if s.state != NotStarted {
		return ErrAlreadyExecuted
	}
	defer func() {
		if err != nil {
			s.state = Failed
		}
	}()

	if s.root == nil {
		return &PreconditionError{Reason: "component tree has no root"}
	}
	if s.root.Type != component.Project {
		return &PreconditionError{Component: s.root.Key, Reason: fmt.Sprintf("tree root is %s, want %s", s.root.Type, component.Project)}
	}

	supportsUpsert, err := s.db.SupportsUpsert(ctx)
	if err != nil {
		return fmt.Errorf("persist live measures: %w", err)
	}
	sync := NewSynchronizer(supportsUpsert)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("persist live measures: %w", err)
	}
	defer func() {
		if closeErr := tx.Close(); closeErr != nil {
			slog.Error("error closing session", "error", closeErr)
		}
	}()

	slog.Info("persisting live measures",
		"project", s.root.Key,
		"write_path", sync.Name(),
	)
	s.state = TraversalInProgress

	var written int64
	var visited int
	err = component.Walk(s.root, component.Visitor{
		Limit: component.Leaves,
		Order: component.PreOrder,
		Fn: func(c *component.Component) error {
			n, err := s.reconcile(ctx, tx, sync, c)
			if err != nil {
				return fmt.Errorf("component %s: %w", c.Key, err)
			}
			if s.commitPerComponent {
				if err := tx.Commit(); err != nil {
					return fmt.Errorf("component %s: %w", c.Key, err)
				}
			}
			written += int64(n)
			visited++
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("persist live measures: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("persist live measures: %w", err)
	}
	statistics.Add(StatInsertsOrUpdates, written)
	s.state = Committed

	slog.Info("live measures persisted",
		"project", s.root.Key,
		"components", visited,
		StatInsertsOrUpdates, written,
	)
	return nil
}

// reconcile writes the kept measures of c and returns how many were kept.
func (s *Step) reconcile(ctx context.Context, sess Session, sync Synchronizer, c *component.Component) (int, error) {
	raw := s.measures.RawMeasures(c)

	// Sorted for a deterministic write order.
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]store.LiveMeasure, 0, len(keys))
	dropped := 0
	for _, key := range keys {
		m, err := s.metrics.ByKey(key)
		if err != nil {
			return 0, &PreconditionError{Component: c.Key, Metric: key, Reason: "unknown metric", Err: err}
		}

		ms := raw[key]
		if decision := Decide(c, m, ms); decision != Keep {
			slog.Debug("measure not persisted", "component", c.Key, "metric", key, "decision", decision)
			dropped++
			continue
		}

		lm, err := ToLiveMeasure(ms, m, c, s.root.UUID)
		if err != nil {
			return 0, err
		}
		records = append(records, lm)
	}

	if err := sync.Sync(ctx, sess, c.UUID, records); err != nil {
		return 0, err
	}

	slog.Debug("component reconciled",
		"component", c.Key,
		"type", c.Type,
		"kept", len(records),
		"dropped", dropped,
	)
	return len(records), nil
}
