package livemeasure

import (
	"context"
	"fmt"

	"github.com/roach88/lmsync/internal/store"
)

// Session is the part of a store session the synchronizers write through.
// *store.Session implements it.
type Session interface {
	Upsert(ctx context.Context, lm store.LiveMeasure) (int64, error)
	Insert(ctx context.Context, lm store.LiveMeasure) error
	DeleteByComponent(ctx context.Context, componentUUID string) (int64, error)
	DeleteByComponentExcludingMetrics(ctx context.Context, componentUUID string, metricUUIDs []string) (int64, error)
}

// Synchronizer makes the stored rows of one component equal to records.
// records all belong to componentUUID and have distinct metrics.
type Synchronizer interface {
	Sync(ctx context.Context, sess Session, componentUUID string, records []store.LiveMeasure) error
	Name() string
}

// NewSynchronizer picks the write path for a backend.
func NewSynchronizer(supportsUpsert bool) Synchronizer {
	if supportsUpsert {
		return UpsertSynchronizer{}
	}
	return DeleteInsertSynchronizer{}
}

// UpsertSynchronizer upserts every record, then deletes the component's
// rows for metrics not among the records.
type UpsertSynchronizer struct{}

func (UpsertSynchronizer) Name() string { return "upsert" }

// Sync implements Synchronizer.
func (UpsertSynchronizer) Sync(ctx context.Context, sess Session, componentUUID string, records []store.LiveMeasure) error {
	metricUUIDs := make([]string, 0, len(records))
	for _, lm := range records {
		if _, err := sess.Upsert(ctx, lm); err != nil {
			return err
		}
		metricUUIDs = append(metricUUIDs, lm.MetricUUID)
	}

	// Rows of metrics that stopped being reported, e.g. coverage of a file
	// reaching its best value, are removed here.
	if _, err := sess.DeleteByComponentExcludingMetrics(ctx, componentUUID, metricUUIDs); err != nil {
		return fmt.Errorf("delete stale live measures: %w", err)
	}
	return nil
}

// DeleteInsertSynchronizer deletes every row of the component, then inserts
// the records. Between the two phases the component has no rows.
type DeleteInsertSynchronizer struct{}

func (DeleteInsertSynchronizer) Name() string { return "delete-insert" }

// Sync implements Synchronizer.
func (DeleteInsertSynchronizer) Sync(ctx context.Context, sess Session, componentUUID string, records []store.LiveMeasure) error {
	if _, err := sess.DeleteByComponent(ctx, componentUUID); err != nil {
		return err
	}
	for _, lm := range records {
		if err := sess.Insert(ctx, lm); err != nil {
			return err
		}
	}
	return nil
}
