package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// LiveMeasure is a stored measure value of one metric on one component.
type LiveMeasure struct {
	UUID          string
	ProjectUUID   string
	ComponentUUID string
	MetricUUID    string
	Value         *float64
	TextValue     *string
	Variation     *float64
	Data          []byte
	CreatedAt     int64 // unix millis
	UpdatedAt     int64 // unix millis
}

// Session groups writes in a transaction.
//
// The transaction starts on the first write and ends with Commit, after which
// the next write starts a new one. Close rolls back whatever was not
// committed. A Session is not safe for concurrent use.
type Session struct {
	store  *Store
	tx     *sql.Tx
	closed bool
}

func (s *Session) begin(ctx context.Context) (*sql.Tx, error) {
	if s.closed {
		return nil, fmt.Errorf("session is closed")
	}
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// Commit commits pending writes. Committing with nothing pending is a no-op.
func (s *Session) Commit() error {
	if s.closed {
		return fmt.Errorf("commit: session is closed")
	}
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close rolls back uncommitted writes and releases the session.
// Safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Upsert inserts the live measure or updates the existing row with the same
// (component_uuid, metric_uuid). A row whose value columns are unchanged is
// not rewritten. Returns the number of rows written (0 or 1).
//
// On update the existing uuid and created_at are kept.
func (s *Session) Upsert(ctx context.Context, lm LiveMeasure) (int64, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("upsert live measure: %w", err)
	}

	now := s.store.now().UnixMilli()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO live_measures
		(uuid, project_uuid, component_uuid, metric_uuid, value, text_value, variation, measure_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(component_uuid, metric_uuid) DO UPDATE SET
			project_uuid = excluded.project_uuid,
			value = excluded.value,
			text_value = excluded.text_value,
			variation = excluded.variation,
			measure_data = excluded.measure_data,
			updated_at = excluded.updated_at
		WHERE live_measures.value IS NOT excluded.value
			OR live_measures.text_value IS NOT excluded.text_value
			OR live_measures.variation IS NOT excluded.variation
			OR live_measures.measure_data IS NOT excluded.measure_data
			OR live_measures.project_uuid IS NOT excluded.project_uuid
	`,
		s.store.ids.Generate(),
		lm.ProjectUUID,
		lm.ComponentUUID,
		lm.MetricUUID,
		nullableFloat(lm.Value),
		nullableString(lm.TextValue),
		nullableFloat(lm.Variation),
		nullableBytes(lm.Data),
		now,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert live measure: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("upsert live measure: rows affected: %w", err)
	}
	return n, nil
}

// Insert inserts a new row. It fails if a row already exists for the same
// (component_uuid, metric_uuid).
func (s *Session) Insert(ctx context.Context, lm LiveMeasure) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("insert live measure: %w", err)
	}

	now := s.store.now().UnixMilli()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO live_measures
		(uuid, project_uuid, component_uuid, metric_uuid, value, text_value, variation, measure_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.store.ids.Generate(),
		lm.ProjectUUID,
		lm.ComponentUUID,
		lm.MetricUUID,
		nullableFloat(lm.Value),
		nullableString(lm.TextValue),
		nullableFloat(lm.Variation),
		nullableBytes(lm.Data),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert live measure: %w", err)
	}
	return nil
}

// DeleteByComponent deletes every live measure of the component.
func (s *Session) DeleteByComponent(ctx context.Context, componentUUID string) (int64, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete live measures: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM live_measures WHERE component_uuid = ?`, componentUUID)
	if err != nil {
		return 0, fmt.Errorf("delete live measures: %w", err)
	}
	return result.RowsAffected()
}

// DeleteByComponentExcludingMetrics deletes the live measures of the
// component whose metric is not in metricUUIDs. An empty metricUUIDs deletes
// every live measure of the component.
func (s *Session) DeleteByComponentExcludingMetrics(ctx context.Context, componentUUID string, metricUUIDs []string) (int64, error) {
	if len(metricUUIDs) == 0 {
		return s.DeleteByComponent(ctx, componentUUID)
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete live measures: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(metricUUIDs)), ", ")
	args := make([]any, 0, len(metricUUIDs)+1)
	args = append(args, componentUUID)
	for _, id := range metricUUIDs {
		args = append(args, id)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM live_measures WHERE component_uuid = ? AND metric_uuid NOT IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete live measures: %w", err)
	}
	return result.RowsAffected()
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableBytes(v []byte) any {
	if v == nil {
		return nil
	}
	return v
}
