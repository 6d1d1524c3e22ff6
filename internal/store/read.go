package store

import (
	"context"
	"database/sql"
	"fmt"
)

const selectColumns = `uuid, project_uuid, component_uuid, metric_uuid, value, text_value, variation, measure_data, created_at, updated_at`

// SelectByComponent returns the live measures of a component ordered by
// metric_uuid. Returns an empty slice (not nil) when there are none.
func (s *Store) SelectByComponent(ctx context.Context, componentUUID string) ([]LiveMeasure, error) {
	return s.selectLiveMeasures(ctx, `
		SELECT `+selectColumns+`
		FROM live_measures
		WHERE component_uuid = ?
		ORDER BY metric_uuid COLLATE BINARY ASC
	`, componentUUID)
}

// SelectByProject returns every live measure of a project ordered by
// component_uuid, then metric_uuid.
func (s *Store) SelectByProject(ctx context.Context, projectUUID string) ([]LiveMeasure, error) {
	return s.selectLiveMeasures(ctx, `
		SELECT `+selectColumns+`
		FROM live_measures
		WHERE project_uuid = ?
		ORDER BY component_uuid COLLATE BINARY ASC, metric_uuid COLLATE BINARY ASC
	`, projectUUID)
}

// Count returns the number of live measures in the store.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM live_measures`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count live measures: %w", err)
	}
	return n, nil
}

func (s *Store) selectLiveMeasures(ctx context.Context, query string, args ...any) ([]LiveMeasure, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query live measures: %w", err)
	}
	defer rows.Close()

	measures := []LiveMeasure{}
	for rows.Next() {
		lm, err := scanLiveMeasure(rows)
		if err != nil {
			return nil, err
		}
		measures = append(measures, lm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate live measures: %w", err)
	}
	return measures, nil
}

func scanLiveMeasure(rows *sql.Rows) (LiveMeasure, error) {
	var (
		lm        LiveMeasure
		value     sql.NullFloat64
		textValue sql.NullString
		variation sql.NullFloat64
		data      []byte
	)
	err := rows.Scan(
		&lm.UUID,
		&lm.ProjectUUID,
		&lm.ComponentUUID,
		&lm.MetricUUID,
		&value,
		&textValue,
		&variation,
		&data,
		&lm.CreatedAt,
		&lm.UpdatedAt,
	)
	if err != nil {
		return LiveMeasure{}, fmt.Errorf("scan live measure: %w", err)
	}

	if value.Valid {
		lm.Value = &value.Float64
	}
	if textValue.Valid {
		lm.TextValue = &textValue.String
	}
	if variation.Valid {
		lm.Variation = &variation.Float64
	}
	lm.Data = data
	return lm, nil
}
