package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// fixedTime is the clock used by test stores.
var fixedTime = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{
		WithIDGenerator(NewSequenceGenerator("lm")),
		WithClock(func() time.Time { return fixedTime }),
	}, opts...)
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession opens a session closed at test cleanup.
func createTestSession(t *testing.T, s *Store) *Session {
	t.Helper()
	sess, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func float(v float64) *float64 { return &v }

func text(v string) *string { return &v }

// numeric builds a live measure with a numeric value.
func numeric(component, metric string, v float64) LiveMeasure {
	return LiveMeasure{
		ProjectUUID:   "proj",
		ComponentUUID: component,
		MetricUUID:    metric,
		Value:         float(v),
	}
}

// metricsOf returns the metric UUIDs stored for a component.
func metricsOf(t *testing.T, s *Store, component string) []string {
	t.Helper()
	measures, err := s.SelectByComponent(context.Background(), component)
	if err != nil {
		t.Fatalf("SelectByComponent() failed: %v", err)
	}
	out := []string{}
	for _, lm := range measures {
		out = append(out, lm.MetricUUID)
	}
	return out
}
