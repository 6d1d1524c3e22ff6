// Package metric holds metric definitions and the repository steps use to
// resolve a metric key into its definition.
package metric

import (
	"errors"
	"fmt"
	"strings"
)

// Type is the declared data type of a metric.
type Type string

const (
	TypeInt      Type = "INT"
	TypeFloat    Type = "FLOAT"
	TypePercent  Type = "PERCENT"
	TypeBool     Type = "BOOL"
	TypeString   Type = "STRING"
	TypeMillisec Type = "MILLISEC"
	TypeData     Type = "DATA"
	TypeDistrib  Type = "DISTRIB"
	TypeLevel    Type = "LEVEL"
	TypeWorkDur  Type = "WORK_DUR"
	TypeRating   Type = "RATING"
)

var knownTypes = []Type{
	TypeInt, TypeFloat, TypePercent, TypeBool, TypeString, TypeMillisec,
	TypeData, TypeDistrib, TypeLevel, TypeWorkDur, TypeRating,
}

// ParseType converts a type name (case-insensitive) to a Type.
func ParseType(s string) (Type, error) {
	want := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range knownTypes {
		if t == want {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown metric type %q", s)
}

// Metric is the definition of a measurable property.
type Metric struct {
	UUID string
	Key  string
	Type Type

	// BestValue is the value implied by the absence of a measure, if any.
	BestValue *float64

	// BestValueOptimized allows measures equal to BestValue to be skipped
	// on files instead of stored.
	BestValueOptimized bool
}

// HasBestValue reports whether the metric defines a best value.
func (m Metric) HasBestValue() bool {
	return m.BestValue != nil
}

// ErrNotFound is returned by repositories when no metric has the key.
var ErrNotFound = errors.New("metric not found")

// Repository resolves metric definitions.
type Repository interface {
	// ByKey returns the metric with the given key or an error wrapping ErrNotFound.
	ByKey(key string) (Metric, error)
}

// MapRepository is an in-memory Repository.
type MapRepository struct {
	byKey map[string]Metric
}

// NewMapRepository builds a repository from metrics. Later entries replace
// earlier ones with the same key.
func NewMapRepository(metrics ...Metric) *MapRepository {
	r := &MapRepository{byKey: make(map[string]Metric, len(metrics))}
	for _, m := range metrics {
		r.byKey[m.Key] = m
	}
	return r
}

// Add registers or replaces a metric.
func (r *MapRepository) Add(m Metric) {
	r.byKey[m.Key] = m
}

// ByKey implements Repository.
func (r *MapRepository) ByKey(key string) (Metric, error) {
	m, ok := r.byKey[key]
	if !ok {
		return Metric{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return m, nil
}

// Len returns the number of registered metrics.
func (r *MapRepository) Len() int {
	return len(r.byKey)
}
