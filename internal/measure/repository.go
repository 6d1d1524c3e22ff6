package measure

import "github.com/roach88/lmsync/internal/component"

// Repository supplies the raw measures computed for a component.
type Repository interface {
	// RawMeasures returns the measures of c keyed by metric key.
	// A component without measures yields an empty map.
	RawMeasures(c *component.Component) map[string]Measure
}

// MapRepository is an in-memory Repository keyed by component UUID.
type MapRepository struct {
	byComponent map[string]map[string]Measure
}

// NewMapRepository returns an empty repository.
func NewMapRepository() *MapRepository {
	return &MapRepository{byComponent: make(map[string]map[string]Measure)}
}

// Add sets the measure of metricKey on the component with componentUUID.
func (r *MapRepository) Add(componentUUID, metricKey string, m Measure) {
	measures, ok := r.byComponent[componentUUID]
	if !ok {
		measures = make(map[string]Measure)
		r.byComponent[componentUUID] = measures
	}
	measures[metricKey] = m
}

// Remove deletes the measure of metricKey on the component, if any.
func (r *MapRepository) Remove(componentUUID, metricKey string) {
	delete(r.byComponent[componentUUID], metricKey)
}

// RawMeasures implements Repository. The returned map is a copy.
func (r *MapRepository) RawMeasures(c *component.Component) map[string]Measure {
	measures := r.byComponent[c.UUID]
	out := make(map[string]Measure, len(measures))
	for k, m := range measures {
		out[k] = m
	}
	return out
}
