package livemeasure

import (
	"fmt"

	"github.com/roach88/lmsync/internal/component"
	"github.com/roach88/lmsync/internal/measure"
	"github.com/roach88/lmsync/internal/metric"
	"github.com/roach88/lmsync/internal/store"
)

// ToLiveMeasure converts a kept measure into the row stored for it.
//
// Numeric values go to Value, String and Level values to TextValue. The data
// payload is stored as bytes. A measure whose value type does not match its
// metric's type is a PreconditionError; NoValue measures match any metric.
func ToLiveMeasure(ms measure.Measure, m metric.Metric, c *component.Component, projectUUID string) (store.LiveMeasure, error) {
	want, err := measure.ValueTypeFor(m.Type)
	if err != nil {
		return store.LiveMeasure{}, &PreconditionError{Component: c.Key, Metric: m.Key, Reason: "unsupported metric type", Err: err}
	}
	if ms.ValueType != measure.NoValue && ms.ValueType != want {
		return store.LiveMeasure{}, &PreconditionError{
			Component: c.Key,
			Metric:    m.Key,
			Reason:    fmt.Sprintf("measure value type %s does not match metric type %s", ms.ValueType, m.Type),
		}
	}

	lm := store.LiveMeasure{
		ProjectUUID:   projectUUID,
		ComponentUUID: c.UUID,
		MetricUUID:    m.UUID,
	}

	switch {
	case ms.ValueType.IsNumeric():
		v := ms.Value
		lm.Value = &v
	case ms.ValueType == measure.String || ms.ValueType == measure.Level:
		text := ms.Text
		lm.TextValue = &text
	}

	if ms.HasVariation() {
		v := *ms.Variation
		lm.Variation = &v
	}
	if ms.HasData() {
		lm.Data = []byte(ms.Data)
	}
	return lm, nil
}
