package measure

import (
	"github.com/roach88/lmsync/internal/component"
	"github.com/roach88/lmsync/internal/metric"
)

// Predicate decides something about a measure.
type Predicate func(Measure) bool

// never is returned when best value optimization does not apply.
func never(Measure) bool { return false }

// BestValueOptimization returns a predicate that is true for measures whose
// value is the metric's best value and therefore need not be stored.
//
// It only applies to files and to metrics flagged as best-value-optimized
// with a best value; otherwise it never matches. A measure carrying a data
// payload or a non-zero variation is never considered best.
func BestValueOptimization(m metric.Metric, c *component.Component) Predicate {
	if !m.BestValueOptimized || !m.HasBestValue() || c.Type != component.File {
		return never
	}
	bestValue := *m.BestValue
	return func(ms Measure) bool {
		if ms.HasData() {
			return false
		}
		if ms.HasVariation() && *ms.Variation != 0 {
			return false
		}
		return isBestValue(ms, bestValue)
	}
}

func isBestValue(ms Measure, bestValue float64) bool {
	switch ms.ValueType {
	case Boolean:
		return (int(bestValue) == 1) == ms.Bool()
	case Int:
		return int32(bestValue) == int32(ms.Value)
	case Long:
		return int64(bestValue) == int64(ms.Value)
	case Double:
		return bestValue == ms.Value
	default:
		return false
	}
}

// NonEmpty is true when the measure has a value, a variation or a data
// payload.
func NonEmpty(ms Measure) bool {
	return ms.ValueType != NoValue || ms.HasVariation() || ms.HasData()
}
