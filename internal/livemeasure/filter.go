package livemeasure

import (
	"github.com/roach88/lmsync/internal/component"
	"github.com/roach88/lmsync/internal/measure"
	"github.com/roach88/lmsync/internal/metric"
)

// Decision is the outcome of the filter for one measure.
type Decision int

const (
	Keep Decision = iota
	DropOnFile
	DropBestValue
	DropEmpty
)

func (d Decision) String() string {
	switch d {
	case Keep:
		return "keep"
	case DropOnFile:
		return "drop:file-excluded"
	case DropBestValue:
		return "drop:best-value"
	case DropEmpty:
		return "drop:empty"
	default:
		return "unknown"
	}
}

// notPersistedOnFiles holds metrics that are redundant at file granularity.
var notPersistedOnFiles = map[string]struct{}{
	metric.FileComplexityDistribution:     {},
	metric.FunctionComplexityDistribution: {},
}

// Decide runs the filter rules in order and returns the first drop, or Keep.
func Decide(c *component.Component, m metric.Metric, ms measure.Measure) Decision {
	if c.Type == component.File {
		if _, excluded := notPersistedOnFiles[m.Key]; excluded {
			return DropOnFile
		}
	}
	if measure.BestValueOptimization(m, c)(ms) {
		return DropBestValue
	}
	if !measure.NonEmpty(ms) {
		return DropEmpty
	}
	return Keep
}

// ShouldPersist reports whether the measure of m on c must be stored.
func ShouldPersist(c *component.Component, m metric.Metric, ms measure.Measure) bool {
	return Decide(c, m, ms) == Keep
}
