// Package measure holds computed measure values and the predicates that
// decide whether a value is worth storing.
package measure

import (
	"fmt"

	"github.com/roach88/lmsync/internal/metric"
)

// ValueType is the kind of value a Measure carries.
type ValueType int

const (
	NoValue ValueType = iota
	Boolean
	Int
	Long
	Double
	String
	Level
)

func (v ValueType) String() string {
	switch v {
	case NoValue:
		return "NO_VALUE"
	case Boolean:
		return "BOOLEAN"
	case Int:
		return "INT"
	case Long:
		return "LONG"
	case Double:
		return "DOUBLE"
	case String:
		return "STRING"
	case Level:
		return "LEVEL"
	default:
		return fmt.Sprintf("ValueType(%d)", int(v))
	}
}

// IsNumeric reports whether the value is held in Measure.Value.
func (v ValueType) IsNumeric() bool {
	switch v {
	case Boolean, Int, Long, Double:
		return true
	}
	return false
}

// ValueTypeFor returns the value type measures of a metric type must carry.
func ValueTypeFor(t metric.Type) (ValueType, error) {
	switch t {
	case metric.TypeInt, metric.TypeRating:
		return Int, nil
	case metric.TypeMillisec, metric.TypeWorkDur:
		return Long, nil
	case metric.TypeFloat, metric.TypePercent:
		return Double, nil
	case metric.TypeBool:
		return Boolean, nil
	case metric.TypeString, metric.TypeData, metric.TypeDistrib:
		return String, nil
	case metric.TypeLevel:
		return Level, nil
	default:
		return NoValue, fmt.Errorf("no value type for metric type %q", t)
	}
}

// Level values accepted by Level measures.
const (
	LevelOK    = "OK"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Measure is a value computed for one (component, metric) pair.
// Measures are built upstream and never mutated by steps.
type Measure struct {
	ValueType ValueType

	// Value holds Boolean (0 or 1), Int, Long and Double values.
	Value float64

	// Text holds String and Level values.
	Text string

	// Variation is the change since the previous analysis, if computed.
	Variation *float64

	// Data is an optional structured payload. Empty means no data.
	Data string
}

// HasVariation reports whether a variation was computed.
func (m Measure) HasVariation() bool {
	return m.Variation != nil
}

// HasData reports whether the measure carries a data payload.
func (m Measure) HasData() bool {
	return m.Data != ""
}

// Bool returns the Boolean value.
func (m Measure) Bool() bool {
	return m.Value != 0
}

// WithVariation returns a copy of m with the given variation.
func (m Measure) WithVariation(v float64) Measure {
	m.Variation = &v
	return m
}

// WithData returns a copy of m with the given data payload.
func (m Measure) WithData(data string) Measure {
	m.Data = data
	return m
}

// NewNoValue returns a measure without a value.
func NewNoValue() Measure { return Measure{ValueType: NoValue} }

// NewBool returns a Boolean measure.
func NewBool(b bool) Measure {
	v := 0.0
	if b {
		v = 1
	}
	return Measure{ValueType: Boolean, Value: v}
}

// NewInt returns an Int measure.
func NewInt(v int32) Measure { return Measure{ValueType: Int, Value: float64(v)} }

// NewLong returns a Long measure.
func NewLong(v int64) Measure { return Measure{ValueType: Long, Value: float64(v)} }

// NewDouble returns a Double measure.
func NewDouble(v float64) Measure { return Measure{ValueType: Double, Value: v} }

// NewString returns a String measure.
func NewString(s string) Measure { return Measure{ValueType: String, Text: s} }

// NewLevel returns a Level measure. level must be one of LevelOK, LevelWarn
// or LevelError.
func NewLevel(level string) (Measure, error) {
	switch level {
	case LevelOK, LevelWarn, LevelError:
		return Measure{ValueType: Level, Text: level}, nil
	}
	return Measure{}, fmt.Errorf("invalid level %q", level)
}
