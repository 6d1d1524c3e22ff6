package report

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/lmsync/internal/component"
	"github.com/roach88/lmsync/internal/measure"
	"github.com/roach88/lmsync/internal/metric"
)

var componentNamespace = uuid.MustParse("0b7a4f3e-8c1d-4e52-a9f0-3d6c2b1e7a95")

// ComponentUUID is the UUID given to a component whose report entry has
// none.
func ComponentUUID(key string) string {
	return uuid.NewSHA1(componentNamespace, []byte(key)).String()
}

// Build turns a decoded document into an Analysis. Component and metric keys
// are normalized to NFC.
func Build(doc *Document) (*Analysis, error) {
	metrics := metric.NewCoreRepository()
	for _, def := range doc.Metrics {
		m, err := def.metric()
		if err != nil {
			return nil, err
		}
		if _, err := metrics.ByKey(m.Key); err == nil {
			return nil, &LoadError{Code: ErrCodeMetric, Message: fmt.Sprintf("metric %q is already defined", m.Key)}
		}
		metrics.Add(m)
	}

	b := &builder{metrics: metrics, measures: measure.NewMapRepository()}
	root, err := b.node(doc.Project)
	if err != nil {
		return nil, err
	}
	tree, err := component.NewTree(root)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalid, Message: err.Error()}
	}

	return &Analysis{Root: tree, Metrics: metrics, Measures: b.measures}, nil
}

func (d MetricDef) metric() (metric.Metric, error) {
	key := norm.NFC.String(d.Key)
	if key == "" {
		return metric.Metric{}, &LoadError{Code: ErrCodeMetric, Message: "metric without key"}
	}
	typ, err := metric.ParseType(d.Type)
	if err != nil {
		return metric.Metric{}, &LoadError{Code: ErrCodeMetric, Message: fmt.Sprintf("metric %q: %v", key, err)}
	}
	if d.Optimized && d.BestValue == nil {
		return metric.Metric{}, &LoadError{Code: ErrCodeMetric, Message: fmt.Sprintf("metric %q is optimized but has no best value", key)}
	}
	return metric.Metric{
		UUID:               metric.UUIDForKey(key),
		Key:                key,
		Type:               typ,
		BestValue:          d.BestValue,
		BestValueOptimized: d.Optimized,
	}, nil
}

type builder struct {
	metrics  metric.Repository
	measures *measure.MapRepository
}

func (b *builder) node(n Node) (*component.Component, error) {
	key := norm.NFC.String(n.Key)
	typ, err := component.ParseType(n.Type)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("component %q: %v", key, err)}
	}
	id := n.UUID
	if id == "" {
		id = ComponentUUID(key)
	}
	c := &component.Component{UUID: id, Key: key, Type: typ}

	for rawKey, def := range n.Measures {
		metricKey := norm.NFC.String(rawKey)
		m, err := b.metrics.ByKey(metricKey)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeMetric, Message: fmt.Sprintf("component %q: %v", key, err)}
		}
		ms, err := def.measure(m)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeMeasure, Message: fmt.Sprintf("component %q, metric %q: %v", key, metricKey, err)}
		}
		b.measures.Add(id, metricKey, ms)
	}

	for _, child := range n.Children {
		cc, err := b.node(child)
		if err != nil {
			return nil, err
		}
		c.Children = append(c.Children, cc)
	}
	return c, nil
}

// measure converts the definition to a measure of the metric's value type.
func (d MeasureDef) measure(m metric.Metric) (measure.Measure, error) {
	vt, err := measure.ValueTypeFor(m.Type)
	if err != nil {
		return measure.Measure{}, err
	}

	var ms measure.Measure
	switch {
	case d.Value == nil && d.Text == nil && d.Bool == nil:
		ms = measure.NewNoValue()
	case vt == measure.Boolean:
		switch {
		case d.Bool != nil:
			ms = measure.NewBool(*d.Bool)
		case d.Value != nil && (*d.Value == 0 || *d.Value == 1):
			ms = measure.NewBool(*d.Value == 1)
		default:
			return measure.Measure{}, fmt.Errorf("%s metric needs a bool", m.Type)
		}
	case vt == measure.Int || vt == measure.Long:
		if d.Value == nil {
			return measure.Measure{}, fmt.Errorf("%s metric needs a numeric value", m.Type)
		}
		v := *d.Value
		if v != math.Trunc(v) {
			return measure.Measure{}, fmt.Errorf("%s metric needs an integer, got %g", m.Type, v)
		}
		if vt == measure.Long {
			ms = measure.NewLong(int64(v))
			break
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return measure.Measure{}, fmt.Errorf("%g overflows %s", v, m.Type)
		}
		ms = measure.NewInt(int32(v))
	case vt == measure.Double:
		if d.Value == nil {
			return measure.Measure{}, fmt.Errorf("%s metric needs a numeric value", m.Type)
		}
		ms = measure.NewDouble(*d.Value)
	case vt == measure.String:
		if d.Text == nil {
			return measure.Measure{}, fmt.Errorf("%s metric needs a text", m.Type)
		}
		ms = measure.NewString(*d.Text)
	case vt == measure.Level:
		if d.Text == nil {
			return measure.Measure{}, fmt.Errorf("%s metric needs a level", m.Type)
		}
		ms, err = measure.NewLevel(*d.Text)
		if err != nil {
			return measure.Measure{}, err
		}
	default:
		return measure.Measure{}, fmt.Errorf("unsupported value type %s", vt)
	}

	if d.Variation != nil {
		ms = ms.WithVariation(*d.Variation)
	}
	if d.Data != "" {
		ms = ms.WithData(d.Data)
	}
	return ms, nil
}
