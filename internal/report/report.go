// Package report loads an analysis report: the component tree of a project
// and the raw measures computed for each component.
//
// Reports are CUE (.cue, .json) or YAML (.yaml, .yml) documents, read from a
// local path or any URL viant/afs supports:
//
//	project: {
//		key:  "proj"
//		type: "PROJECT"
//		measures: ncloc: value: 120
//		children: [{key: "proj:a.go", type: "FILE", measures: coverage: value: 100}]
//	}
package report

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"

	"github.com/roach88/lmsync/internal/component"
	"github.com/roach88/lmsync/internal/measure"
	"github.com/roach88/lmsync/internal/metric"
)

// Document is the decoded form of a report.
type Document struct {
	Project Node        `json:"project" yaml:"project"`
	Metrics []MetricDef `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Node is a component and its measures.
type Node struct {
	// UUID defaults to a name-based UUID of Key.
	UUID     string                `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Key      string                `json:"key" yaml:"key"`
	Type     string                `json:"type" yaml:"type"`
	Measures map[string]MeasureDef `json:"measures,omitempty" yaml:"measures,omitempty"`
	Children []Node                `json:"children,omitempty" yaml:"children,omitempty"`
}

// MeasureDef is a raw measure. Which value field applies depends on the
// metric type; a measure without any value field has no value.
type MeasureDef struct {
	Value     *float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Text      *string  `json:"text,omitempty" yaml:"text,omitempty"`
	Bool      *bool    `json:"bool,omitempty" yaml:"bool,omitempty"`
	Variation *float64 `json:"variation,omitempty" yaml:"variation,omitempty"`
	Data      string   `json:"data,omitempty" yaml:"data,omitempty"`
}

// MetricDef declares a metric outside the core catalog.
type MetricDef struct {
	Key       string   `json:"key" yaml:"key"`
	Type      string   `json:"type" yaml:"type"`
	BestValue *float64 `json:"best_value,omitempty" yaml:"best_value,omitempty"`
	Optimized bool     `json:"optimized,omitempty" yaml:"optimized,omitempty"`
}

// Analysis is a loaded report, ready to feed a reconciliation step.
type Analysis struct {
	Root     *component.Component
	Metrics  *metric.MapRepository
	Measures *measure.MapRepository
}

// Format is the encoding of a report.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from the location's extension.
func FormatOf(location string) (Format, error) {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".cue", ".json":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported report format: %s", location)}
	}
}

// Loader reads reports through an afs.Service.
type Loader struct {
	fs afs.Service
}

// NewLoader returns a Loader. A nil fs uses afs.New().
func NewLoader(fs afs.Service) *Loader {
	if fs == nil {
		fs = afs.New()
	}
	return &Loader{fs: fs}
}

// Load reads and decodes the report at location.
func Load(ctx context.Context, location string) (*Analysis, error) {
	return NewLoader(nil).Load(ctx, location)
}

// Load reads and decodes the report at location.
func (l *Loader) Load(ctx context.Context, location string) (*Analysis, error) {
	format, err := FormatOf(location)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(location, "://") {
		if abs, err := filepath.Abs(location); err == nil {
			location = abs
		}
	}

	data, err := l.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeFetch, Message: fmt.Sprintf("reading %s: %v", location, err)}
	}
	return Parse(data, format, location)
}

// Parse decodes report bytes. name is used in error positions.
func Parse(data []byte, format Format, name string) (*Analysis, error) {
	var (
		doc *Document
		err error
	)
	switch format {
	case FormatCUE:
		doc, err = decodeCUE(data, name)
	case FormatYAML:
		doc, err = decodeYAML(data)
	default:
		err = &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported report format %q", format)}
	}
	if err != nil {
		return nil, err
	}
	return Build(doc)
}
