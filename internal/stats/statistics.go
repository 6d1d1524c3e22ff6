// Package stats collects the statistics steps report to the enclosing job.
package stats

import (
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink receives named statistics from a step.
type Sink interface {
	Add(name string, value int64)
}

// Statistics accumulates named values in insertion order and optionally
// mirrors them to a Prometheus gauge.
//
// Thread-safety: safe for concurrent use.
type Statistics struct {
	mu     sync.Mutex
	step   string
	names  []string
	values map[string]int64
	gauge  *prometheus.GaugeVec
}

// New returns empty statistics for the named step.
func New(step string) *Statistics {
	return &Statistics{step: step, values: make(map[string]int64)}
}

// NewGaugeVec returns the gauge Statistics mirrors to:
// lmsync_step_statistic{step,name}.
func NewGaugeVec() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lmsync",
		Name:      "step_statistic",
		Help:      "Statistics reported by analysis steps.",
	}, []string{"step", "name"})
}

// WithGauge mirrors every Add to gauge. Returns s for chaining.
func (s *Statistics) WithGauge(gauge *prometheus.GaugeVec) *Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauge = gauge
	for _, name := range s.names {
		gauge.WithLabelValues(s.step, name).Set(float64(s.values[name]))
	}
	return s
}

// Add implements Sink. Values of the same name accumulate.
func (s *Statistics) Add(name string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] += value
	if s.gauge != nil {
		s.gauge.WithLabelValues(s.step, name).Set(float64(s.values[name]))
	}
}

// Get returns the value of a statistic and whether it was reported.
func (s *Statistics) Get(name string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	return v, ok
}

// Names returns the reported names in insertion order.
func (s *Statistics) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

// String formats the statistics as "step: name=value, ...".
func (s *Statistics) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	parts := make([]string, 0, len(s.names))
	for _, name := range s.names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, s.values[name]))
	}
	return fmt.Sprintf("%s: %s", s.step, strings.Join(parts, ", "))
}
