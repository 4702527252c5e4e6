// Package metrics exposes Prometheus instrumentation for compiler runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "idlc"

// Metrics holds compiler collectors. A nil *Metrics records nothing.
type Metrics struct {
	stepDuration  *prometheus.HistogramVec // by library, step
	stepsTotal    *prometheus.CounterVec   // by step, outcome (ok/failed)
	diagnostics   *prometheus.CounterVec   // by code, severity
	filteredDecls *prometheus.GaugeVec     // by library
	libraries     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &Metrics{
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "compiler",
			Name:      "step_duration_seconds",
			Help:      "Duration of compiler steps in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"library", "step"}),
		stepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compiler",
			Name:      "steps_total",
			Help:      "Total number of compiler steps run",
		}, []string{"step", "outcome"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compiler",
			Name:      "diagnostics_total",
			Help:      "Total number of diagnostics reported",
		}, []string{"code", "severity"}),
		filteredDecls: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "declarations",
			Help:      "Declarations kept by the last filter of a library",
		}, []string{"library"}),
		libraries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "libraries",
			Name:      "inserted",
			Help:      "Libraries currently held by the registry",
		}),
	}
	for _, c := range []prometheus.Collector{m.stepDuration, m.stepsTotal, m.diagnostics, m.filteredDecls, m.libraries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordStep records one step run.
func (m *Metrics) RecordStep(library, step string, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "ok"
	}
	m.stepsTotal.WithLabelValues(step, outcome).Inc()
	m.stepDuration.WithLabelValues(library, step).Observe(duration.Seconds())
}

// RecordDiagnostic counts one diagnostic.
func (m *Metrics) RecordDiagnostic(code, severity string) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(code, severity).Inc()
}

// SetFiltered records how many declarations a filter kept.
func (m *Metrics) SetFiltered(library string, n int) {
	if m == nil {
		return
	}
	m.filteredDecls.WithLabelValues(library).Set(float64(n))
}

// SetLibraries records the registry size.
func (m *Metrics) SetLibraries(n int) {
	if m == nil {
		return
	}
	m.libraries.Set(float64(n))
}
