package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rwscout/internal/model"
)

// Metrics instruments availability probing. Each instance owns its registry.
type Metrics struct {
	Registry *prometheus.Registry

	ProbesTotal   *prometheus.CounterVec
	ProbeDuration *prometheus.HistogramVec
	RunsTotal     *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rwscout_probes_total",
				Help: "Availability probes by platform and outcome",
			},
			[]string{"platform", "outcome"},
		),
		ProbeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rwscout_probe_duration_seconds",
				Help:    "Duration of availability probes in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"platform"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rwscout_runs_total",
				Help: "Aggregation runs by terminal state",
			},
			[]string{"state"},
		),
	}
	m.Registry.MustRegister(m.ProbesTotal, m.ProbeDuration, m.RunsTotal)
	return m
}

// ObserveProbe records one resolved probe. Safe on a nil receiver.
func (m *Metrics) ObserveProbe(platform model.Platform, outcome model.ProbeOutcome, took time.Duration) {
	if m == nil {
		return
	}
	label := outcome.Status.String()
	if outcome.Status == model.ProbeSucceeded && len(outcome.Slots) == 0 {
		label = "empty"
	}
	m.ProbesTotal.WithLabelValues(string(platform), label).Inc()
	m.ProbeDuration.WithLabelValues(string(platform)).Observe(took.Seconds())
}

// ObserveRun records a run reaching a terminal state. Safe on a nil receiver.
func (m *Metrics) ObserveRun(state model.RunState) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(state.String()).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
