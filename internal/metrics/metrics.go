// Package metrics holds the Prometheus collectors of the review service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	diffDuration *prometheus.HistogramVec
	coarseDiffs  prometheus.Counter
	superseded   prometheus.Counter
	events       *prometheus.CounterVec
	versions     *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		diffDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "revise",
			Name:      "diff_duration_seconds",
			Help:      "Time spent computing annotated diffs.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"result"}),
		coarseDiffs: f.NewCounter(prometheus.CounterOpts{
			Namespace: "revise",
			Name:      "diff_coarse_total",
			Help:      "Diffs that exceeded the limits and were reported line by line.",
		}),
		superseded: f.NewCounter(prometheus.CounterOpts{
			Namespace: "revise",
			Name:      "diff_superseded_total",
			Help:      "Background diffs cancelled by a newer request for the same file.",
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "revise",
			Name:      "diff_events_total",
			Help:      "Diff event lifecycle transitions.",
		}, []string{"action"}),
		versions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "revise",
			Name:      "versions_total",
			Help:      "Versions appended to file histories.",
		}, []string{"change_type"}),
	}
}

// ObserveDiff records one diff computation.
func (m *Metrics) ObserveDiff(d time.Duration, coarse bool, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.diffDuration.WithLabelValues(result).Observe(d.Seconds())
	if coarse {
		m.coarseDiffs.Inc()
	}
}

func (m *Metrics) Superseded() {
	if m == nil {
		return
	}
	m.superseded.Inc()
}

// Event counts a lifecycle action such as created, conflict, finalized or a
// direct write.
func (m *Metrics) Event(action string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(action).Inc()
}

func (m *Metrics) Version(changeType string) {
	if m == nil {
		return
	}
	m.versions.WithLabelValues(changeType).Inc()
}
