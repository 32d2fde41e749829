// Package metrics exposes allocation run metrics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rhyrak/go-allocate/pkg/model"
)

const namespace = "allocator"

// Run status label values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Metrics records allocation runs. It satisfies allocator.Recorder.
type Metrics struct {
	runs     *prometheus.CounterVec
	students *prometheus.CounterVec
	duration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Allocation runs by status.",
		}, []string{"status"}),
		students: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "students_total",
			Help:      "Students processed by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time spent in the allocation pass.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.runs, m.students, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRun records a completed allocation pass.
func (m *Metrics) ObserveRun(stats model.Stats, elapsed time.Duration) {
	m.runs.WithLabelValues(StatusSuccess).Inc()
	m.students.WithLabelValues("allocated").Add(float64(stats.Allocated))
	m.students.WithLabelValues("unallocated").Add(float64(stats.Unallocated))
	m.duration.Observe(elapsed.Seconds())
}

// ObserveFailure records a run that stopped before allocation, e.g. on bad input.
func (m *Metrics) ObserveFailure() {
	m.runs.WithLabelValues(StatusFailed).Inc()
}
