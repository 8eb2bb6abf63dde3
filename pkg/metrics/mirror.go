package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MirrorMetrics records sheet mirror call outcomes.
type MirrorMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewMirrorMetrics registers the mirror metrics on the provided registerer.
func NewMirrorMetrics(reg prometheus.Registerer) *MirrorMetrics {
	if reg == nil {
		return &MirrorMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mirror_call_duration_seconds",
		Help:    "Duration of sheet mirror calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_call_success",
		Help: "Successful sheet mirror calls.",
	}, []string{"op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_call_failure",
		Help: "Failed sheet mirror calls.",
	}, []string{"op"})
	reg.MustRegister(duration, success, failure)
	return &MirrorMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named mirror operation.
func (m *MirrorMetrics) ObserveDuration(op string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(elapsed.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (m *MirrorMetrics) IncSuccess(op string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (m *MirrorMetrics) IncFailure(op string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(op)).Inc()
}
