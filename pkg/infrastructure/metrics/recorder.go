package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder observes the outcome of operation lifecycle calls
type Recorder interface {
	Observe(ctx context.Context, action, kind string, success bool, duration time.Duration)
}

// NopRecorder discards every observation
type NopRecorder struct{}

// Observe implements Recorder
func (NopRecorder) Observe(context.Context, string, string, bool, time.Duration) {}

// PrometheusRecorder counts and times lifecycle calls per action, kind and result.
type PrometheusRecorder struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the operation metrics on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wms",
			Name:      "operations_total",
			Help:      "Operation lifecycle calls by action, kind and result.",
		}, []string{"action", "kind", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wms",
			Name:      "operation_duration_seconds",
			Help:      "Duration of operation lifecycle calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action", "kind"}),
	}
	if err := reg.Register(r.total); err != nil {
		return nil, err
	}
	if err := reg.Register(r.duration); err != nil {
		return nil, err
	}
	return r, nil
}

// Observe implements Recorder
func (r *PrometheusRecorder) Observe(_ context.Context, action, kind string, success bool, duration time.Duration) {
	result := "error"
	if success {
		result = "success"
	}
	r.total.WithLabelValues(action, kind, result).Inc()
	r.duration.WithLabelValues(action, kind).Observe(duration.Seconds())
}

// Total returns the counter for the given labels, for reports and tests
func (r *PrometheusRecorder) Total(action, kind, result string) prometheus.Counter {
	return r.total.WithLabelValues(action, kind, result)
}
