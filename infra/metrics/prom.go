package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/jmottier/notihub/core/metrics"
)

// PromSink records dispatch outcomes in Prometheus metrics.
type PromSink struct {
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
// The /metrics server is started separately with StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_outcomes_total",
		Help: "Total number of dispatch calls by channel and outcome",
	}, []string{"channel", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_duration_seconds",
		Help:    "Time spent resolving, constructing and invoking a handler",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})

	if err := reg.Register(outcomes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			outcomes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{outcomes: outcomes, duration: duration}, nil
}

// RecordDispatch increments the outcome counter and observes the latency.
func (s *PromSink) RecordDispatch(rec coremetrics.DispatchRecord) error {
	outcome := "success"
	if !rec.OK {
		outcome = rec.Kind
	}
	s.outcomes.WithLabelValues(rec.Channel, outcome).Inc()
	s.duration.WithLabelValues(rec.Channel).Observe(rec.Duration.Seconds())
	return nil
}
