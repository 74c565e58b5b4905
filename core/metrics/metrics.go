package metrics

import "time"

// DispatchRecord is a per-call dispatch observation.
type DispatchRecord struct {
	Channel  string
	OK       bool
	Kind     string // failure kind, empty on success
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records dispatch outcomes for observability purposes.
type MetricsSink interface {
	RecordDispatch(rec DispatchRecord) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordDispatch(DispatchRecord) error { return nil }

// SinkConfig selects one exporter plugin and carries its raw settings.
type SinkConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Config holds the metrics pipeline settings.
type Config struct {
	Sinks []SinkConfig `json:"sinks"`
	// PrometheusPort is the listen address of the /metrics server, empty
	// to disable it.
	PrometheusPort string `json:"prometheus_port"`
}
