package metrics

// Package metrics defines the interfaces for recording dispatch outcomes.
// Concrete sinks such as PromSink and InfluxSink live in infra/metrics and
// can be combined with NewMultiSink. The exporter plugins in app/plugins
// build sinks from configuration.
