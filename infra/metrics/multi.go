package metrics

import coremetrics "github.com/jmottier/notihub/core/metrics"

// MultiSink fans dispatch records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordDispatch(rec coremetrics.DispatchRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(rec); err != nil {
			return err
		}
	}
	return nil
}
