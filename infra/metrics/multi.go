package metrics

import coremetrics "github.com/adityakp21/chargegrid/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAgentEvent forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordAgentEvent(ev coremetrics.AgentEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAgentEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordCoordination forwards coordination outcomes.
func (m *MultiSink) RecordCoordination(out coremetrics.CoordinationOutcome) error {
	for _, s := range m.Sinks {
		if err := s.RecordCoordination(out); err != nil {
			return err
		}
	}
	return nil
}

// RecordDelivery forwards delivery attempts.
func (m *MultiSink) RecordDelivery(d coremetrics.Delivery) error {
	for _, s := range m.Sinks {
		if err := s.RecordDelivery(d); err != nil {
			return err
		}
	}
	return nil
}
