package metrics

import (
	"testing"

	coremetrics "github.com/adityakp21/chargegrid/core/metrics"
)

type recordSink struct {
	count int
}

func (r *recordSink) RecordAgentEvent(coremetrics.AgentEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordCoordination(coremetrics.CoordinationOutcome) error {
	r.count++
	return nil
}

func (r *recordSink) RecordDelivery(coremetrics.Delivery) error {
	r.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordAgentEvent(coremetrics.AgentEvent{}); err != nil {
		t.Fatalf("record event: %v", err)
	}
	if err := m.RecordCoordination(coremetrics.CoordinationOutcome{}); err != nil {
		t.Fatalf("record coordination: %v", err)
	}
	if err := m.RecordDelivery(coremetrics.Delivery{}); err != nil {
		t.Fatalf("record delivery: %v", err)
	}
	if s1.count != 3 || s2.count != 3 {
		t.Fatalf("records not forwarded")
	}
}
