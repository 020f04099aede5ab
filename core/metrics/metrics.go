// Package metrics defines the sink contracts used to record bus and
// delivery observability events. Implementations live under infra/metrics.
package metrics

import "time"

// AgentEvent captures one event received on the events channel.
type AgentEvent struct {
	Type      string
	StationID string
	Time      time.Time
}

// CoordinationOutcome captures the result of coordinating one event.
type CoordinationOutcome struct {
	Action   string
	Success  bool
	Duration time.Duration
}

// Delivery captures one (recipient, channel) delivery attempt.
type Delivery struct {
	EventType string
	Channel   string
	OK        bool
}

// Sink records coordination pipeline events for observability purposes.
type Sink interface {
	RecordAgentEvent(ev AgentEvent) error
	RecordCoordination(out CoordinationOutcome) error
	RecordDelivery(d Delivery) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordAgentEvent(AgentEvent) error            { return nil }
func (NopSink) RecordCoordination(CoordinationOutcome) error { return nil }
func (NopSink) RecordDelivery(Delivery) error                { return nil }
