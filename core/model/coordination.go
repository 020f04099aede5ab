package model

import "time"

// ActionMonitor marks a coordination result that requires no reaction.
// Results carrying any other action tag are published to the coordination
// channel for external observers.
const ActionMonitor = "monitor"

// CoordinationResult is produced by the coordinator for every processed event.
type CoordinationResult struct {
	EventID         string    `json:"eventId"`
	OriginalEventID string    `json:"originalEventId"`
	StationID       string    `json:"stationId,omitempty"`
	Action          string    `json:"action"`
	AgentPlan       []string  `json:"agentPlan,omitempty"`
	Success         bool      `json:"success"`
	ExecutionMS     int64     `json:"executionTimeMs"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// FailureNotification is published on the coordination channel whenever
// coordination of an event fails. It is never skipped.
type FailureNotification struct {
	EventID           string    `json:"eventId"`
	OriginalEventID   string    `json:"originalEventId"`
	StationID         string    `json:"stationId,omitempty"`
	Error             string    `json:"error"`
	Severity          string    `json:"severity"`
	RequiresAttention bool      `json:"requiresAttention"`
	Timestamp         time.Time `json:"timestamp"`
}
