package model

import "time"

// Agent event types published on the events channel. Each block corresponds
// to one operational domain agent.
const (
	// Mechanic agent.
	EventHardwareFailure     = "HARDWARE_FAILURE"
	EventSelfHealingStarted  = "SELF_HEALING_STARTED"
	EventSelfHealingSuccess  = "SELF_HEALING_SUCCESS"
	EventSelfHealingFailed   = "SELF_HEALING_FAILED"
	EventMaintenanceRequired = "MAINTENANCE_REQUIRED"

	// Traffic agent.
	EventIncentiveOffered   = "INCENTIVE_OFFERED"
	EventCongestionAlert    = "CONGESTION_ALERT"
	EventCongestionCritical = "CONGESTION_CRITICAL"
	EventDemandSurge        = "DEMAND_SURGE"

	// Logistics agent.
	EventStockoutPredicted = "STOCKOUT_PREDICTED"
	EventStockoutImminent  = "STOCKOUT_IMMINENT"
	EventInventoryCritical = "INVENTORY_CRITICAL"

	// Energy agent.
	EventPriceSpike         = "PRICE_SPIKE"
	EventPriceSpikeCritical = "PRICE_SPIKE_CRITICAL"
	EventGridInstability    = "GRID_INSTABILITY"
	EventTradingOpportunity = "TRADING_OPPORTUNITY"
	EventArbitrageExecuted  = "ARBITRAGE_EXECUTED"

	// Auditor agent.
	EventAnomalyDetected     = "ANOMALY_DETECTED"
	EventAnomalyCritical     = "ANOMALY_CRITICAL"
	EventComplianceViolation = "COMPLIANCE_VIOLATION"
	EventAuditComplete       = "AUDIT_COMPLETE"

	// Station lifecycle.
	EventStationOffline = "STATION_OFFLINE"
	EventStationOnline  = "STATION_ONLINE"

	// Session events targeted at a single user.
	EventChargingComplete    = "CHARGING_COMPLETE"
	EventChargingInterrupted = "CHARGING_INTERRUPTED"
	EventPaymentFailed       = "PAYMENT_FAILED"

	// Realtime-only telemetry, never pushed.
	EventLocationUpdate = "LOCATION_UPDATE"
	EventStatusUpdate   = "STATUS_UPDATE"
	EventHeartbeat      = "HEARTBEAT"
)

// Severity levels carried in the event payload.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Event is an agent event as published on the events channel. Events are
// immutable once published; the payload is an opaque structured map whose
// well-known keys are exposed through accessors.
type Event struct {
	EventID   string         `json:"eventId"`
	Type      string         `json:"type"`
	StationID string         `json:"stationId,omitempty"`
	AgentType string         `json:"agentType,omitempty"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// Severity returns payload["severity"] or an empty string.
func (e Event) Severity() string {
	s, _ := e.Payload["severity"].(string)
	return s
}

// TargetUserID returns payload["userId"] for user-targeted events.
func (e Event) TargetUserID() string {
	s, _ := e.Payload["userId"].(string)
	return s
}

// City returns payload["city"] or an empty string.
func (e Event) City() string {
	s, _ := e.Payload["city"].(string)
	return s
}

// Broadcast reports whether the payload requests broadcast-room delivery.
func (e Event) Broadcast() bool {
	b, _ := e.Payload["broadcast"].(bool)
	return b
}

// StationLocation extracts payload["stationLocation"] as lat/lng coordinates.
// The second return value is false when the field is absent or malformed.
func (e Event) StationLocation() (lat, lng float64, ok bool) {
	loc, isMap := e.Payload["stationLocation"].(map[string]any)
	if !isMap {
		return 0, 0, false
	}
	lat, latOK := toFloat(loc["lat"])
	lng, lngOK := toFloat(loc["lng"])
	return lat, lng, latOK && lngOK
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
