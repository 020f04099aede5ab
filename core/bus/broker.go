// Package bus implements the agent event bus: it receives agent events from
// the broker, runs them through the coordinator, and publishes coordination
// outcomes for external observers.
package bus

// Broker is the publish/subscribe transport behind the bus. Delivery is
// at-most-once and best-effort: a message published while no subscriber is
// connected is lost. Implementations must tolerate handler latency and
// re-subscribe idempotently after reconnecting.
type Broker interface {
	// Publish sends the payload on the logical channel. Transport errors are
	// returned, never thrown.
	Publish(channel string, payload []byte) error
	// Subscribe registers exactly one handler for the channel, invoked once
	// per delivered message in arrival order.
	Subscribe(channel string, handler func(payload []byte)) error
	// Connected reports whether the transport link is up.
	Connected() bool
	// Close releases the transport connection.
	Close()
}

// Config holds the bus channel names and processing bounds.
type Config struct {
	// EventsChannel carries agent events to the coordinator.
	EventsChannel string `json:"events_channel"`
	// CoordinationChannel carries coordination results and failure
	// notifications to external observers.
	CoordinationChannel string `json:"coordination_channel"`
	// CoordinationTimeoutSeconds bounds one coordinator evaluation.
	CoordinationTimeoutSeconds int `json:"coordination_timeout_seconds"`
	// MaxConcurrent bounds the number of events coordinated at once.
	MaxConcurrent int `json:"max_concurrent"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.EventsChannel == "" {
		c.EventsChannel = "agent_events"
	}
	if c.CoordinationChannel == "" {
		c.CoordinationChannel = "agent_coordination"
	}
	if c.CoordinationTimeoutSeconds <= 0 {
		c.CoordinationTimeoutSeconds = 30
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
}
