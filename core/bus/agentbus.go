package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/adityakp21/chargegrid/core/coordination"
	"github.com/adityakp21/chargegrid/core/logger"
	"github.com/adityakp21/chargegrid/core/metrics"
	"github.com/adityakp21/chargegrid/core/model"
	"github.com/adityakp21/chargegrid/internal/eventbus"
)

// Notifier receives coordination outcomes and drives user-facing delivery.
// It is implemented by the notify engine.
type Notifier interface {
	EventCoordinated(ctx context.Context, ev model.Event, res model.CoordinationResult)
	CoordinationFailed(ctx context.Context, fn model.FailureNotification)
}

// Outcome is one coordination-channel message, mirrored to in-process
// observers. Exactly one of Result and Failure is set.
type Outcome struct {
	Result  *model.CoordinationResult
	Failure *model.FailureNotification
}

// Stats is a snapshot of the bus counters.
type Stats struct {
	Listening           bool   `json:"listening"`
	Published           uint64 `json:"published"`
	Processed           uint64 `json:"processed"`
	EventsChannel       string `json:"eventsChannel"`
	CoordinationChannel string `json:"coordinationChannel"`
}

// Health is the bus health snapshot exposed through the health endpoint.
type Health struct {
	Status    string    `json:"status"`
	Connected bool      `json:"connected"`
	Listening bool      `json:"listening"`
	Processed uint64    `json:"processed"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentBus consumes the events channel, coordinates each event and publishes
// the outcome on the coordination channel. Events are received in transport
// arrival order; coordination runs on worker goroutines so one slow
// evaluation does not stall reception of the next message. Per-event
// ordering of publish-after-process is preserved; completion order across
// events is not.
type AgentBus struct {
	broker   Broker
	coord    coordination.Coordinator
	notifier Notifier
	cfg      Config
	log      logger.Logger
	sink     metrics.Sink
	mirror   *eventbus.Bus[Outcome]

	sem       chan struct{}
	wg        sync.WaitGroup
	published atomic.Uint64
	processed atomic.Uint64
	listening atomic.Bool
}

// New creates an AgentBus. The coordinator is injected at construction; a
// bus without one cannot start. notifier and sink may be nil.
func New(broker Broker, coord coordination.Coordinator, notifier Notifier, cfg Config, log logger.Logger, sink metrics.Sink) (*AgentBus, error) {
	if broker == nil || coord == nil || log == nil {
		return nil, fmt.Errorf("bus: nil parameter provided to New")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	cfg.SetDefaults()
	return &AgentBus{
		broker:   broker,
		coord:    coord,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		sink:     sink,
		mirror:   eventbus.New[Outcome](),
		sem:      make(chan struct{}, cfg.MaxConcurrent),
	}, nil
}

// Start subscribes to the events channel. Calling Start on a listening bus
// is a no-op; a failed subscribe leaves the bus stopped and is returned to
// the caller, who may retry with backoff.
func (b *AgentBus) Start(ctx context.Context) error {
	if !b.listening.CompareAndSwap(false, true) {
		b.log.Infof("agent bus already listening")
		return nil
	}
	err := b.broker.Subscribe(b.cfg.EventsChannel, func(payload []byte) {
		b.onMessage(ctx, payload)
	})
	if err != nil {
		b.listening.Store(false)
		return fmt.Errorf("subscribe %s: %w", b.cfg.EventsChannel, err)
	}
	b.log.Infof("agent bus listening on %s", b.cfg.EventsChannel)
	return nil
}

func (b *AgentBus) onMessage(ctx context.Context, payload []byte) {
	if !b.listening.Load() {
		return
	}
	var ev model.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		b.log.Errorf("invalid event payload: %v", err)
		return
	}
	// Hand off to a worker so the subscriber loop keeps receiving.
	b.sem <- struct{}{}
	b.wg.Add(1)
	go func() {
		defer func() {
			<-b.sem
			b.wg.Done()
		}()
		b.handleEvent(ctx, ev)
	}()
}

func (b *AgentBus) handleEvent(ctx context.Context, ev model.Event) {
	b.processed.Add(1)
	b.log.Debugw("processing event", map[string]any{"event_id": ev.EventID, "type": ev.Type})
	if err := b.sink.RecordAgentEvent(metrics.AgentEvent{Type: ev.Type, StationID: ev.StationID, Time: time.Now()}); err != nil {
		b.log.Errorf("metrics error: %v", err)
	}

	cctx, cancel := context.WithTimeout(ctx, time.Duration(b.cfg.CoordinationTimeoutSeconds)*time.Second)
	defer cancel()

	start := time.Now()
	res, err := b.coord.ProcessEvent(cctx, ev)
	elapsed := time.Since(start)

	if err != nil || !res.Success {
		msg := res.Error
		if err != nil {
			msg = err.Error()
		}
		b.log.Errorf("coordination failed for %s: %s", ev.EventID, msg)
		b.publishFailure(ctx, ev, msg)
		b.recordCoordination(res.Action, false, elapsed)
		return
	}

	res.OriginalEventID = ev.EventID
	res.ExecutionMS = elapsed.Milliseconds()
	if res.Action != model.ActionMonitor {
		b.publishResult(res)
	}
	b.recordCoordination(res.Action, true, elapsed)

	if b.notifier != nil {
		b.notifier.EventCoordinated(ctx, ev, res)
	}
}

// publishResult publishes a coordination result for external observers.
func (b *AgentBus) publishResult(res model.CoordinationResult) {
	if res.EventID == "" {
		res.EventID = "COORD_" + uuid.NewString()
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now().UTC()
	}
	if err := b.publishJSON(b.cfg.CoordinationChannel, res); err != nil {
		b.log.Errorf("coordination result publish failed: %v", err)
		return
	}
	b.mirror.Publish(Outcome{Result: &res})
	b.log.Infof("coordination result published: %s", res.EventID)
}

// publishFailure publishes a failure notification. Failures are exactly the
// case operators need visibility into, so this path is never skipped.
func (b *AgentBus) publishFailure(ctx context.Context, ev model.Event, msg string) {
	fn := model.FailureNotification{
		EventID:           "FAIL_" + uuid.NewString(),
		OriginalEventID:   ev.EventID,
		StationID:         ev.StationID,
		Error:             msg,
		Severity:          model.SeverityHigh,
		RequiresAttention: true,
		Timestamp:         time.Now().UTC(),
	}
	if err := b.publishJSON(b.cfg.CoordinationChannel, fn); err != nil {
		b.log.Errorf("failure notification publish failed: %v", err)
	}
	b.mirror.Publish(Outcome{Failure: &fn})
	if b.notifier != nil {
		b.notifier.CoordinationFailed(ctx, fn)
	}
}

// PublishEvent publishes an agent event on the events channel. The event id
// is caller-generated; publish errors are returned, not thrown.
func (b *AgentBus) PublishEvent(ev model.Event) error {
	if ev.EventID == "" || ev.Type == "" {
		return fmt.Errorf("bus: event requires eventId and type")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	return b.publishJSON(b.cfg.EventsChannel, ev)
}

func (b *AgentBus) publishJSON(channel string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := b.broker.Publish(channel, payload); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	b.published.Add(1)
	return nil
}

func (b *AgentBus) recordCoordination(action string, success bool, d time.Duration) {
	if err := b.sink.RecordCoordination(metrics.CoordinationOutcome{Action: action, Success: success, Duration: d}); err != nil {
		b.log.Errorf("metrics error: %v", err)
	}
}

// Outcomes subscribes to the in-process mirror of the coordination channel.
// The cancel function releases the subscription.
func (b *AgentBus) Outcomes() (<-chan Outcome, func()) {
	return b.mirror.Subscribe()
}

// Stats returns a snapshot of the bus counters.
func (b *AgentBus) Stats() Stats {
	return Stats{
		Listening:           b.listening.Load(),
		Published:           b.published.Load(),
		Processed:           b.processed.Load(),
		EventsChannel:       b.cfg.EventsChannel,
		CoordinationChannel: b.cfg.CoordinationChannel,
	}
}

// Health reports the current bus health. A lost transport link while
// listening is degraded; a stopped bus is unhealthy.
func (b *AgentBus) Health() Health {
	h := Health{
		Connected: b.broker.Connected(),
		Listening: b.listening.Load(),
		Processed: b.processed.Load(),
		Timestamp: time.Now().UTC(),
	}
	switch {
	case h.Connected && h.Listening:
		h.Status = "healthy"
	case h.Listening:
		h.Status = "degraded"
	default:
		h.Status = "unhealthy"
	}
	return h
}

// Stop stops accepting new events and waits for in-flight coordination to
// drain.
func (b *AgentBus) Stop() {
	if !b.listening.CompareAndSwap(true, false) {
		return
	}
	b.wg.Wait()
	b.log.Infof("agent bus stopped")
}

// Close stops the bus and releases the broker connection and the mirror.
func (b *AgentBus) Close() {
	b.Stop()
	b.mirror.Close()
	b.broker.Close()
}
