package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakp21/chargegrid/core/coordination"
	"github.com/adityakp21/chargegrid/core/model"
	"github.com/adityakp21/chargegrid/infra/logger"
)

type fakeBroker struct {
	mu            sync.Mutex
	handlers      map[string]func([]byte)
	published     map[string][][]byte
	failPublish   bool
	failSubscribe bool
	disconnected  bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		handlers:  make(map[string]func([]byte)),
		published: make(map[string][][]byte),
	}
}

func (f *fakeBroker) Publish(channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPublish {
		return fmt.Errorf("broker unreachable")
	}
	f.published[channel] = append(f.published[channel], payload)
	return nil
}

func (f *fakeBroker) Subscribe(channel string, handler func([]byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubscribe {
		return fmt.Errorf("subscribe refused")
	}
	f.handlers[channel] = handler
	return nil
}

func (f *fakeBroker) Connected() bool { return !f.disconnected }
func (f *fakeBroker) Close()          {}

func (f *fakeBroker) deliver(t *testing.T, channel string, v any) {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	f.mu.Lock()
	h := f.handlers[channel]
	f.mu.Unlock()
	require.NotNil(t, h, "no handler on %s", channel)
	h(payload)
}

func (f *fakeBroker) messages(channel string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.published[channel]...)
}

type recordingNotifier struct {
	mu       sync.Mutex
	events   []model.Event
	failures []model.FailureNotification
}

func (n *recordingNotifier) EventCoordinated(_ context.Context, ev model.Event, _ model.CoordinationResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) CoordinationFailed(_ context.Context, fn model.FailureNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, fn)
}

func newTestBus(t *testing.T, broker Broker, coord coordination.Coordinator, n Notifier) *AgentBus {
	t.Helper()
	b, err := New(broker, coord, n, Config{}, logger.NopLogger{}, nil)
	require.NoError(t, err)
	return b
}

func TestAgentBus_MonitorResultNotPublished(t *testing.T) {
	broker := newFakeBroker()
	b := newTestBus(t, broker, coordination.MonitorCoordinator{}, nil)
	require.NoError(t, b.Start(context.Background()))

	broker.deliver(t, "agent_events", model.Event{EventID: "E1", Type: model.EventHeartbeat})
	b.Stop()

	assert.Empty(t, broker.messages("agent_coordination"))
	assert.Equal(t, uint64(1), b.Stats().Processed)
}

func TestAgentBus_ActionableResultPublished(t *testing.T) {
	broker := newFakeBroker()
	coord := coordination.Func(func(_ context.Context, ev model.Event) (model.CoordinationResult, error) {
		return model.CoordinationResult{
			OriginalEventID: ev.EventID,
			Action:          "reroute_traffic",
			AgentPlan:       []string{"notify_users", "apply_incentive"},
			Success:         true,
		}, nil
	})
	b := newTestBus(t, broker, coord, nil)
	require.NoError(t, b.Start(context.Background()))

	broker.deliver(t, "agent_events", model.Event{EventID: "E2", Type: model.EventCongestionCritical, StationID: "ST004"})
	b.Stop()

	msgs := broker.messages("agent_coordination")
	require.Len(t, msgs, 1)
	var res model.CoordinationResult
	require.NoError(t, json.Unmarshal(msgs[0], &res))
	assert.Equal(t, "E2", res.OriginalEventID)
	assert.Equal(t, "reroute_traffic", res.Action)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.EventID)
}

func TestAgentBus_FailurePublishesExactlyOneNotification(t *testing.T) {
	broker := newFakeBroker()
	coord := coordination.Func(func(context.Context, model.Event) (model.CoordinationResult, error) {
		return model.CoordinationResult{Success: false, Error: "planner rejected event"}, nil
	})
	notifier := &recordingNotifier{}
	b := newTestBus(t, broker, coord, notifier)
	require.NoError(t, b.Start(context.Background()))

	broker.deliver(t, "agent_events", model.Event{EventID: "E1", Type: model.EventHardwareFailure, StationID: "ST001"})
	b.Stop()

	msgs := broker.messages("agent_coordination")
	require.Len(t, msgs, 1)
	var fn model.FailureNotification
	require.NoError(t, json.Unmarshal(msgs[0], &fn))
	assert.Equal(t, "E1", fn.OriginalEventID)
	assert.Equal(t, model.SeverityHigh, fn.Severity)
	assert.True(t, fn.RequiresAttention)
	assert.Equal(t, "planner rejected event", fn.Error)

	require.Len(t, notifier.failures, 1)
	assert.Empty(t, notifier.events)
}

func TestAgentBus_CoordinatorErrorTreatedAsFailure(t *testing.T) {
	broker := newFakeBroker()
	coord := coordination.Func(func(context.Context, model.Event) (model.CoordinationResult, error) {
		return model.CoordinationResult{}, fmt.Errorf("boom")
	})
	b := newTestBus(t, broker, coord, nil)
	require.NoError(t, b.Start(context.Background()))

	broker.deliver(t, "agent_events", model.Event{EventID: "E9", Type: model.EventPriceSpike})
	b.Stop()

	msgs := broker.messages("agent_coordination")
	require.Len(t, msgs, 1)
	var fn model.FailureNotification
	require.NoError(t, json.Unmarshal(msgs[0], &fn))
	assert.Equal(t, "boom", fn.Error)
}

func TestAgentBus_SuccessInvokesNotifier(t *testing.T) {
	broker := newFakeBroker()
	notifier := &recordingNotifier{}
	b := newTestBus(t, broker, coordination.MonitorCoordinator{}, notifier)
	require.NoError(t, b.Start(context.Background()))

	broker.deliver(t, "agent_events", model.Event{EventID: "E3", Type: model.EventChargingComplete})
	b.Stop()

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "E3", notifier.events[0].EventID)
}

func TestAgentBus_InvalidPayloadIgnored(t *testing.T) {
	broker := newFakeBroker()
	b := newTestBus(t, broker, coordination.MonitorCoordinator{}, nil)
	require.NoError(t, b.Start(context.Background()))

	broker.handlers["agent_events"]([]byte("{not json"))
	b.Stop()

	assert.Equal(t, uint64(0), b.Stats().Processed)
}

func TestAgentBus_SubscribeFailureReported(t *testing.T) {
	broker := newFakeBroker()
	broker.failSubscribe = true
	b := newTestBus(t, broker, coordination.MonitorCoordinator{}, nil)

	err := b.Start(context.Background())
	require.Error(t, err)
	assert.False(t, b.Stats().Listening)

	// The caller may retry once the transport recovers.
	broker.failSubscribe = false
	require.NoError(t, b.Start(context.Background()))
	assert.True(t, b.Stats().Listening)
}

func TestAgentBus_StartIsIdempotent(t *testing.T) {
	broker := newFakeBroker()
	b := newTestBus(t, broker, coordination.MonitorCoordinator{}, nil)
	require.NoError(t, b.Start(context.Background()))
	require.NoError(t, b.Start(context.Background()))
}

func TestAgentBus_PublishEvent(t *testing.T) {
	broker := newFakeBroker()
	b := newTestBus(t, broker, coordination.MonitorCoordinator{}, nil)

	require.Error(t, b.PublishEvent(model.Event{Type: model.EventPriceSpike}), "missing event id")
	require.NoError(t, b.PublishEvent(model.Event{EventID: "E1", Type: model.EventPriceSpike}))
	assert.Equal(t, uint64(1), b.Stats().Published)

	broker.failPublish = true
	err := b.PublishEvent(model.Event{EventID: "E2", Type: model.EventPriceSpike})
	require.Error(t, err)
	assert.Equal(t, uint64(1), b.Stats().Published)
}

func TestAgentBus_OutcomesMirror(t *testing.T) {
	broker := newFakeBroker()
	coord := coordination.Func(func(_ context.Context, ev model.Event) (model.CoordinationResult, error) {
		return model.CoordinationResult{OriginalEventID: ev.EventID, Action: "pause_charging", Success: true}, nil
	})
	b := newTestBus(t, broker, coord, nil)
	outcomes, cancel := b.Outcomes()
	defer cancel()
	require.NoError(t, b.Start(context.Background()))

	broker.deliver(t, "agent_events", model.Event{EventID: "E5", Type: model.EventGridInstability})

	select {
	case out := <-outcomes:
		require.NotNil(t, out.Result)
		assert.Equal(t, "E5", out.Result.OriginalEventID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mirrored outcome")
	}
}

func TestAgentBus_Health(t *testing.T) {
	broker := newFakeBroker()
	b := newTestBus(t, broker, coordination.MonitorCoordinator{}, nil)

	assert.Equal(t, "unhealthy", b.Health().Status)
	require.NoError(t, b.Start(context.Background()))
	assert.Equal(t, "healthy", b.Health().Status)

	broker.disconnected = true
	assert.Equal(t, "degraded", b.Health().Status)

	b.Stop()
	assert.Equal(t, "unhealthy", b.Health().Status)
}
