package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adityakp21/chargegrid/core/logger"
	"github.com/adityakp21/chargegrid/core/metrics"
	"github.com/adityakp21/chargegrid/core/model"
)

// Realtime rooms and message names used for socket delivery.
const (
	BroadcastRoom = "broadcast"

	MsgNotificationNew       = "notification:new"
	MsgNotificationBroadcast = "notification:broadcast"
	MsgCoordinationFailure   = "coordination:failure"
)

// DefaultAgentType is used for webpush when neither the payload nor the
// dispatch context names an agent.
const DefaultAgentType = "system"

// Realtime addresses a message to all sockets in a room. Rooms are keyed by
// user id for targeted delivery plus the shared broadcast room.
type Realtime interface {
	EmitToRoom(room, msg string, payload any) error
}

// PushOutcome is the per-recipient result of a push send.
type PushOutcome struct {
	UserID string
	Err    error
}

// PushSender delivers a web push notification to the given users.
type PushSender interface {
	Send(ctx context.Context, agentType, eventTag string, payload map[string]any, userIDs []string) ([]PushOutcome, error)
}

// NopPushSender discards push notifications. Used when no VAPID key pair is
// configured.
type NopPushSender struct{}

func (NopPushSender) Send(context.Context, string, string, map[string]any, []string) ([]PushOutcome, error) {
	return nil, nil
}

// Context carries dispatch-scoped hints that are not part of the payload.
type Context struct {
	AgentType string `json:"agentType,omitempty"`
}

// Envelope is the message body emitted over the realtime transport.
type Envelope struct {
	EventType string         `json:"eventType"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
	Context   Context        `json:"context,omitempty"`
}

// Dispatcher delivers one notification to one recipient over the enabled
// channels. The two channels are independent: a failure on one is logged and
// counted but never prevents the other.
type Dispatcher struct {
	rt   Realtime
	push PushSender
	log  logger.Logger
	sink metrics.Sink
}

// NewDispatcher creates a Dispatcher. sink may be nil.
func NewDispatcher(rt Realtime, push PushSender, log logger.Logger, sink metrics.Sink) (*Dispatcher, error) {
	if rt == nil || push == nil || log == nil {
		return nil, fmt.Errorf("notify: nil parameter provided to NewDispatcher")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Dispatcher{rt: rt, push: push, log: log, sink: sink}, nil
}

// Deliver sends the notification to the recipient over every enabled
// channel. Failures are observability events, not control flow: Deliver
// never returns an error.
func (d *Dispatcher) Deliver(ctx context.Context, rcpt model.Recipient, eventType string, payload map[string]any, channels model.NotificationChannels, dctx Context) {
	if channels.Socket {
		d.deliverSocket(rcpt, eventType, payload, dctx)
	}
	if channels.WebPush {
		d.deliverPush(ctx, rcpt, eventType, payload, dctx)
	}
}

func (d *Dispatcher) deliverSocket(rcpt model.Recipient, eventType string, payload map[string]any, dctx Context) {
	env := Envelope{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		Context:   dctx,
	}
	err := d.rt.EmitToRoom(rcpt.UserID, MsgNotificationNew, env)
	if err != nil {
		d.log.Warnf("socket delivery to %s failed: %v", rcpt.UserID, err)
	}
	d.record(eventType, "socket", err == nil)

	if b, _ := payload["broadcast"].(bool); b {
		if err := d.rt.EmitToRoom(BroadcastRoom, MsgNotificationBroadcast, env); err != nil {
			d.log.Warnf("broadcast delivery failed: %v", err)
		}
	}
}

func (d *Dispatcher) deliverPush(ctx context.Context, rcpt model.Recipient, eventType string, payload map[string]any, dctx Context) {
	agentType, _ := payload["agentType"].(string)
	if agentType == "" {
		agentType = dctx.AgentType
	}
	if agentType == "" {
		agentType = DefaultAgentType
	}

	outcomes, err := d.push.Send(ctx, agentType, strings.ToLower(eventType), payload, []string{rcpt.UserID})
	if err != nil {
		d.log.Warnf("push delivery to %s failed: %v", rcpt.UserID, err)
		d.record(eventType, "webpush", false)
		return
	}
	ok := true
	for _, o := range outcomes {
		if o.Err != nil {
			ok = false
			d.log.Warnf("push delivery to %s failed: %v", o.UserID, o.Err)
		}
	}
	d.record(eventType, "webpush", ok)
}

// Broadcast emits a message to the broadcast room, outside the per-recipient
// path. Used for operator-facing failure surfacing.
func (d *Dispatcher) Broadcast(msg string, payload any) {
	if err := d.rt.EmitToRoom(BroadcastRoom, msg, payload); err != nil {
		d.log.Warnf("broadcast %s failed: %v", msg, err)
	}
}

func (d *Dispatcher) record(eventType, channel string, ok bool) {
	if err := d.sink.RecordDelivery(metrics.Delivery{EventType: eventType, Channel: channel, OK: ok}); err != nil {
		d.log.Errorf("metrics error: %v", err)
	}
}
