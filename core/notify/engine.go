package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/adityakp21/chargegrid/core/logger"
	"github.com/adityakp21/chargegrid/core/model"
)

// Summary reports what one notification cycle did.
type Summary struct {
	EventType  string
	Recipients int
	Channels   model.NotificationChannels
}

// Engine runs the full notification pipeline for an event: recipient
// resolution, channel resolution, then concurrent fan-out across the
// (recipient, channel) pairs. A partial fan-out is an accepted failure mode;
// there is no transactional grouping.
type Engine struct {
	recipients *RecipientResolver
	dispatcher *Dispatcher
	log        logger.Logger
}

// NewEngine creates an Engine.
func NewEngine(recipients *RecipientResolver, dispatcher *Dispatcher, log logger.Logger) (*Engine, error) {
	if recipients == nil || dispatcher == nil || log == nil {
		return nil, fmt.Errorf("notify: nil parameter provided to NewEngine")
	}
	return &Engine{recipients: recipients, dispatcher: dispatcher, log: log}, nil
}

// Notify resolves and dispatches the event, blocking until every delivery
// attempt has completed.
func (e *Engine) Notify(ctx context.Context, eventType string, payload map[string]any, dctx Context) Summary {
	rcpts := e.recipients.Resolve(ctx, eventType, payload)
	channels := ResolveChannels(eventType, payload)
	e.log.Debugw("dispatching notification", map[string]any{
		"event_type": eventType,
		"recipients": len(rcpts),
		"socket":     channels.Socket,
		"webpush":    channels.WebPush,
	})

	var wg sync.WaitGroup
	for _, rcpt := range rcpts {
		wg.Add(1)
		go func(rc model.Recipient) {
			defer wg.Done()
			e.dispatcher.Deliver(ctx, rc, eventType, payload, channels, dctx)
		}(rcpt)
	}
	wg.Wait()

	return Summary{EventType: eventType, Recipients: len(rcpts), Channels: channels}
}

// EventCoordinated runs the pipeline for an event the coordinator accepted.
// It satisfies the bus notifier contract.
func (e *Engine) EventCoordinated(ctx context.Context, ev model.Event, _ model.CoordinationResult) {
	e.Notify(ctx, ev.Type, ev.Payload, Context{AgentType: ev.AgentType})
}

// CoordinationFailed surfaces a coordination failure to operators through the
// broadcast room. It satisfies the bus notifier contract.
func (e *Engine) CoordinationFailed(_ context.Context, fn model.FailureNotification) {
	e.dispatcher.Broadcast(MsgCoordinationFailure, fn)
}
