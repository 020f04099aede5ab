package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/adityakp21/chargegrid/core/notify"
	"github.com/adityakp21/chargegrid/infra/logger"
)

// Config holds the VAPID signing material.
type Config struct {
	VAPIDPublicKey  string `json:"vapid_public_key"`
	VAPIDPrivateKey string `json:"vapid_private_key"`
	Subscriber      string `json:"subscriber"`
	TTLSeconds      int    `json:"ttl_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TTLSeconds <= 0 {
		c.TTLSeconds = 3600
	}
}

// Validate checks the configuration for completeness.
func (c Config) Validate() error {
	if c.VAPIDPublicKey == "" || c.VAPIDPrivateKey == "" {
		return fmt.Errorf("push: vapid key pair required")
	}
	if c.Subscriber == "" {
		return fmt.Errorf("push: subscriber contact required")
	}
	return nil
}

var sendNotification = webpush.SendNotification

// titles maps the originating agent type to a human notification title.
var titles = map[string]string{
	"mechanic":  "Station Maintenance",
	"traffic":   "Traffic Advisory",
	"logistics": "Station Availability",
	"energy":    "Energy Market Alert",
	"auditor":   "Compliance Notice",
}

// message is the JSON document handed to the service worker.
type message struct {
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Tag       string         `json:"tag"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Sender delivers web push notifications to every subscription of each
// recipient. It implements the dispatcher's push contract.
type Sender struct {
	cfg   Config
	store SubscriptionStore
	log   logger.Logger
}

// NewSender creates a Sender backed by the subscription store.
func NewSender(cfg Config, store SubscriptionStore, log logger.Logger) (*Sender, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("push: subscription store is required")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Sender{cfg: cfg, store: store, log: log}, nil
}

// Send pushes the notification to each user's subscriptions. A user with no
// subscriptions is skipped silently; a user whose every endpoint fails gets
// an error in their outcome. Endpoints the push service reports as gone are
// pruned from the store.
func (s *Sender) Send(ctx context.Context, agentType, eventTag string, payload map[string]any, userIDs []string) ([]notify.PushOutcome, error) {
	title, ok := titles[agentType]
	if !ok {
		title = "Charging Network Alert"
	}
	body, err := json.Marshal(message{
		Title:     title,
		Body:      bodyText(payload),
		Tag:       eventTag,
		Data:      payload,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("push: encode message: %w", err)
	}

	opts := &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTLSeconds,
	}

	outcomes := make([]notify.PushOutcome, 0, len(userIDs))
	for _, userID := range userIDs {
		subs, err := s.store.Get(ctx, userID)
		if err != nil {
			outcomes = append(outcomes, notify.PushOutcome{UserID: userID, Err: err})
			continue
		}
		if len(subs) == 0 {
			continue
		}
		var lastErr error
		delivered := false
		for _, sub := range subs {
			if err := s.sendOne(ctx, body, sub, opts, userID); err != nil {
				lastErr = err
				continue
			}
			delivered = true
		}
		out := notify.PushOutcome{UserID: userID}
		if !delivered {
			out.Err = lastErr
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (s *Sender) sendOne(ctx context.Context, body []byte, sub Subscription, opts *webpush.Options, userID string) error {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.Keys.P256dh, Auth: sub.Keys.Auth},
	}
	resp, err := sendNotification(body, target, opts)
	if err != nil {
		return fmt.Errorf("push: %s: %w", sub.Endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		s.log.Infof("pruning expired subscription for %s", userID)
		if err := s.store.Remove(ctx, userID, sub.Endpoint); err != nil {
			s.log.Warnf("prune subscription: %v", err)
		}
		return fmt.Errorf("push: subscription expired")
	case resp.StatusCode >= 400:
		return fmt.Errorf("push: endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func bodyText(payload map[string]any) string {
	if msg, ok := payload["message"].(string); ok && msg != "" {
		return msg
	}
	if station, ok := payload["stationId"].(string); ok && station != "" {
		return fmt.Sprintf("Update for station %s", station)
	}
	return "Tap to view details"
}
