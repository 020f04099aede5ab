// Package push implements the web push channel: VAPID-signed notifications
// delivered to browser subscriptions.
package push

import (
	"context"
	"sync"
)

// Keys are the client encryption keys from the browser subscription.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one browser push endpoint for a user. A user can hold
// several, one per browser or device.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

// SubscriptionStore resolves users to their push subscriptions.
type SubscriptionStore interface {
	Get(ctx context.Context, userID string) ([]Subscription, error)
	Put(ctx context.Context, userID string, sub Subscription) error
	// Remove drops a single endpoint, used when the push service reports
	// the subscription expired.
	Remove(ctx context.Context, userID, endpoint string) error
}

// MemoryStore is an in-memory SubscriptionStore keyed by user.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]map[string]Subscription
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]map[string]Subscription)}
}

// Get returns all subscriptions for the user.
func (s *MemoryStore) Get(_ context.Context, userID string) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Subscription, 0, len(s.subs[userID]))
	for _, sub := range s.subs[userID] {
		out = append(out, sub)
	}
	return out, nil
}

// Put upserts the subscription, keyed by endpoint.
func (s *MemoryStore) Put(_ context.Context, userID string, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[string]Subscription)
	}
	s.subs[userID][sub.Endpoint] = sub
	return nil
}

// Remove drops the endpoint for the user.
func (s *MemoryStore) Remove(_ context.Context, userID, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[userID], endpoint)
	if len(s.subs[userID]) == 0 {
		delete(s.subs, userID)
	}
	return nil
}
