package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakp21/chargegrid/infra/logger"
)

type sentPush struct {
	endpoint string
	body     []byte
}

func stubSend(t *testing.T, status map[string]int) *[]sentPush {
	t.Helper()
	var mu sync.Mutex
	var sent []sentPush
	sendNotification = func(body []byte, s *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, sentPush{endpoint: s.Endpoint, body: body})
		code, ok := status[s.Endpoint]
		if !ok {
			code = http.StatusCreated
		}
		if code == 0 {
			return nil, fmt.Errorf("connection refused")
		}
		return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(""))}, nil
	}
	t.Cleanup(func() { sendNotification = webpush.SendNotification })
	return &sent
}

func newTestSender(t *testing.T, store SubscriptionStore) *Sender {
	t.Helper()
	s, err := NewSender(Config{
		VAPIDPublicKey:  "pub",
		VAPIDPrivateKey: "priv",
		Subscriber:      "mailto:ops@example.com",
	}, store, logger.NopLogger{})
	require.NoError(t, err)
	return s
}

func TestSend_AllSubscriptionsOfEachUser(t *testing.T) {
	sent := stubSend(t, nil)
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "u1", Subscription{Endpoint: "https://push/a"}))
	require.NoError(t, store.Put(ctx, "u1", Subscription{Endpoint: "https://push/b"}))
	require.NoError(t, store.Put(ctx, "u2", Subscription{Endpoint: "https://push/c"}))

	s := newTestSender(t, store)
	out, err := s.Send(ctx, "mechanic", "hardware_failure", map[string]any{"stationId": "ST001"}, []string{"u1", "u2"})
	require.NoError(t, err)

	require.Len(t, out, 2)
	for _, o := range out {
		assert.NoError(t, o.Err)
	}
	assert.Len(t, *sent, 3)

	var msg message
	require.NoError(t, json.Unmarshal((*sent)[0].body, &msg))
	assert.Equal(t, "Station Maintenance", msg.Title)
	assert.Equal(t, "hardware_failure", msg.Tag)
}

func TestSend_UserWithoutSubscriptionsSkipped(t *testing.T) {
	sent := stubSend(t, nil)
	store := NewMemoryStore()
	s := newTestSender(t, store)

	out, err := s.Send(context.Background(), "energy", "price_spike", nil, []string{"ghost"})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, *sent)
}

func TestSend_ExpiredEndpointPruned(t *testing.T) {
	stubSend(t, map[string]int{"https://push/gone": http.StatusGone})
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "u1", Subscription{Endpoint: "https://push/gone"}))

	s := newTestSender(t, store)
	out, err := s.Send(ctx, "auditor", "compliance_violation", nil, []string{"u1"})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Error(t, out[0].Err)

	subs, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, subs, "expired endpoint must be removed")
}

func TestSend_OneGoodEndpointIsSuccess(t *testing.T) {
	stubSend(t, map[string]int{"https://push/bad": 0})
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "u1", Subscription{Endpoint: "https://push/bad"}))
	require.NoError(t, store.Put(ctx, "u1", Subscription{Endpoint: "https://push/good"}))

	s := newTestSender(t, store)
	out, err := s.Send(ctx, "traffic", "congestion_alert", nil, []string{"u1"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.NoError(t, out[0].Err)
}

func TestNewSender_RequiresVAPIDKeys(t *testing.T) {
	_, err := NewSender(Config{Subscriber: "mailto:ops@example.com"}, NewMemoryStore(), logger.NopLogger{})
	assert.Error(t, err)
}

func TestSend_DefaultTitle(t *testing.T) {
	sent := stubSend(t, nil)
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "u1", Subscription{Endpoint: "https://push/a"}))

	s := newTestSender(t, store)
	_, err := s.Send(ctx, "system", "grid_instability", map[string]any{"message": "grid frequency drop"}, []string{"u1"})
	require.NoError(t, err)

	var msg message
	require.NoError(t, json.Unmarshal((*sent)[0].body, &msg))
	assert.Equal(t, "Charging Network Alert", msg.Title)
	assert.Equal(t, "grid frequency drop", msg.Body)
}
