package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPayloadAccessors(t *testing.T) {
	ev := Event{
		Type: EventCongestionCritical,
		Payload: map[string]any{
			"severity":  SeverityCritical,
			"userId":    "u42",
			"city":      "mumbai",
			"broadcast": true,
			"stationLocation": map[string]any{
				"lat": 19.0760,
				"lng": 72.8777,
			},
		},
	}

	assert.Equal(t, SeverityCritical, ev.Severity())
	assert.Equal(t, "u42", ev.TargetUserID())
	assert.Equal(t, "mumbai", ev.City())
	assert.True(t, ev.Broadcast())

	lat, lng, ok := ev.StationLocation()
	require.True(t, ok)
	assert.InDelta(t, 19.0760, lat, 1e-9)
	assert.InDelta(t, 72.8777, lng, 1e-9)
}

func TestEventPayloadAccessorsAbsent(t *testing.T) {
	ev := Event{Type: EventHeartbeat}
	assert.Empty(t, ev.Severity())
	assert.Empty(t, ev.TargetUserID())
	assert.Empty(t, ev.City())
	assert.False(t, ev.Broadcast())
	_, _, ok := ev.StationLocation()
	assert.False(t, ok)
}

func TestStationLocationSurvivesJSONRoundTrip(t *testing.T) {
	// Decoded JSON numbers arrive as float64; integer literals must still
	// parse as coordinates.
	raw := `{"eventId":"E1","type":"CONGESTION_ALERT","payload":{"stationLocation":{"lat":19,"lng":72.8777}}}`
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	lat, lng, ok := ev.StationLocation()
	require.True(t, ok)
	assert.Equal(t, 19.0, lat)
	assert.Equal(t, 72.8777, lng)
}

func TestRecipientSubscribed(t *testing.T) {
	assert.True(t, Recipient{SubscriptionPlan: PlanBasic}.Subscribed())
	assert.True(t, Recipient{SubscriptionPlan: PlanEnterprise}.Subscribed())
	assert.False(t, Recipient{SubscriptionPlan: PlanFree}.Subscribed())
	assert.False(t, Recipient{}.Subscribed())
}
