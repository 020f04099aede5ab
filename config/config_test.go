package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `mqtt:
  broker: "tcp://localhost:1883"
  client_id: "chargegrid-1"
  username: "user"
  password: "pass"
bus:
  events_channel: "agent_events"
  coordination_channel: "agent_coordination"
  coordination_timeout_seconds: 10
  max_concurrent: 4
realtime:
  addr: ":8085"
  path: "/ws"
push:
  vapid_public_key: "pub"
  vapid_private_key: "priv"
  subscriber: "mailto:ops@example.com"
metrics:
  prometheus_enabled: true
  prometheus_addr: ":9091"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "chargegrid-1", cfg.MQTT.ClientID)
	assert.Equal(t, "agent_events", cfg.Bus.EventsChannel)
	assert.Equal(t, "agent_coordination", cfg.Bus.CoordinationChannel)
	assert.Equal(t, 10, cfg.Bus.CoordinationTimeoutSeconds)
	assert.Equal(t, 4, cfg.Bus.MaxConcurrent)
	assert.Equal(t, ":8085", cfg.Realtime.Addr)
	assert.Equal(t, "/ws", cfg.Realtime.Path)
	assert.Equal(t, "pub", cfg.Push.VAPIDPublicKey)
	assert.Equal(t, "mailto:ops@example.com", cfg.Push.Subscriber)
	assert.True(t, cfg.Metrics.PrometheusEnabled)
	assert.Equal(t, ":9091", cfg.Metrics.PrometheusAddr)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "mqtt:\n  broker: \"tcp://localhost:1883\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "agent_events", cfg.Bus.EventsChannel)
	assert.Equal(t, 30, cfg.Bus.CoordinationTimeoutSeconds)
	assert.Equal(t, ":8081", cfg.Realtime.Addr)
	assert.Equal(t, ":9090", cfg.Metrics.PrometheusAddr)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "mqtt:\n  broker: \"tcp://localhost:1883\"\n")

	t.Setenv("CG_MQTT__CLIENT_ID", "from-env")
	t.Setenv("CG_BUS__EVENTS_CHANNEL", "events-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.MQTT.ClientID)
	assert.Equal(t, "events-env", cfg.Bus.EventsChannel)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	_, err := Load("config.toml")
	require.Error(t, err)
}
