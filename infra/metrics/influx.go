package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/adityakp21/chargegrid/core/metrics"
	"github.com/adityakp21/chargegrid/infra/logger"
)

// InfluxSink writes coordination pipeline events to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAgentEvent writes the received event as a point.
func (s *InfluxSink) RecordAgentEvent(ev coremetrics.AgentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("agent_event").
		AddTag("event_type", ev.Type).
		AddTag("component", "agent_bus")
	if ev.StationID != "" {
		p = p.AddTag("station_id", ev.StationID)
	}
	p = p.AddField("count", 1).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCoordination writes the coordination outcome as a point.
func (s *InfluxSink) RecordCoordination(out coremetrics.CoordinationOutcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("coordination_result").
		AddTag("action", out.Action).
		AddTag("success", strconv.FormatBool(out.Success)).
		AddTag("component", "agent_bus").
		AddField("duration_ms", out.Duration.Seconds()*1000).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDelivery writes one channel delivery attempt as a point.
func (s *InfluxSink) RecordDelivery(d coremetrics.Delivery) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("notification_delivery").
		AddTag("event_type", d.EventType).
		AddTag("channel", d.Channel).
		AddTag("ok", strconv.FormatBool(d.OK)).
		AddTag("component", "dispatcher").
		AddField("count", 1).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying InfluxDB client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
