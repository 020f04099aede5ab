// Package metrics provides the Prometheus and InfluxDB sink implementations
// behind the core metrics contracts.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/adityakp21/chargegrid/core/metrics"
)

// PromSink records coordination pipeline events in Prometheus metrics.
type PromSink struct {
	events     *prometheus.CounterVec
	results    *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewPromSink registers the pipeline metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusAddr.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_events_total",
		Help: "Total number of agent events received on the bus",
	}, []string{"event_type", "station_id"})
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coordination_results_total",
		Help: "Total number of coordination outcomes",
	}, []string{"action", "success"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_deliveries_total",
		Help: "Total number of per-recipient channel delivery attempts",
	}, []string{"event_type", "channel", "ok"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coordination_duration_seconds",
		Help:    "Time spent coordinating one event",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	if err := reg.Register(events); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			events = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(results); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			results = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(deliveries); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			deliveries = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{events: events, results: results, deliveries: deliveries, duration: duration}, nil
}

// RecordAgentEvent increments the event counter.
func (s *PromSink) RecordAgentEvent(ev coremetrics.AgentEvent) error {
	s.events.WithLabelValues(ev.Type, ev.StationID).Inc()
	return nil
}

// RecordCoordination increments the result counter and observes the duration.
func (s *PromSink) RecordCoordination(out coremetrics.CoordinationOutcome) error {
	s.results.WithLabelValues(out.Action, strconv.FormatBool(out.Success)).Inc()
	s.duration.WithLabelValues(out.Action).Observe(out.Duration.Seconds())
	return nil
}

// RecordDelivery increments the delivery counter.
func (s *PromSink) RecordDelivery(d coremetrics.Delivery) error {
	s.deliveries.WithLabelValues(d.EventType, d.Channel, strconv.FormatBool(d.OK)).Inc()
	return nil
}
