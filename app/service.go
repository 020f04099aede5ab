// Package app wires the configured components into a runnable service.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adityakp21/chargegrid/config"
	"github.com/adityakp21/chargegrid/core/bus"
	"github.com/adityakp21/chargegrid/core/coordination"
	"github.com/adityakp21/chargegrid/core/directory"
	coremetrics "github.com/adityakp21/chargegrid/core/metrics"
	"github.com/adityakp21/chargegrid/core/notify"
	"github.com/adityakp21/chargegrid/core/registry"
	"github.com/adityakp21/chargegrid/infra/logger"
	"github.com/adityakp21/chargegrid/infra/metrics"
	"github.com/adityakp21/chargegrid/infra/mqtt"
	"github.com/adityakp21/chargegrid/infra/push"
	"github.com/adityakp21/chargegrid/infra/realtime"
)

// Service orchestrates the agent bus, the notification engine and the
// realtime hub.
type Service struct {
	Bus       *bus.AgentBus
	Hub       *realtime.Hub
	Registry  *registry.ConnectionRegistry
	Directory *directory.MemoryDirectory
	Engine    *notify.Engine

	cfg *config.Config
	log logger.Logger
}

// New creates a Service from the configuration. A nil coordinator defaults
// to the monitoring coordinator, which approves every event without issuing
// follow-up actions.
func New(cfg *config.Config, coord coordination.Coordinator) (*Service, error) {
	logg := logger.New("service")
	broker, err := mqtt.NewPahoBroker(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt broker: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	reg := registry.NewConnectionRegistry()
	hub, err := realtime.NewHub(cfg.Realtime, reg, logger.New("realtime"))
	if err != nil {
		return nil, fmt.Errorf("realtime hub: %w", err)
	}

	var pusher notify.PushSender = notify.NopPushSender{}
	if cfg.Push.VAPIDPublicKey != "" {
		pusher, err = push.NewSender(cfg.Push, push.NewMemoryStore(), logger.New("push"))
		if err != nil {
			return nil, fmt.Errorf("push sender: %w", err)
		}
	} else {
		logg.Warnf("no VAPID keys configured, web push disabled")
	}

	dir := directory.NewMemoryDirectory()
	resolver, err := notify.NewRecipientResolver(dir, logger.New("resolver"))
	if err != nil {
		return nil, fmt.Errorf("recipient resolver: %w", err)
	}
	dispatcher, err := notify.NewDispatcher(hub, pusher, logger.New("dispatcher"), sink)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	engine, err := notify.NewEngine(resolver, dispatcher, logger.New("notify"))
	if err != nil {
		return nil, fmt.Errorf("notify engine: %w", err)
	}

	if coord == nil {
		coord = coordination.MonitorCoordinator{}
	}
	agentBus, err := bus.New(broker, coord, engine, cfg.Bus, logger.New("agent_bus"), sink)
	if err != nil {
		return nil, fmt.Errorf("agent bus: %w", err)
	}

	return &Service{
		Bus:       agentBus,
		Hub:       hub,
		Registry:  reg,
		Directory: dir,
		Engine:    engine,
		cfg:       cfg,
		log:       logg,
	}, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Bus.Start(ctx); err != nil {
		return fmt.Errorf("bus start: %w", err)
	}

	wsMux := http.NewServeMux()
	wsMux.Handle(s.cfg.Realtime.Path, s.Hub)
	wsSrv := &http.Server{Addr: s.cfg.Realtime.Addr, Handler: wsMux}
	go func() {
		<-ctx.Done()
		_ = wsSrv.Close()
	}()
	go func() {
		s.log.Infof("realtime hub listening on %s%s", s.cfg.Realtime.Addr, s.cfg.Realtime.Path)
		if err := wsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("realtime server: %v", err)
		}
	}()

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			health := func() any { return s.Bus.Health() }
			if err := metrics.StartServer(ctx, s.cfg.Metrics.PrometheusAddr, health); err != nil {
				s.log.Errorf("metrics server: %v", err)
			}
		}()
	}

	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() {
	s.Bus.Close()
}
