// Package simulator generates synthetic agent traffic against the events
// channel, for load testing and local development without real station
// agents.
package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/adityakp21/chargegrid/core/model"
	"github.com/adityakp21/chargegrid/infra/logger"
)

// Publisher accepts generated events. Satisfied by the agent bus.
type Publisher interface {
	PublishEvent(ev model.Event) error
}

// Config holds parameters for the simulator.
type Config struct {
	// Stations is the size of the simulated station pool.
	Stations int `json:"stations"`
	// TickMS is the interval between emission rounds.
	TickMS int `json:"tick_ms"`
	// EventsPerTick is the mean of the Poisson draw for each round.
	EventsPerTick float64 `json:"events_per_tick"`
	// Seed fixes the random source; zero means time-based.
	Seed uint64 `json:"seed"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Stations <= 0 {
		c.Stations = 20
	}
	if c.TickMS <= 0 {
		c.TickMS = 1000
	}
	if c.EventsPerTick <= 0 {
		c.EventsPerTick = 3
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
}

// Simulator emits events from a pool of synthetic agents.
type Simulator struct {
	cfg    Config
	pub    Publisher
	log    logger.Logger
	agents []agent
	count  distuv.Poisson
	pick   *rand.Rand
}

// New creates a Simulator publishing through pub.
func New(cfg Config, pub Publisher, log logger.Logger) (*Simulator, error) {
	if pub == nil {
		return nil, fmt.Errorf("simulator: publisher is required")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	cfg.SetDefaults()
	src := rand.NewSource(cfg.Seed)
	return &Simulator{
		cfg:    cfg,
		pub:    pub,
		log:    log,
		agents: defaultAgents(src),
		count:  distuv.Poisson{Lambda: cfg.EventsPerTick, Src: src},
		pick:   rand.New(src),
	}, nil
}

// Run emits events until the context is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(s.cfg.TickMS) * time.Millisecond)
	defer ticker.Stop()
	s.log.Infof("simulator started: %d stations, %d agents", s.cfg.Stations, len(s.agents))
	for {
		select {
		case <-ctx.Done():
			s.log.Infof("simulator stopped")
			return nil
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Simulator) tick() {
	n := int(s.count.Rand())
	for i := 0; i < n; i++ {
		ev := s.nextEvent()
		if err := s.pub.PublishEvent(ev); err != nil {
			s.log.Warnf("publish %s: %v", ev.Type, err)
		}
	}
}

func (s *Simulator) nextEvent() model.Event {
	a := s.agents[s.pick.Intn(len(s.agents))]
	stationID := fmt.Sprintf("ST%03d", s.pick.Intn(s.cfg.Stations)+1)
	eventType, payload := a.draw(stationID)
	return model.Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		StationID: stationID,
		AgentType: a.name,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
