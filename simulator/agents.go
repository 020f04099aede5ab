package simulator

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/adityakp21/chargegrid/core/model"
)

// cities the synthetic stations are spread over.
var cities = []string{"mumbai", "pune", "bengaluru", "delhi", "hyderabad"}

// weighted is one possible emission with its relative weight.
type weighted struct {
	typ    string
	weight float64
	fill   func(p map[string]any)
}

// agent is one synthetic event source mimicking a station-side agent.
type agent struct {
	name    string
	choices []weighted
	total   float64
	rng     *rand.Rand
	norm    distuv.Normal
}

func newAgent(name string, src rand.Source, choices []weighted) agent {
	total := 0.0
	for _, c := range choices {
		total += c.weight
	}
	return agent{
		name:    name,
		choices: choices,
		total:   total,
		rng:     rand.New(src),
		norm:    distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

// draw picks an event type by weight and builds its payload.
func (a agent) draw(stationID string) (string, map[string]any) {
	r := a.rng.Float64() * a.total
	choice := a.choices[len(a.choices)-1]
	for _, c := range a.choices {
		if r < c.weight {
			choice = c
			break
		}
		r -= c.weight
	}
	payload := map[string]any{
		"stationId": stationID,
		"agentType": a.name,
	}
	if choice.fill != nil {
		choice.fill(payload)
	}
	return choice.typ, payload
}

// gauss returns mu + sigma*Z clamped to [lo, hi].
func (a agent) gauss(mu, sigma, lo, hi float64) float64 {
	v := mu + sigma*a.norm.Rand()
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (a agent) city() string {
	return cities[a.rng.Intn(len(cities))]
}

// location returns a point jittered around Mumbai, a few km spread.
func (a agent) location() map[string]any {
	return map[string]any{
		"lat": 19.0760 + a.norm.Rand()*0.03,
		"lng": 72.8777 + a.norm.Rand()*0.03,
	}
}

func defaultAgents(src rand.Source) []agent {
	var mechanic, traffic, logistics, energy, auditor agent

	mechanic = newAgent("mechanic", src, []weighted{
		{typ: model.EventHardwareFailure, weight: 2, fill: func(p map[string]any) {
			p["component"] = "charging_port"
			p["severity"] = model.SeverityHigh
		}},
		{typ: model.EventSelfHealingStarted, weight: 3},
		{typ: model.EventSelfHealingSuccess, weight: 2},
		{typ: model.EventSelfHealingFailed, weight: 1, fill: func(p map[string]any) {
			p["severity"] = model.SeverityCritical
		}},
		{typ: model.EventMaintenanceRequired, weight: 2, fill: func(p map[string]any) {
			p["severity"] = model.SeverityMedium
		}},
		{typ: model.EventStatusUpdate, weight: 5},
	})

	traffic = newAgent("traffic", src, []weighted{
		{typ: model.EventCongestionAlert, weight: 4, fill: func(p map[string]any) {
			p["utilization"] = traffic.gauss(0.85, 0.05, 0.7, 1.0)
			p["stationLocation"] = traffic.location()
		}},
		{typ: model.EventCongestionCritical, weight: 1, fill: func(p map[string]any) {
			p["utilization"] = traffic.gauss(0.97, 0.02, 0.9, 1.0)
			p["severity"] = model.SeverityCritical
			p["stationLocation"] = traffic.location()
		}},
		{typ: model.EventDemandSurge, weight: 2, fill: func(p map[string]any) {
			p["stationLocation"] = traffic.location()
		}},
		{typ: model.EventIncentiveOffered, weight: 3, fill: func(p map[string]any) {
			p["userId"] = fmt.Sprintf("u%04d", traffic.rng.Intn(1000))
			p["discountPct"] = traffic.gauss(15, 5, 5, 40)
		}},
	})

	logistics = newAgent("logistics", src, []weighted{
		{typ: model.EventStockoutPredicted, weight: 3, fill: func(p map[string]any) {
			p["city"] = logistics.city()
			p["hoursToStockout"] = logistics.gauss(6, 2, 1, 12)
		}},
		{typ: model.EventStockoutImminent, weight: 1, fill: func(p map[string]any) {
			p["city"] = logistics.city()
			p["severity"] = model.SeverityHigh
		}},
		{typ: model.EventInventoryCritical, weight: 1, fill: func(p map[string]any) {
			p["city"] = logistics.city()
			p["severity"] = model.SeverityCritical
		}},
		{typ: model.EventStationOffline, weight: 2, fill: func(p map[string]any) {
			p["city"] = logistics.city()
		}},
		{typ: model.EventStationOnline, weight: 2, fill: func(p map[string]any) {
			p["city"] = logistics.city()
		}},
	})

	energy = newAgent("energy", src, []weighted{
		{typ: model.EventPriceSpike, weight: 4, fill: func(p map[string]any) {
			p["pricePerKWh"] = energy.gauss(14, 3, 8, 30)
		}},
		{typ: model.EventPriceSpikeCritical, weight: 1, fill: func(p map[string]any) {
			p["pricePerKWh"] = energy.gauss(25, 4, 18, 45)
			p["severity"] = model.SeverityCritical
		}},
		{typ: model.EventGridInstability, weight: 1, fill: func(p map[string]any) {
			p["frequencyHz"] = energy.gauss(49.8, 0.1, 49.2, 50.2)
			p["severity"] = model.SeverityHigh
		}},
		{typ: model.EventTradingOpportunity, weight: 3},
		{typ: model.EventArbitrageExecuted, weight: 2, fill: func(p map[string]any) {
			p["profit"] = energy.gauss(1200, 400, 100, 5000)
		}},
	})

	auditor = newAgent("auditor", src, []weighted{
		{typ: model.EventAnomalyDetected, weight: 4, fill: func(p map[string]any) {
			p["severity"] = model.SeverityMedium
		}},
		{typ: model.EventAnomalyCritical, weight: 1, fill: func(p map[string]any) {
			p["severity"] = model.SeverityCritical
		}},
		{typ: model.EventComplianceViolation, weight: 1, fill: func(p map[string]any) {
			p["rule"] = "overcharge_billing"
			p["severity"] = model.SeverityHigh
		}},
		{typ: model.EventAuditComplete, weight: 3},
	})

	return []agent{mechanic, traffic, logistics, energy, auditor}
}
