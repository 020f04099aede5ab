package notify

import (
	"context"
	"fmt"

	"github.com/adityakp21/chargegrid/core/directory"
	"github.com/adityakp21/chargegrid/core/logger"
	"github.com/adityakp21/chargegrid/core/model"
)

// Fan-out bounds for market-wide events.
const (
	BroadAlertCap = 1000
	ComplianceCap = 500

	// ProximityRadiusKm is the radius for congestion alerts around a station.
	ProximityRadiusKm = 10
)

type ruleKind int

const (
	// ruleStationUsers targets users who recently charged at the named
	// station or list it as preferred.
	ruleStationUsers ruleKind = iota
	// ruleTargetUser targets the single user named in the payload.
	ruleTargetUser
	// ruleProximity targets users within radiusKm of the station location.
	ruleProximity
	// ruleStationOrCity targets preferred-station users plus same-city users.
	ruleStationOrCity
	// ruleSubscribers targets all active subscribed users, capped.
	ruleSubscribers
	// rulePremium targets premium and enterprise plan users.
	rulePremium
)

type rule struct {
	kind     ruleKind
	radiusKm float64
	cap      int
	plans    []string
}

// routes maps each event type to its routing rule. Adding an event type is a
// table change, not new control flow.
var routes = map[string]rule{
	model.EventHardwareFailure:     {kind: ruleStationUsers},
	model.EventSelfHealingStarted:  {kind: ruleStationUsers},
	model.EventSelfHealingSuccess:  {kind: ruleStationUsers},
	model.EventSelfHealingFailed:   {kind: ruleStationUsers},
	model.EventMaintenanceRequired: {kind: ruleStationUsers},

	model.EventIncentiveOffered:    {kind: ruleTargetUser},
	model.EventChargingComplete:    {kind: ruleTargetUser},
	model.EventChargingInterrupted: {kind: ruleTargetUser},
	model.EventPaymentFailed:       {kind: ruleTargetUser},

	model.EventCongestionAlert:    {kind: ruleProximity, radiusKm: ProximityRadiusKm},
	model.EventCongestionCritical: {kind: ruleProximity, radiusKm: ProximityRadiusKm},
	model.EventDemandSurge:        {kind: ruleProximity, radiusKm: ProximityRadiusKm},

	model.EventStockoutPredicted: {kind: ruleStationOrCity},
	model.EventStockoutImminent:  {kind: ruleStationOrCity},
	model.EventInventoryCritical: {kind: ruleStationOrCity},
	model.EventStationOffline:    {kind: ruleStationOrCity},
	model.EventStationOnline:     {kind: ruleStationOrCity},

	model.EventPriceSpike:          {kind: ruleSubscribers, cap: BroadAlertCap},
	model.EventPriceSpikeCritical:  {kind: ruleSubscribers, cap: BroadAlertCap},
	model.EventGridInstability:     {kind: ruleSubscribers, cap: BroadAlertCap},
	model.EventAnomalyDetected:     {kind: ruleSubscribers, cap: ComplianceCap},
	model.EventAnomalyCritical:     {kind: ruleSubscribers, cap: ComplianceCap},
	model.EventComplianceViolation: {kind: ruleSubscribers, cap: ComplianceCap},

	model.EventTradingOpportunity: {kind: rulePremium, plans: model.PremiumPlans},
	model.EventArbitrageExecuted:  {kind: rulePremium, plans: model.PremiumPlans},
	model.EventAuditComplete:      {kind: rulePremium, plans: model.PremiumPlans},
}

// RecipientResolver turns an event into the deduplicated set of users to
// notify. Resolution is a pure read against the directory: malformed or
// missing payload fields degrade to an empty result, never an error.
type RecipientResolver struct {
	dir directory.Directory
	log logger.Logger
}

// NewRecipientResolver creates a resolver backed by the given directory.
func NewRecipientResolver(dir directory.Directory, log logger.Logger) (*RecipientResolver, error) {
	if dir == nil || log == nil {
		return nil, fmt.Errorf("notify: nil parameter provided to NewRecipientResolver")
	}
	return &RecipientResolver{dir: dir, log: log}, nil
}

// Resolve returns the recipients for the event, deduplicated by user id in
// first-seen order. Unrecognized event types yield an empty set with a
// warning.
func (r *RecipientResolver) Resolve(ctx context.Context, eventType string, payload map[string]any) []model.Recipient {
	rt, ok := routes[eventType]
	if !ok {
		r.log.Warnf("no routing rule for event type %s", eventType)
		return nil
	}

	var found []model.Recipient
	switch rt.kind {
	case ruleStationUsers:
		st, _ := payload["stationId"].(string)
		if st == "" {
			r.log.Warnf("%s: missing stationId, no recipients", eventType)
			return nil
		}
		found = append(found, r.find(ctx, eventType, directory.Query{Active: directory.Active(true), RecentStation: st})...)
		found = append(found, r.find(ctx, eventType, directory.Query{Active: directory.Active(true), PreferredStation: st})...)

	case ruleTargetUser:
		uid, _ := payload["userId"].(string)
		if uid == "" {
			r.log.Warnf("%s: missing userId, no recipients", eventType)
			return nil
		}
		found = r.find(ctx, eventType, directory.Query{Active: directory.Active(true), UserID: uid})

	case ruleProximity:
		loc, isMap := payload["stationLocation"].(map[string]any)
		lat, latOK := asFloat(loc["lat"])
		lng, lngOK := asFloat(loc["lng"])
		if !isMap || !latOK || !lngOK {
			r.log.Warnf("%s: missing stationLocation, no recipients", eventType)
			return nil
		}
		found = r.find(ctx, eventType, directory.Query{
			Active: directory.Active(true),
			Near:   &directory.Proximity{Lat: lat, Lng: lng, RadiusKm: rt.radiusKm},
		})

	case ruleStationOrCity:
		st, _ := payload["stationId"].(string)
		city, _ := payload["city"].(string)
		if st == "" && city == "" {
			r.log.Warnf("%s: missing stationId and city, no recipients", eventType)
			return nil
		}
		if st != "" {
			found = append(found, r.find(ctx, eventType, directory.Query{Active: directory.Active(true), PreferredStation: st})...)
		}
		if city != "" {
			found = append(found, r.find(ctx, eventType, directory.Query{Active: directory.Active(true), City: city})...)
		}

	case ruleSubscribers:
		found = r.find(ctx, eventType, directory.Query{
			Active: directory.Active(true),
			Plans:  model.SubscribedPlans,
			Limit:  rt.cap,
		})

	case rulePremium:
		found = r.find(ctx, eventType, directory.Query{Active: directory.Active(true), Plans: rt.plans})
	}

	return dedupe(found)
}

// find runs one directory query, degrading errors to an empty result.
func (r *RecipientResolver) find(ctx context.Context, eventType string, q directory.Query) []model.Recipient {
	rcpts, err := r.dir.Find(ctx, q)
	if err != nil {
		r.log.Warnf("%s: directory query failed: %v", eventType, err)
		return nil
	}
	return rcpts
}

// dedupe removes duplicate user ids, keeping the first occurrence.
func dedupe(in []model.Recipient) []model.Recipient {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, rc := range in {
		if _, dup := seen[rc.UserID]; dup {
			continue
		}
		seen[rc.UserID] = struct{}{}
		out = append(out, rc)
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
