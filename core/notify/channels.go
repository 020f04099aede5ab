package notify

import "github.com/adityakp21/chargegrid/core/model"

// alwaysPush lists event types delivered over webpush regardless of payload
// severity.
var alwaysPush = map[string]struct{}{
	model.EventHardwareFailure:     {},
	model.EventSelfHealingFailed:   {},
	model.EventMaintenanceRequired: {},
	model.EventIncentiveOffered:    {},
	model.EventCongestionCritical:  {},
	model.EventStockoutImminent:    {},
	model.EventInventoryCritical:   {},
	model.EventGridInstability:     {},
	model.EventPriceSpikeCritical:  {},
	model.EventComplianceViolation: {},
	model.EventAnomalyCritical:     {},
}

// neverPush lists realtime-only event types. The override wins over the
// severity rule.
var neverPush = map[string]struct{}{
	model.EventLocationUpdate: {},
	model.EventStatusUpdate:   {},
	model.EventHeartbeat:      {},
}

// ResolveChannels decides the delivery channels for an event. The socket
// channel is always enabled; webpush is enabled for high and critical
// severities and for the always-push event types. Unrecognized types fall
// back to the severity rule alone.
func ResolveChannels(eventType string, payload map[string]any) model.NotificationChannels {
	ch := model.NotificationChannels{Socket: true}

	if sev, _ := payload["severity"].(string); sev == model.SeverityCritical || sev == model.SeverityHigh {
		ch.WebPush = true
	}
	if _, ok := alwaysPush[eventType]; ok {
		ch.WebPush = true
	}
	if _, ok := neverPush[eventType]; ok {
		ch.WebPush = false
	}
	return ch
}
