package model

// Subscription plans known to the user directory.
const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

// SubscribedPlans lists the plans counted as an active subscription.
var SubscribedPlans = []string{PlanBasic, PlanPremium, PlanEnterprise}

// PremiumPlans lists the plans eligible for premium-only events.
var PremiumPlans = []string{PlanPremium, PlanEnterprise}

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Recipient is a read-only projection of a directory user taken at
// resolution time. The core never mutates user records.
type Recipient struct {
	UserID            string    `json:"userId"`
	City              string    `json:"city,omitempty"`
	SubscriptionPlan  string    `json:"subscriptionPlan,omitempty"`
	PreferredStations []string  `json:"preferredStations,omitempty"`
	RecentStations    []string  `json:"recentStations,omitempty"`
	Active            bool      `json:"active"`
	Location          *Location `json:"location,omitempty"`
}

// Subscribed reports whether the recipient holds an active paid subscription.
func (r Recipient) Subscribed() bool {
	for _, p := range SubscribedPlans {
		if r.SubscriptionPlan == p {
			return true
		}
	}
	return false
}

// NotificationChannels is the per-event channel decision. It is derived, not
// persisted.
type NotificationChannels struct {
	Socket  bool `json:"socket"`
	WebPush bool `json:"webpush"`
}
