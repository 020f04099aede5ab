package directory

import (
	"context"
	"slices"
	"sync"

	"github.com/adityakp21/chargegrid/core/geo"
	"github.com/adityakp21/chargegrid/core/model"
)

// MemoryDirectory is an in-memory Directory used by the simulator and in
// tests. Results preserve insertion order so capped queries are
// deterministic.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users []model.Recipient
}

// NewMemoryDirectory creates a directory pre-populated with the given users.
func NewMemoryDirectory(users ...model.Recipient) *MemoryDirectory {
	d := &MemoryDirectory{}
	d.Put(users...)
	return d
}

// Put inserts or replaces users by id.
func (d *MemoryDirectory) Put(users ...model.Recipient) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range users {
		replaced := false
		for i := range d.users {
			if d.users[i].UserID == u.UserID {
				d.users[i] = u
				replaced = true
				break
			}
		}
		if !replaced {
			d.users = append(d.users, u)
		}
	}
}

// Find returns snapshots of all users matching every predicate of q.
func (d *MemoryDirectory) Find(_ context.Context, q Query) ([]model.Recipient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []model.Recipient
	for _, u := range d.users {
		if !matches(u, q) {
			continue
		}
		out = append(out, u)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func matches(u model.Recipient, q Query) bool {
	if q.Active != nil && u.Active != *q.Active {
		return false
	}
	if q.UserID != "" && u.UserID != q.UserID {
		return false
	}
	if q.PreferredStation != "" && !slices.Contains(u.PreferredStations, q.PreferredStation) {
		return false
	}
	if q.RecentStation != "" && !slices.Contains(u.RecentStations, q.RecentStation) {
		return false
	}
	if q.City != "" && u.City != q.City {
		return false
	}
	if len(q.Plans) > 0 && !slices.Contains(q.Plans, u.SubscriptionPlan) {
		return false
	}
	if q.Near != nil {
		if u.Location == nil {
			return false
		}
		if !geo.WithinRadius(q.Near.Lat, q.Near.Lng, u.Location.Lat, u.Location.Lng, q.Near.RadiusKm) {
			return false
		}
	}
	return true
}
