// Package directory defines the read-only query contract against the user
// directory. The directory itself is an external collaborator; the core only
// issues predicate queries and consumes Recipient projections.
package directory

import (
	"context"

	"github.com/adityakp21/chargegrid/core/model"
)

// Proximity restricts a query to users within RadiusKm of a coordinate.
type Proximity struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// Query is a conjunction of predicates. Zero-valued fields are ignored.
type Query struct {
	// Active restricts to users with the given account status.
	Active *bool
	// UserID matches a single user by identifier.
	UserID string
	// PreferredStation matches users listing the station as preferred.
	PreferredStation string
	// RecentStation matches users who recently charged at the station.
	RecentStation string
	// City matches users registered in the city.
	City string
	// Plans matches users on any of the given subscription plans.
	Plans []string
	// Near restricts to users within a radius of a coordinate.
	Near *Proximity
	// Limit caps the result size; zero means unbounded.
	Limit int
}

// Directory answers predicate queries with read-only recipient snapshots.
type Directory interface {
	Find(ctx context.Context, q Query) ([]model.Recipient, error)
}

// Active is a convenience for building Query.Active pointers.
func Active(v bool) *bool { return &v }
