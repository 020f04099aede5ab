// Package geo provides great-circle distance helpers used by the
// proximity routing rules.
package geo

import "math"

const earthRadiusKm = 6371

// DistanceKm returns the haversine distance between two coordinates in
// kilometers.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Pow(math.Sin(dLng/2), 2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// WithinRadius reports whether the target lies within radiusKm of the center.
func WithinRadius(centerLat, centerLng, lat, lng, radiusKm float64) bool {
	return DistanceKm(centerLat, centerLng, lat, lng) <= radiusKm
}
