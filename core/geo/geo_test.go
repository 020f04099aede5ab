package geo

import "testing"

func TestDistanceKm(t *testing.T) {
	// Bangalore city center to the airport, roughly 32 km.
	d := DistanceKm(12.9716, 77.5946, 13.1986, 77.7066)
	if d < 26 || d > 30 {
		t.Fatalf("unexpected distance %.2f", d)
	}
}

func TestDistanceKmZero(t *testing.T) {
	if d := DistanceKm(12.97, 77.59, 12.97, 77.59); d != 0 {
		t.Fatalf("expected 0 got %f", d)
	}
}

func TestWithinRadius(t *testing.T) {
	if !WithinRadius(12.9716, 77.5946, 12.9750, 77.6000, 1) {
		t.Fatalf("expected point within 1km")
	}
	if WithinRadius(12.9716, 77.5946, 13.1986, 77.7066, 10) {
		t.Fatalf("expected point outside 10km")
	}
}
