package model

import "math"

// Lifetime bounds a spot's presence on the surface. Bounds are inclusive: a
// spot at its exact start or end instant is present.
type Lifetime struct {
	Start float64
	End   float64
}

// Contains reports whether t falls inside the lifetime window.
func (l Lifetime) Contains(t float64) bool {
	return t >= l.Start && t <= l.End
}

// Spot is a surface feature fixed in the star's co-rotating frame.
type Spot struct {
	// ID identifies the spot: explicit spots are named by configuration
	// order, generated spots get synthetic identifiers.
	ID string
	// Latitude in degrees, [-90, 90].
	Latitude float64
	// Longitude in degrees, wrapped into [0, 360).
	Longitude float64
	// FillFactor is the fraction of the total stellar surface covered, in
	// (0, 1]. Area, not linear radius.
	FillFactor float64
	// Lifetime is nil for a spot present for all simulated time.
	Lifetime *Lifetime
	// Generated marks spots produced by the placement engine rather than
	// the scenario file.
	Generated bool
}

// ActiveAt reports whether the spot is on the surface at time t. It is a pure
// function of t so repeated queries are idempotent.
func (s Spot) ActiveAt(t float64) bool {
	return s.Lifetime == nil || s.Lifetime.Contains(t)
}

// AngularRadius returns the angular radius (radians) of the spherical cap
// covering FillFactor of the total surface: cap area 2π(1−cos α) out of 4π.
func (s Spot) AngularRadius() float64 {
	cosAlpha := 1 - 2*s.FillFactor
	if cosAlpha < -1 {
		cosAlpha = -1
	}
	return math.Acos(cosAlpha)
}

// Normalize wraps Longitude into [0, 360). Latitude is left alone; values
// outside [-90, 90] are a validation error, not a wrapping case.
func (s *Spot) Normalize() {
	lon := math.Mod(s.Longitude, 360)
	if lon < 0 {
		lon += 360
	}
	s.Longitude = lon
}
