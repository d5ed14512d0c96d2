package core

import (
	"math"

	"github.com/signalsfoundry/stellar-activity-simulator/model"
)

// Projection is the instantaneous observer-frame view of one surface point.
type Projection struct {
	// Mu is the cosine of the angle between the local surface normal and
	// the line of sight: 1 at disk centre, 0 at the limb, negative on the
	// far hemisphere.
	Mu float64
	// VLos is the projected line-of-sight velocity in m/s, positive
	// receding.
	VLos float64
	// Visible reports Mu > 0.
	Visible bool
}

// Projector maps a static (latitude, longitude) in the co-rotating frame to
// its instantaneous projection given rotation period, inclination, and
// elapsed time. It is stateless: every call is an independent pure function
// of its inputs, so no synchronization or memoization is involved.
//
// The central meridian at t = 0 is longitude 0; a feature crosses it moving
// from the approaching (negative v) to the receding (positive v) half.
type Projector struct {
	period float64 // days
	sinInc float64
	cosInc float64
	vEq    float64 // m/s
}

// NewProjector derives the projection constants from the star configuration.
func NewProjector(cfg model.StarConfig) Projector {
	incRad := cfg.Inclination * math.Pi / 180
	return Projector{
		period: cfg.Period,
		sinInc: math.Sin(incRad),
		cosInc: math.Cos(incRad),
		vEq:    cfg.EquatorialVelocity(),
	}
}

// MeridianOffset returns the longitude offset (radians) accumulated after
// elapsed time t (days): 2π·(t/period), wrapped to [0, 2π).
func (p Projector) MeridianOffset(t float64) float64 {
	frac := math.Mod(t/p.period, 1)
	if frac < 0 {
		frac += 1
	}
	return 2 * math.Pi * frac
}

// Project computes the projection of the point at (latRad, lonRad) at time t.
func (p Projector) Project(latRad, lonRad, t float64) Projection {
	return p.projectAtOffset(latRad, lonRad+p.MeridianOffset(t))
}

// projectAtOffset evaluates the projection at an already-rotated longitude.
// The per-sample offset is the same for every cell, so callers projecting a
// whole grid compute it once.
func (p Projector) projectAtOffset(latRad, rotatedLon float64) Projection {
	sinLat, cosLat := math.Sincos(latRad)
	sinLon, cosLon := math.Sincos(rotatedLon)

	mu := cosLat*cosLon*p.sinInc + sinLat*p.cosInc
	return Projection{
		Mu:      mu,
		VLos:    p.vEq * cosLat * sinLon * p.sinInc,
		Visible: mu > 0,
	}
}
