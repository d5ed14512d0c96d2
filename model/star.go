package model

import "math"

// Physical constants used to convert star parameters into observable units.
const (
	// SolarRadiusM is the solar radius in metres; StarConfig.Radius is
	// expressed in this unit.
	SolarRadiusM = 6.96e8
	// DaySeconds converts the rotation period (days) into seconds.
	DaySeconds = 86400.0
	// SpeedOfLightMS is used to turn the instrument resolving power into a
	// radial-velocity resolution element.
	SpeedOfLightMS = 2.99792458e8
)

// StarConfig describes the star being simulated. It is loaded once and never
// mutated during a run.
type StarConfig struct {
	// GridSize is the linear resolution of the surface discretization.
	GridSize int
	// Radius is the stellar radius in solar radii.
	Radius float64
	// Period is the rotation period in days. All projected quantities are
	// periodic with this period.
	Period float64
	// Inclination is the angle between the rotation axis and the line of
	// sight, in degrees. 90 is equator-on, 0/180 pole-on.
	Inclination float64
	// Temperature is the photospheric effective temperature in Kelvin.
	Temperature float64
	// SpotTempDiff is subtracted from Temperature for spot cells, so a
	// positive value is a cooler, darker spot and a negative value a bright
	// feature.
	SpotTempDiff float64
	// LimbLinear and LimbQuadratic are the quadratic limb-darkening
	// coefficients.
	LimbLinear    float64
	LimbQuadratic float64
	// TargetFillFactor is the desired total spot coverage fraction of the
	// stellar surface in [0, 1].
	TargetFillFactor float64
	// InstrumentResolution is the spectral resolving power of the observing
	// instrument. It sets an RV noise floor and does not affect geometry.
	InstrumentResolution float64
}

// EquatorialVelocity returns the equatorial rotation speed in m/s.
func (c StarConfig) EquatorialVelocity() float64 {
	return 2 * math.Pi * c.Radius * SolarRadiusM / (c.Period * DaySeconds)
}

// RVResolutionSigma returns the Gaussian sigma (m/s) of one instrument
// resolution element, converting the FWHM c/R to sigma.
func (c StarConfig) RVResolutionSigma() float64 {
	if c.InstrumentResolution <= 0 {
		return 0
	}
	const fwhmToSigma = 2.3548200450309493 // 2*sqrt(2*ln 2)
	return SpeedOfLightMS / c.InstrumentResolution / fwhmToSigma
}
