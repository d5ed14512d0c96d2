package core

// LimbDarkening is the quadratic limb-darkening law
//
//	I(μ) = 1 − a·(1−μ) − b·(1−μ)²
//
// where μ is the cosine of the angle between the local surface normal and the
// line of sight (1 at disk centre, 0 at the limb). Cells with μ < 0 face away
// from the observer and contribute nothing.
type LimbDarkening struct {
	Linear    float64
	Quadratic float64
}

// NewLimbDarkening validates that the law stays non-negative for every
// μ ∈ [0, 1] at the given coefficients. The check runs once here, not per
// cell, so a bad configuration fails fast.
func NewLimbDarkening(linear, quadratic float64) (LimbDarkening, error) {
	ld := LimbDarkening{Linear: linear, Quadratic: quadratic}

	// I as a function of u = 1−μ on [0, 1] is the quadratic
	// f(u) = 1 − a·u − b·u². Its minimum over the interval is at an
	// endpoint, or at the vertex u* = −a/(2b) when that lies inside and the
	// parabola opens upward (b < 0).
	if ld.Intensity(0) < 0 { // μ = 0, u = 1
		return ld, configErrorf("limb_linear/limb_quadratic",
			"intensity negative at the limb: 1 - %g - %g = %g", linear, quadratic, ld.Intensity(0))
	}
	if b := quadratic; b < 0 {
		if u := -linear / (2 * b); u > 0 && u < 1 {
			if min := 1 - linear*u - b*u*u; min < 0 {
				return ld, configErrorf("limb_linear/limb_quadratic",
					"intensity negative at mu=%g: %g", 1-u, min)
			}
		}
	}
	return ld, nil
}

// Intensity returns the relative intensity at the given μ. Values with μ < 0
// are invisible and return 0.
func (ld LimbDarkening) Intensity(mu float64) float64 {
	if mu < 0 {
		return 0
	}
	u := 1 - mu
	return 1 - ld.Linear*u - ld.Quadratic*u*u
}
