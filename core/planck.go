package core

import "math"

// Default observation band in metres (4000–7000 Å, visible light).
const (
	DefaultBandMin = 4000e-10
	DefaultBandMax = 7000e-10
)

// planckIntensity is the spectral radiance B(λ, T) of a blackbody at
// wavelength λ (metres) and temperature T (Kelvin).
func planckIntensity(lambda, temp float64) float64 {
	const (
		h = 6.62607015e-34 // Planck constant, J·s
		c = 2.99792458e8   // speed of light, m/s
		k = 1.380649e-23   // Boltzmann constant, J/K
	)
	exponent := h * c / (lambda * k * temp)
	return 2 * h * c * c / math.Pow(lambda, 5) / (math.Exp(exponent) - 1)
}

// PlanckIntegral integrates the blackbody radiance of a surface at
// temperature temp over the wavelength band [min, max] using composite
// Simpson's rule. The absolute scale cancels in the simulation, which only
// consumes ratios of these integrals.
func PlanckIntegral(temp, min, max float64) float64 {
	if temp <= 0 || max <= min {
		return 0
	}

	const steps = 200 // even; the integrand is smooth over the visible band
	h := (max - min) / steps

	sum := planckIntensity(min, temp) + planckIntensity(max, temp)
	for i := 1; i < steps; i++ {
		lambda := min + float64(i)*h
		if i%2 == 1 {
			sum += 4 * planckIntensity(lambda, temp)
		} else {
			sum += 2 * planckIntensity(lambda, temp)
		}
	}
	return sum * h / 3
}

// SpotContrast returns the brightness of a spot surface relative to the
// photosphere over the given band: the ratio of the two Planck integrals.
// Cooler spots give values below 1, bright features above 1.
func SpotContrast(starTemp, spotTemp, bandMin, bandMax float64) float64 {
	star := PlanckIntegral(starTemp, bandMin, bandMax)
	if star == 0 {
		return 0
	}
	return PlanckIntegral(spotTemp, bandMin, bandMax) / star
}
