package model

// Sample is one record of the disk-integrated time series.
type Sample struct {
	// Time in the simulation clock unit (days).
	Time float64
	// Flux is the disk-integrated flux normalized to the spot-free star,
	// so a quiet star reads 1.0.
	Flux float64
	// RV is the flux-weighted line-of-sight velocity in m/s, positive
	// receding, relative to the quiet-star zero point.
	RV float64
	// RVSigma is the instrument-resolution noise floor in m/s.
	RVSigma float64
	// Valid is false for numerically degenerate samples (zero visible
	// flux); the rest of the record is then meaningless.
	Valid bool
}
