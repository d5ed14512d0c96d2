package core

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/signalsfoundry/stellar-activity-simulator/model"
)

// CoveragePolicy selects how the explicit-spot fill factor is evaluated when
// deciding whether (and how much) random coverage to generate. The source
// configurations are ambiguous on this point, so it is configurable rather
// than guessed.
type CoveragePolicy string

const (
	// PolicyAtStart sums spots active at the first sample time. Default.
	PolicyAtStart CoveragePolicy = "at-start"
	// PolicyIgnoreLifetimes sums every explicit spot regardless of
	// lifetime windows.
	PolicyIgnoreLifetimes CoveragePolicy = "ignore-lifetimes"
	// PolicyTimeAveraged averages the active coverage over the sample
	// times.
	PolicyTimeAveraged CoveragePolicy = "time-averaged"
)

// PlacementOptions tunes the random spot generator. The defaults reproduce
// the reference behaviour: a lognormal size distribution capped per spot, and
// an activity belt at low latitudes.
type PlacementOptions struct {
	// Seed drives the single random stream consumed at generation time.
	// Identical seed and configuration reproduce identical spot sets.
	Seed int64

	// LatMin and LatMax bound the activity belt in degrees.
	LatMin float64
	LatMax float64

	// SizeLogMean and SizeLogSigma parameterize the lognormal fill-factor
	// distribution; draws are scaled by SizeScale and redrawn while they
	// exceed MaxSpotFill.
	SizeLogMean  float64
	SizeLogSigma float64
	SizeScale    float64
	MaxSpotFill  float64

	// MaxAttempts bounds total draw attempts before generation gives up
	// and reports the achieved coverage.
	MaxAttempts int

	// Policy picks the explicit-coverage evaluation (see CoveragePolicy).
	Policy CoveragePolicy
}

// DefaultPlacementOptions returns the reference generator settings.
func DefaultPlacementOptions(seed int64) PlacementOptions {
	return PlacementOptions{
		Seed:         seed,
		LatMin:       -30,
		LatMax:       30,
		SizeLogMean:  0.5,
		SizeLogSigma: 4.0,
		SizeScale:    9.4e-6,
		MaxSpotFill:  1e-3,
		MaxAttempts:  100000,
		Policy:       PolicyAtStart,
	}
}

// PlacementEngine generates random spots to close the gap between the
// explicit coverage and the target fill factor. Generation happens once,
// before any time sampling, so the random stream is consumed strictly ahead
// of the parallel phase.
type PlacementEngine struct {
	opts PlacementOptions
	rng  *rand.Rand
}

// NewPlacementEngine validates the options and seeds the generator.
func NewPlacementEngine(opts PlacementOptions) (*PlacementEngine, error) {
	if opts.LatMin < -90 || opts.LatMax > 90 || opts.LatMin >= opts.LatMax {
		return nil, configErrorf("engine.latitude_band", "invalid band [%g, %g]", opts.LatMin, opts.LatMax)
	}
	if opts.MaxSpotFill <= 0 || opts.MaxSpotFill > 1 {
		return nil, configErrorf("engine.max_spot_fill", "must be in (0, 1], got %g", opts.MaxSpotFill)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultPlacementOptions(0).MaxAttempts
	}
	switch opts.Policy {
	case PolicyAtStart, PolicyIgnoreLifetimes, PolicyTimeAveraged, "":
	default:
		return nil, configErrorf("engine.coverage_policy", "unknown policy %q", opts.Policy)
	}
	if opts.Policy == "" {
		opts.Policy = PolicyAtStart
	}

	return &PlacementEngine{
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}, nil
}

// ExplicitFill evaluates the explicit-spot coverage under the configured
// policy. times must be the run's sample times; only the time-averaged
// policy reads past the first element.
func (pe *PlacementEngine) ExplicitFill(ss *SpotSet, times []float64) float64 {
	switch pe.opts.Policy {
	case PolicyIgnoreLifetimes:
		return ss.FillFactorIgnoringLifetimes()
	case PolicyTimeAveraged:
		if len(times) == 0 {
			return ss.FillFactorIgnoringLifetimes()
		}
		var sum float64
		for _, t := range times {
			sum += ss.FillFactorAt(t)
		}
		return sum / float64(len(times))
	default:
		start := 0.0
		if len(times) > 0 {
			start = times[0]
		}
		return ss.FillFactorAt(start)
	}
}

// Generate appends random spots to the population until the total coverage
// meets or exceeds target. Explicit spots take precedence: when their
// coverage already meets the target, zero spots are generated for any seed.
//
// The last accepted spot may overshoot the target by at most MaxSpotFill;
// draws that would push total coverage above 1 are rejected outright. A
// *CoverageError is returned (alongside the spots generated so far) when the
// attempt budget runs out before the target is met.
func (pe *PlacementEngine) Generate(ss *SpotSet, target float64, times []float64) ([]model.Spot, error) {
	explicit := pe.ExplicitFill(ss, times)
	if explicit >= target {
		return nil, nil
	}

	running := explicit
	attempts := 0
	var generated []model.Spot

	for running < target {
		if attempts >= pe.opts.MaxAttempts {
			return generated, &CoverageError{Target: target, Achieved: running}
		}
		attempts++

		fill := pe.drawFill()
		if running+fill > 1 {
			continue
		}

		spot := model.Spot{
			ID:         fmt.Sprintf("gen-%d", len(generated)),
			Latitude:   pe.drawLatitude(),
			Longitude:  pe.rng.Float64() * 360,
			FillFactor: fill,
			Generated:  true,
		}

		if collides(spot, ss.spots) {
			continue
		}

		ss.append(spot)
		generated = append(generated, spot)
		running += fill
	}

	return generated, nil
}

// drawFill samples the lognormal size distribution, redrawing values above
// the per-spot cap.
func (pe *PlacementEngine) drawFill() float64 {
	for {
		v := math.Exp(pe.opts.SizeLogMean+pe.opts.SizeLogSigma*pe.rng.NormFloat64()) * pe.opts.SizeScale
		if v < pe.opts.MaxSpotFill {
			return v
		}
	}
}

// drawLatitude samples uniformly in solid angle within the activity belt:
// uniform in sin(latitude), not in latitude, so high latitudes inside the
// belt are not over-represented.
func (pe *PlacementEngine) drawLatitude() float64 {
	zMin := math.Sin(pe.opts.LatMin * math.Pi / 180)
	zMax := math.Sin(pe.opts.LatMax * math.Pi / 180)
	z := zMin + pe.rng.Float64()*(zMax-zMin)
	return math.Asin(z) * 180 / math.Pi
}

// collides reports whether the candidate overlaps any existing spot: the
// angular separation of the centres is less than the sum of the angular
// radii.
func collides(candidate model.Spot, existing []model.Spot) bool {
	cu := unitFromSpherical(candidate.Latitude*math.Pi/180, candidate.Longitude*math.Pi/180)
	cr := candidate.AngularRadius()
	for _, s := range existing {
		su := unitFromSpherical(s.Latitude*math.Pi/180, s.Longitude*math.Pi/180)
		if cu.AngularSeparation(su) < cr+s.AngularRadius() {
			return true
		}
	}
	return false
}
