package core

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/stellar-activity-simulator/internal/logging"
	"github.com/signalsfoundry/stellar-activity-simulator/model"
	"github.com/signalsfoundry/stellar-activity-simulator/timectrl"
)

// MetricsRecorder receives run-level observations. The observability
// collector satisfies it; a nil recorder disables recording.
type MetricsRecorder interface {
	RunStarted()
	RunCompleted(duration time.Duration, samples int)
	SampleObserved(duration time.Duration)
	DegenerateSample()
	SetSpotCounts(explicit, generated int)
}

// Options configures a Driver beyond the star parameters themselves.
type Options struct {
	// Placement tunes random spot generation; Placement.Seed is the run
	// seed.
	Placement PlacementOptions
	// Strict promotes coverage shortfalls from warnings to errors.
	Strict bool
	// SimulateNoise perturbs each RV by the instrument noise floor using a
	// reproducible stream derived from the run seed.
	SimulateNoise bool
	// BandMin and BandMax bound the observation band in metres; zero
	// values select the visible-light default.
	BandMin float64
	BandMax float64
	// SampleWorkers and CellWorkers cap the two parallel axes. Values
	// below 2 run that axis sequentially. Results are bit-identical for
	// any worker count: samples write to their own index and cell chunks
	// combine in a fixed order.
	SampleWorkers int
	CellWorkers   int

	Logger  logging.Logger
	Metrics MetricsRecorder
}

// RunResult is the outcome of one simulation run.
type RunResult struct {
	Samples []model.Sample
	// Spots is the full population: explicit spots in configuration order,
	// then generated spots in generation order.
	Spots []model.Spot
	// AchievedFill is the total coverage under the configured policy after
	// generation.
	AchievedFill float64
	// CoverageWarning is set when the target fill factor could not be
	// reached (nil in strict mode, where the run fails instead).
	CoverageWarning *CoverageError
}

// Driver runs the requested time series: it assembles the grid, limb
// darkening, spot population, and integrator once, then evaluates each sample
// as an independent pure function of time. Running the same configuration,
// seed, and time grid twice yields identical output.
type Driver struct {
	cfg  model.StarConfig
	opts Options
	log  logging.Logger
}

// NewDriver validates the star configuration up front; all ConfigErrors
// surface here, before any simulation work.
func NewDriver(cfg model.StarConfig, opts Options) (*Driver, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if opts.BandMin == 0 && opts.BandMax == 0 {
		opts.BandMin, opts.BandMax = DefaultBandMin, DefaultBandMax
	}
	if opts.BandMax <= opts.BandMin {
		return nil, configErrorf("band", "band max %g must exceed min %g", opts.BandMax, opts.BandMin)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &Driver{cfg: cfg, opts: opts, log: log}, nil
}

// Run simulates the given explicit spots over the sample times.
func (d *Driver) Run(ctx context.Context, explicit []model.Spot, times []float64) (*RunResult, error) {
	tracer := otel.Tracer("core/driver")
	ctx, span := tracer.Start(ctx, "simulation.run")
	defer span.End()

	if err := timectrl.Validate(times); err != nil {
		return nil, err
	}

	started := time.Now()
	if d.opts.Metrics != nil {
		d.opts.Metrics.RunStarted()
	}

	ss, err := NewSpotSet(explicit)
	if err != nil {
		return nil, err
	}

	result := &RunResult{}

	// Explicit coverage above 1 is never silent: the population is
	// unusable as configured, so no random spots are generated and the
	// shortfall surfaces as a coverage violation.
	if sum := ss.FillFactorIgnoringLifetimes(); sum > 1 {
		cov := &CoverageError{Target: d.cfg.TargetFillFactor, Achieved: sum}
		if d.opts.Strict {
			return nil, cov
		}
		d.log.Warn(ctx, "explicit spot coverage exceeds the full surface",
			logging.Float64("fill_factor_sum", sum))
		result.CoverageWarning = cov
		if d.opts.Metrics != nil {
			d.opts.Metrics.SetSpotCounts(len(explicit), 0)
		}
	} else {
		engine, err := NewPlacementEngine(d.opts.Placement)
		if err != nil {
			return nil, err
		}
		generated, genErr := engine.Generate(ss, d.cfg.TargetFillFactor, times)
		if genErr != nil {
			cov := genErr.(*CoverageError)
			if d.opts.Strict {
				return nil, cov
			}
			d.log.Warn(ctx, "random placement fell short of target coverage",
				logging.Float64("target", cov.Target),
				logging.Float64("achieved", cov.Achieved))
			result.CoverageWarning = cov
		}
		if d.opts.Metrics != nil {
			d.opts.Metrics.SetSpotCounts(len(explicit), len(generated))
		}
		d.log.Info(ctx, "spot population ready",
			logging.Int("explicit", len(explicit)),
			logging.Int("generated", len(generated)))
	}

	grid, err := NewGrid(d.cfg.GridSize)
	if err != nil {
		return nil, err
	}
	limb, err := NewLimbDarkening(d.cfg.LimbLinear, d.cfg.LimbQuadratic)
	if err != nil {
		return nil, err
	}

	result.Spots = ss.All()
	result.AchievedFill = ss.FillFactorAt(times[0])

	integrator, err := NewDiskIntegrator(d.cfg, grid, limb, result.Spots, d.opts.BandMin, d.opts.BandMax, d.opts.CellWorkers)
	if err != nil {
		return nil, err
	}

	// The noise stream is drawn sequentially before the parallel phase so
	// sample evaluation stays a pure function of its index.
	sigma := d.cfg.RVResolutionSigma()
	var noise []float64
	if d.opts.SimulateNoise && sigma > 0 {
		noiseRNG := rand.New(rand.NewSource(d.opts.Placement.Seed ^ 0x5deece66d))
		noise = make([]float64, len(times))
		for i := range noise {
			noise[i] = noiseRNG.NormFloat64() * sigma
		}
	}

	result.Samples = d.runSamples(ctx, integrator, times, sigma, noise)

	span.SetAttributes(
		attribute.Int("samples", len(times)),
		attribute.Int("spots", len(result.Spots)),
		attribute.Float64("achieved_fill", result.AchievedFill),
		attribute.Int64("seed", d.opts.Placement.Seed),
	)
	if d.opts.Metrics != nil {
		d.opts.Metrics.RunCompleted(time.Since(started), len(times))
	}
	d.log.Info(ctx, "run complete",
		logging.Int("samples", len(times)),
		logging.String("elapsed", time.Since(started).String()))

	return result, nil
}

// runSamples evaluates every sample, in parallel when configured. Each worker
// writes only its own indices, so output ordering never depends on
// scheduling.
func (d *Driver) runSamples(ctx context.Context, integrator *DiskIntegrator, times []float64, sigma float64, noise []float64) []model.Sample {
	samples := make([]model.Sample, len(times))

	evaluate := func(i int) {
		begun := time.Now()
		s := model.Sample{Time: times[i], RVSigma: sigma}
		res, err := integrator.Integrate(times[i])
		if err != nil {
			if d.opts.Metrics != nil {
				d.opts.Metrics.DegenerateSample()
			}
			d.log.Warn(ctx, "degenerate sample",
				logging.Float64("time", times[i]),
				logging.String("error", err.Error()))
		} else {
			s.Flux = res.Flux
			s.RV = res.RV
			s.Valid = true
			if noise != nil {
				s.RV += noise[i]
			}
		}
		samples[i] = s
		if d.opts.Metrics != nil {
			d.opts.Metrics.SampleObserved(time.Since(begun))
		}
	}

	workers := d.opts.SampleWorkers
	if workers < 2 || len(times) < 2 {
		for i := range times {
			evaluate(i)
		}
		return samples
	}

	jobs := make(chan int, len(times))
	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				evaluate(i)
				done <- struct{}{}
			}
		}()
	}
	for i := range times {
		jobs <- i
	}
	close(jobs)
	for range times {
		<-done
	}
	return samples
}

// ValidateConfig checks every star parameter against its documented range.
func ValidateConfig(cfg model.StarConfig) error {
	if cfg.GridSize <= 0 {
		return configErrorf("grid_size", "must be > 0, got %d", cfg.GridSize)
	}
	if cfg.Radius <= 0 {
		return configErrorf("radius", "must be > 0, got %g", cfg.Radius)
	}
	if cfg.Period <= 0 {
		return configErrorf("period", "must be > 0, got %g", cfg.Period)
	}
	if cfg.Inclination < 0 || cfg.Inclination > 180 {
		return configErrorf("inclination", "must be in [0, 180], got %g", cfg.Inclination)
	}
	if cfg.Temperature <= 0 {
		return configErrorf("temperature", "must be > 0, got %g", cfg.Temperature)
	}
	if cfg.TargetFillFactor < 0 || cfg.TargetFillFactor > 1 {
		return configErrorf("target_fill_factor", "must be in [0, 1], got %g", cfg.TargetFillFactor)
	}
	if cfg.InstrumentResolution <= 0 {
		return configErrorf("instrument_resolution", "must be > 0, got %g", cfg.InstrumentResolution)
	}
	if math.IsNaN(cfg.LimbLinear) || math.IsNaN(cfg.LimbQuadratic) {
		return configErrorf("limb_linear/limb_quadratic", "must be finite")
	}
	if _, err := NewLimbDarkening(cfg.LimbLinear, cfg.LimbQuadratic); err != nil {
		return err
	}
	return nil
}
