package core

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/stellar-activity-simulator/model"
)

func newTestIntegrator(t *testing.T, cfg model.StarConfig, spots []model.Spot, workers int) *DiskIntegrator {
	t.Helper()
	grid, err := NewGrid(cfg.GridSize)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	limb, err := NewLimbDarkening(cfg.LimbLinear, cfg.LimbQuadratic)
	if err != nil {
		t.Fatalf("NewLimbDarkening: %v", err)
	}
	di, err := NewDiskIntegrator(cfg, grid, limb, spots, DefaultBandMin, DefaultBandMax, workers)
	if err != nil {
		t.Fatalf("NewDiskIntegrator: %v", err)
	}
	return di
}

func sunLikeConfig() model.StarConfig {
	return model.StarConfig{
		GridSize:             150,
		Radius:               1.0,
		Period:               25.0,
		Inclination:          90,
		Temperature:          5778,
		SpotTempDiff:         663,
		LimbLinear:           0.29,
		LimbQuadratic:        0.34,
		TargetFillFactor:     0.01,
		InstrumentResolution: 115000,
	}
}

func TestIntegrate_QuietStar(t *testing.T) {
	di := newTestIntegrator(t, sunLikeConfig(), nil, 1)

	// Mid-phase samples carry a small grid-discretization ripple, so the
	// tolerance is set by the cell size rather than machine epsilon.
	for _, tm := range []float64{0, 3.7, 12.5, 25.0} {
		res, err := di.Integrate(tm)
		if err != nil {
			t.Fatalf("Integrate(%v): %v", tm, err)
		}
		if math.Abs(res.Flux-1) > 1e-4 {
			t.Errorf("quiet flux at t=%v: %v, want 1", tm, res.Flux)
		}
		if math.Abs(res.RV) > 0.5 {
			t.Errorf("quiet RV at t=%v: %v m/s, want ~0", tm, res.RV)
		}
	}
}

func TestIntegrate_SpotDipsFlux(t *testing.T) {
	spots := []model.Spot{{ID: "s", Latitude: 0, Longitude: 0, FillFactor: 0.01}}
	di := newTestIntegrator(t, sunLikeConfig(), spots, 1)

	front, err := di.Integrate(0)
	if err != nil {
		t.Fatalf("Integrate(0): %v", err)
	}
	if front.Flux >= 1 {
		t.Errorf("flux with spot at disk centre = %v, want < 1", front.Flux)
	}

	// Half a rotation later the spot is on the far side.
	back, err := di.Integrate(12.5)
	if err != nil {
		t.Fatalf("Integrate(12.5): %v", err)
	}
	if math.Abs(back.Flux-1) > 1e-9 {
		t.Errorf("flux with spot hidden = %v, want 1", back.Flux)
	}
	if math.Abs(back.RV) > 1e-6 {
		t.Errorf("RV with spot hidden = %v, want 0", back.RV)
	}
}

func TestIntegrate_DeficitGrowsWithFillFactor(t *testing.T) {
	cfg := sunLikeConfig()
	// All on the visible hemisphere at t=0 so each added spot darkens the
	// disk.
	spots := []model.Spot{
		{ID: "a", Latitude: 10, Longitude: 0, FillFactor: 0.01},
		{ID: "b", Latitude: -15, Longitude: 40, FillFactor: 0.008},
		{ID: "c", Latitude: 5, Longitude: 310, FillFactor: 0.005},
	}

	prevDeficit := 0.0
	for n := 1; n <= len(spots); n++ {
		di := newTestIntegrator(t, cfg, spots[:n], 1)
		res, err := di.Integrate(0)
		if err != nil {
			t.Fatalf("Integrate with %d spots: %v", n, err)
		}
		deficit := 1 - res.Flux
		if deficit <= prevDeficit {
			t.Errorf("deficit with %d spots = %v, not above %v", n, deficit, prevDeficit)
		}
		prevDeficit = deficit
	}
}

func TestIntegrate_RVAntisymmetry(t *testing.T) {
	cfg := sunLikeConfig()
	// A cool spot on the approaching half removes blue-shifted light, so the
	// integrated RV shifts positive; mirrored placement flips the sign.
	approaching := newTestIntegrator(t, cfg, []model.Spot{
		{ID: "a", Latitude: 0, Longitude: 300, FillFactor: 0.01},
	}, 1)
	receding := newTestIntegrator(t, cfg, []model.Spot{
		{ID: "r", Latitude: 0, Longitude: 60, FillFactor: 0.01},
	}, 1)

	ra, err := approaching.Integrate(0)
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	rr, err := receding.Integrate(0)
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}

	if ra.RV <= 0 {
		t.Errorf("spot on approaching half: RV = %v, want > 0", ra.RV)
	}
	if rr.RV >= 0 {
		t.Errorf("spot on receding half: RV = %v, want < 0", rr.RV)
	}
	if math.Abs(ra.RV+rr.RV) > 1e-6 {
		t.Errorf("mirrored spots not antisymmetric: %v vs %v", ra.RV, rr.RV)
	}
	if math.Abs(ra.Flux-rr.Flux) > 1e-9 {
		t.Errorf("mirrored spots differ in flux: %v vs %v", ra.Flux, rr.Flux)
	}
}

func TestIntegrate_LifetimeWindow(t *testing.T) {
	spots := []model.Spot{{
		ID: "temp", Latitude: 0, Longitude: 0, FillFactor: 0.01,
		Lifetime: &model.Lifetime{Start: 20, End: 50},
	}}
	di := newTestIntegrator(t, sunLikeConfig(), spots, 1)

	before, err := di.Integrate(0)
	if err != nil {
		t.Fatalf("Integrate(0): %v", err)
	}
	if math.Abs(before.Flux-1) > 1e-12 {
		t.Errorf("flux before lifetime = %v, want 1", before.Flux)
	}

	// t=25 is one full period after t=0: same geometry, spot now active.
	during, err := di.Integrate(25)
	if err != nil {
		t.Fatalf("Integrate(25): %v", err)
	}
	if during.Flux >= 1 {
		t.Errorf("flux during lifetime = %v, want < 1", during.Flux)
	}

	after, err := di.Integrate(75)
	if err != nil {
		t.Fatalf("Integrate(75): %v", err)
	}
	if math.Abs(after.Flux-1) > 1e-12 {
		t.Errorf("flux after lifetime = %v, want 1", after.Flux)
	}
}

func TestIntegrate_OverlappingSpotsCountOnce(t *testing.T) {
	cfg := sunLikeConfig()
	one := newTestIntegrator(t, cfg, []model.Spot{
		{ID: "big", Latitude: 0, Longitude: 0, FillFactor: 0.01},
	}, 1)
	nested := newTestIntegrator(t, cfg, []model.Spot{
		{ID: "big", Latitude: 0, Longitude: 0, FillFactor: 0.01},
		{ID: "inner", Latitude: 0, Longitude: 0, FillFactor: 0.002},
	}, 1)

	a, err := one.Integrate(0)
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	b, err := nested.Integrate(0)
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if math.Abs(a.Flux-b.Flux) > 1e-12 {
		t.Errorf("nested spot changed flux: %v vs %v", a.Flux, b.Flux)
	}
}

func TestIntegrate_WorkerCountIrrelevant(t *testing.T) {
	cfg := sunLikeConfig()
	cfg.GridSize = 200 // > cellChunk cells so the parallel path splits
	spots := []model.Spot{
		{ID: "a", Latitude: 12, Longitude: 80, FillFactor: 0.005},
		{ID: "b", Latitude: -20, Longitude: 210, FillFactor: 0.003},
	}
	seq := newTestIntegrator(t, cfg, spots, 1)
	par := newTestIntegrator(t, cfg, spots, 4)

	for _, tm := range []float64{0, 5.1, 17.3} {
		a, err := seq.Integrate(tm)
		if err != nil {
			t.Fatalf("sequential Integrate(%v): %v", tm, err)
		}
		b, err := par.Integrate(tm)
		if err != nil {
			t.Fatalf("parallel Integrate(%v): %v", tm, err)
		}
		if a != b {
			t.Errorf("t=%v: sequential %+v != parallel %+v", tm, a, b)
		}
	}
}

func TestNewDiskIntegrator_RejectsNonPositiveSpotTemperature(t *testing.T) {
	cfg := sunLikeConfig()
	cfg.SpotTempDiff = cfg.Temperature

	grid, err := NewGrid(cfg.GridSize)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	limb, err := NewLimbDarkening(cfg.LimbLinear, cfg.LimbQuadratic)
	if err != nil {
		t.Fatalf("NewLimbDarkening: %v", err)
	}
	_, err = NewDiskIntegrator(cfg, grid, limb, nil, DefaultBandMin, DefaultBandMax, 1)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	if cfgErr.Field != "spot_temp_diff" {
		t.Errorf("ConfigError field = %q, want spot_temp_diff", cfgErr.Field)
	}
}
