package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/stellar-activity-simulator/model"
)

func equatorOnStar() model.StarConfig {
	return model.StarConfig{
		GridSize:             100,
		Radius:               1.0,
		Period:               25.0,
		Inclination:          90,
		Temperature:          5778,
		LimbLinear:           0.29,
		LimbQuadratic:        0.34,
		InstrumentResolution: 115000,
	}
}

func TestProjector_SubObserverPoint(t *testing.T) {
	p := NewProjector(equatorOnStar())

	proj := p.Project(0, 0, 0)
	if math.Abs(proj.Mu-1) > 1e-12 {
		t.Errorf("sub-observer mu = %v, want 1", proj.Mu)
	}
	if math.Abs(proj.VLos) > 1e-9 {
		t.Errorf("central-meridian v_los = %v, want 0", proj.VLos)
	}
	if !proj.Visible {
		t.Error("sub-observer point not visible")
	}
}

func TestProjector_RecedingAndApproachingLimb(t *testing.T) {
	cfg := equatorOnStar()
	p := NewProjector(cfg)
	vEq := cfg.EquatorialVelocity()

	// 90° past the central meridian is the receding limb at full speed.
	rec := p.Project(0, math.Pi/2, 0)
	if math.Abs(rec.VLos-vEq) > 1e-6 {
		t.Errorf("receding limb v_los = %v, want %v", rec.VLos, vEq)
	}
	app := p.Project(0, -math.Pi/2, 0)
	if math.Abs(app.VLos+vEq) > 1e-6 {
		t.Errorf("approaching limb v_los = %v, want %v", app.VLos, -vEq)
	}
}

func TestProjector_FarSideInvisible(t *testing.T) {
	p := NewProjector(equatorOnStar())
	back := p.Project(0, math.Pi, 0)
	if back.Visible || back.Mu >= 0 {
		t.Errorf("antipodal point visible (mu=%v)", back.Mu)
	}
}

func TestProjector_PeriodicInPeriod(t *testing.T) {
	cfg := equatorOnStar()
	p := NewProjector(cfg)

	for _, lon := range []float64{0, 1, 2.5} {
		a := p.Project(0.3, lon, 3.7)
		b := p.Project(0.3, lon, 3.7+cfg.Period)
		if math.Abs(a.Mu-b.Mu) > 1e-9 || math.Abs(a.VLos-b.VLos) > 1e-6 {
			t.Errorf("projection not periodic at lon=%v: %+v vs %+v", lon, a, b)
		}
	}
}

func TestProjector_HalfRotationHidesSubObserverPoint(t *testing.T) {
	cfg := equatorOnStar()
	p := NewProjector(cfg)

	proj := p.Project(0, 0, cfg.Period/2)
	if proj.Visible {
		t.Errorf("point should be on the far side after half a rotation, mu=%v", proj.Mu)
	}
}

func TestProjector_PoleOn(t *testing.T) {
	cfg := equatorOnStar()
	cfg.Inclination = 0
	p := NewProjector(cfg)

	// Pole-on: the visible pole faces the observer and nothing moves along
	// the line of sight.
	pole := p.Project(math.Pi/2, 0, 0)
	if math.Abs(pole.Mu-1) > 1e-12 {
		t.Errorf("pole mu = %v, want 1", pole.Mu)
	}
	eq := p.Project(0, 1.0, 4.2)
	if math.Abs(eq.VLos) > 1e-9 {
		t.Errorf("pole-on v_los = %v, want 0", eq.VLos)
	}
}

func TestStarConfig_EquatorialVelocity(t *testing.T) {
	cfg := equatorOnStar()
	// 2π·R_sun/(25 days) ≈ 2.02 km/s for the Sun-like defaults.
	v := cfg.EquatorialVelocity()
	if v < 1900 || v > 2150 {
		t.Errorf("equatorial velocity = %v m/s, want ~2020", v)
	}
}
