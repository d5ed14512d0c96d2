package core

import (
	"errors"
	"math"
	"testing"
)

func TestLimbDarkening_SolarCoefficients(t *testing.T) {
	ld, err := NewLimbDarkening(0.29, 0.34)
	if err != nil {
		t.Fatalf("NewLimbDarkening: %v", err)
	}

	if got := ld.Intensity(1); got != 1 {
		t.Errorf("disk-centre intensity = %v, want 1", got)
	}
	wantLimb := 1 - 0.29 - 0.34
	if got := ld.Intensity(0); math.Abs(got-wantLimb) > 1e-12 {
		t.Errorf("limb intensity = %v, want %v", got, wantLimb)
	}
	// Monotonic darkening toward the limb for these coefficients.
	prev := ld.Intensity(1)
	for mu := 0.9; mu >= 0; mu -= 0.1 {
		cur := ld.Intensity(mu)
		if cur > prev {
			t.Fatalf("intensity increased toward the limb at mu=%v", mu)
		}
		prev = cur
	}
}

func TestLimbDarkening_NegativeMuInvisible(t *testing.T) {
	ld, err := NewLimbDarkening(0.29, 0.34)
	if err != nil {
		t.Fatalf("NewLimbDarkening: %v", err)
	}
	if got := ld.Intensity(-0.5); got != 0 {
		t.Errorf("far-side intensity = %v, want 0", got)
	}
}

func TestLimbDarkening_NegativeAtLimbRejected(t *testing.T) {
	_, err := NewLimbDarkening(0.8, 0.3) // 1 - 0.8 - 0.3 < 0
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ConfigError", err)
	}
}

func TestLimbDarkening_InteriorMinimumRejected(t *testing.T) {
	// Endpoints are fine (I(1)=1, I(0)=0.2) but the quadratic dips below
	// zero between them.
	_, err := NewLimbDarkening(3.0, -2.2)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ConfigError", err)
	}
}
