package core

import (
	"errors"
	"math"
	"testing"
)

func TestNewGrid_WeightsSumToOne(t *testing.T) {
	grid, err := NewGrid(50)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}

	var sum float64
	for _, c := range grid.Cells {
		sum += c.AreaWeight
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("area weights sum to %v, want 1", sum)
	}
}

func TestNewGrid_EqualAreaCells(t *testing.T) {
	grid, err := NewGrid(20)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}

	want := grid.Cells[0].AreaWeight
	for i, c := range grid.Cells {
		if c.AreaWeight != want {
			t.Fatalf("cell %d weight %v differs from %v; grid is not equal-area", i, c.AreaWeight, want)
		}
	}
	if len(grid.Cells) != 20*40 {
		t.Errorf("got %d cells, want %d", len(grid.Cells), 20*40)
	}
}

func TestNewGrid_NoPolarClustering(t *testing.T) {
	// Count cells in the polar caps above |lat| = 60° against the solid
	// angle they cover: 2·(1 − sin 60°)/2 ≈ 13.4% of the sphere. A naive
	// lat/lon grid would put ~33% of its cells there.
	grid, err := NewGrid(60)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}

	polar := 0
	for _, c := range grid.Cells {
		if math.Abs(c.Latitude) > 60*math.Pi/180 {
			polar++
		}
	}
	frac := float64(polar) / float64(len(grid.Cells))
	want := 1 - math.Sin(60*math.Pi/180)
	if math.Abs(frac-want) > 0.02 {
		t.Errorf("polar cell fraction %v, want ~%v", frac, want)
	}
}

func TestNewGrid_StableOrdering(t *testing.T) {
	a, err := NewGrid(15)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	b, err := NewGrid(15)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}

	if len(a.Cells) != len(b.Cells) {
		t.Fatalf("cell counts differ: %d vs %d", len(a.Cells), len(b.Cells))
	}
	for i := range a.Cells {
		if a.Cells[i] != b.Cells[i] {
			t.Fatalf("cell %d differs between identical grid sizes", i)
		}
	}
}

func TestNewGrid_RejectsNonPositiveSize(t *testing.T) {
	_, err := NewGrid(0)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ConfigError", err)
	}
}

func TestAngularSeparation_Clamped(t *testing.T) {
	v := Vec3{X: 1}
	if got := v.AngularSeparation(v); got != 0 {
		t.Errorf("self separation = %v, want 0", got)
	}
	opp := Vec3{X: -1}
	if got := v.AngularSeparation(opp); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("antipodal separation = %v, want pi", got)
	}
}
