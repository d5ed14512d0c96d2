package core

import (
	"fmt"

	"github.com/signalsfoundry/stellar-activity-simulator/model"
)

// SpotSet holds the ordered spot population: explicit spots first, in
// configuration order, then generated spots in generation order. The ordering
// is the deterministic priority used when overlapping spots claim the same
// cell.
type SpotSet struct {
	spots []model.Spot
}

// NewSpotSet validates and normalizes the explicit spots. Spot IDs default to
// the configuration index when unset.
func NewSpotSet(spots []model.Spot) (*SpotSet, error) {
	owned := make([]model.Spot, len(spots))
	copy(owned, spots)

	for i := range owned {
		s := &owned[i]
		if s.ID == "" {
			s.ID = fmt.Sprintf("spot-%d", i)
		}
		if s.Latitude < -90 || s.Latitude > 90 {
			return nil, configErrorf("spots."+s.ID+".latitude", "must be in [-90, 90], got %g", s.Latitude)
		}
		if s.FillFactor <= 0 || s.FillFactor > 1 {
			return nil, configErrorf("spots."+s.ID+".fill_factor", "must be in (0, 1], got %g", s.FillFactor)
		}
		if s.Lifetime != nil && s.Lifetime.Start > s.Lifetime.End {
			return nil, configErrorf("spots."+s.ID+".lifetime", "start %g > end %g", s.Lifetime.Start, s.Lifetime.End)
		}
		s.Normalize()
	}

	return &SpotSet{spots: owned}, nil
}

// All returns the full ordered population, including inactive spots.
func (ss *SpotSet) All() []model.Spot {
	out := make([]model.Spot, len(ss.spots))
	copy(out, ss.spots)
	return out
}

// Len returns the population size.
func (ss *SpotSet) Len() int { return len(ss.spots) }

// ActiveAt returns the spots present at time t, preserving order. Membership
// is a pure function of t: no state is mutated, so repeated queries at the
// same t are idempotent and order-independent.
func (ss *SpotSet) ActiveAt(t float64) []model.Spot {
	var active []model.Spot
	for _, s := range ss.spots {
		if s.ActiveAt(t) {
			active = append(active, s)
		}
	}
	return active
}

// FillFactorAt sums the fill factors of spots active at time t.
func (ss *SpotSet) FillFactorAt(t float64) float64 {
	var total float64
	for _, s := range ss.spots {
		if s.ActiveAt(t) {
			total += s.FillFactor
		}
	}
	return total
}

// FillFactorIgnoringLifetimes sums the fill factors of every spot in the
// population regardless of lifetime windows.
func (ss *SpotSet) FillFactorIgnoringLifetimes() float64 {
	var total float64
	for _, s := range ss.spots {
		total += s.FillFactor
	}
	return total
}

// append adds generated spots to the end of the population, after all
// explicit spots.
func (ss *SpotSet) append(spots ...model.Spot) {
	ss.spots = append(ss.spots, spots...)
}
