package core

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/signalsfoundry/stellar-activity-simulator/model"
)

// Scenario is a fully decoded simulation input: the star, its explicit
// spots, and the engine knobs.
type Scenario struct {
	Star  model.StarConfig
	Spots []model.Spot

	Seed          int64
	Placement     PlacementOptions
	Strict        bool
	SimulateNoise bool
}

// Internal TOML shapes. Kept unexported so the wire format can evolve
// independently of the domain types.
type scenarioTOML struct {
	InstrumentResolution float64     `toml:"instrument_resolution"`
	Star                 starTOML    `toml:"star"`
	Spots                []spotTOML  `toml:"spots"`
	Engine               *engineTOML `toml:"engine"`
}

type starTOML struct {
	GridSize         int     `toml:"grid_size"`
	Radius           float64 `toml:"radius"`
	Period           float64 `toml:"period"`
	Inclination      float64 `toml:"inclination"`
	Temperature      float64 `toml:"temperature"`
	SpotTempDiff     float64 `toml:"spot_temp_diff"`
	LimbLinear       float64 `toml:"limb_linear"`
	LimbQuadratic    float64 `toml:"limb_quadratic"`
	TargetFillFactor float64 `toml:"target_fill_factor"`
}

type spotTOML struct {
	Latitude   float64       `toml:"latitude"`
	Longitude  float64       `toml:"longitude"`
	FillFactor float64       `toml:"fill_factor"`
	Lifetime   *lifetimeTOML `toml:"lifetime"`
}

type lifetimeTOML struct {
	Start float64 `toml:"start"`
	End   float64 `toml:"end"`
}

type engineTOML struct {
	Seed           *int64     `toml:"seed"`
	CoveragePolicy *string    `toml:"coverage_policy"`
	Strict         *bool      `toml:"strict"`
	SimulateNoise  *bool      `toml:"simulate_noise"`
	LatitudeBand   *[]float64 `toml:"latitude_band"`
	MaxSpotFill    *float64   `toml:"max_spot_fill"`
	SizeLogMean    *float64   `toml:"size_log_mean"`
	SizeLogSigma   *float64   `toml:"size_log_sigma"`
	SizeScale      *float64   `toml:"size_scale"`
}

// LoadScenario decodes the TOML scenario from r. It fails only on decode or
// structural errors; range validation belongs to NewDriver so that scenarios
// built in code and scenarios read from disk go through the same checks.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var payload scenarioTOML
	if _, err := toml.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	sc := &Scenario{
		Star: model.StarConfig{
			GridSize:             payload.Star.GridSize,
			Radius:               payload.Star.Radius,
			Period:               payload.Star.Period,
			Inclination:          payload.Star.Inclination,
			Temperature:          payload.Star.Temperature,
			SpotTempDiff:         payload.Star.SpotTempDiff,
			LimbLinear:           payload.Star.LimbLinear,
			LimbQuadratic:        payload.Star.LimbQuadratic,
			TargetFillFactor:     payload.Star.TargetFillFactor,
			InstrumentResolution: payload.InstrumentResolution,
		},
	}

	for i, s := range payload.Spots {
		spot := model.Spot{
			ID:         fmt.Sprintf("spot-%d", i),
			Latitude:   s.Latitude,
			Longitude:  s.Longitude,
			FillFactor: s.FillFactor,
		}
		if s.Lifetime != nil {
			spot.Lifetime = &model.Lifetime{Start: s.Lifetime.Start, End: s.Lifetime.End}
		}
		sc.Spots = append(sc.Spots, spot)
	}

	sc.Placement = DefaultPlacementOptions(0)
	if e := payload.Engine; e != nil {
		if e.Seed != nil {
			sc.Seed = *e.Seed
		}
		if e.CoveragePolicy != nil {
			sc.Placement.Policy = CoveragePolicy(*e.CoveragePolicy)
		}
		if e.Strict != nil {
			sc.Strict = *e.Strict
		}
		if e.SimulateNoise != nil {
			sc.SimulateNoise = *e.SimulateNoise
		}
		if e.LatitudeBand != nil {
			band := *e.LatitudeBand
			if len(band) != 2 {
				return nil, fmt.Errorf("LoadScenario: latitude_band wants [min, max], got %d values", len(band))
			}
			sc.Placement.LatMin, sc.Placement.LatMax = band[0], band[1]
		}
		if e.MaxSpotFill != nil {
			sc.Placement.MaxSpotFill = *e.MaxSpotFill
		}
		if e.SizeLogMean != nil {
			sc.Placement.SizeLogMean = *e.SizeLogMean
		}
		if e.SizeLogSigma != nil {
			sc.Placement.SizeLogSigma = *e.SizeLogSigma
		}
		if e.SizeScale != nil {
			sc.Placement.SizeScale = *e.SizeScale
		}
	}
	sc.Placement.Seed = sc.Seed

	return sc, nil
}

// EncodeSpots writes a spot population as `[[spots]]` TOML. Feeding the
// output back as the explicit spots of an otherwise identical scenario
// reproduces the same simulation series, which is how generated populations
// are archived.
func EncodeSpots(w io.Writer, spots []model.Spot) error {
	var payload struct {
		Spots []spotTOML `toml:"spots"`
	}
	for _, s := range spots {
		st := spotTOML{
			Latitude:   s.Latitude,
			Longitude:  s.Longitude,
			FillFactor: s.FillFactor,
		}
		if s.Lifetime != nil {
			st.Lifetime = &lifetimeTOML{Start: s.Lifetime.Start, End: s.Lifetime.End}
		}
		payload.Spots = append(payload.Spots, st)
	}
	if err := toml.NewEncoder(w).Encode(payload); err != nil {
		return fmt.Errorf("EncodeSpots: %w", err)
	}
	return nil
}

// Options assembles driver options from the decoded engine table.
func (sc *Scenario) Options() Options {
	return Options{
		Placement:     sc.Placement,
		Strict:        sc.Strict,
		SimulateNoise: sc.SimulateNoise,
	}
}
