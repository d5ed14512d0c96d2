package core

import (
	"math"
	"sync"

	"github.com/signalsfoundry/stellar-activity-simulator/model"
)

// cellChunk is the number of grid cells summed sequentially by one worker.
// Chunk partials are combined in index order, so the reduction is identical
// no matter how the chunks are scheduled.
const cellChunk = 1 << 16

// IntegrationResult is the raw per-sample output of the integrator.
type IntegrationResult struct {
	// Flux is normalized to the spot-free star.
	Flux float64
	// RV is the flux-weighted mean line-of-sight velocity in m/s.
	RV float64
}

// DiskIntegrator sums visible-cell contributions into disk-integrated flux
// and flux-weighted RV at a given time. It is immutable after construction
// and safe for concurrent use across samples.
type DiskIntegrator struct {
	grid *Grid
	limb LimbDarkening
	proj Projector

	spots     []model.Spot
	contrasts []float64 // brightness ratio per spot, same index as spots

	// membership maps cell index to the spot indices whose cap contains
	// the cell centre, in priority order (explicit before generated, both
	// in configured order). Spot caps are fixed in the co-rotating frame,
	// so this is computed once.
	membership map[int][]int

	// quietFlux is the unnormalized integral for the spot-free star, used
	// to scale Flux(t) so a quiet star reads 1. It is time-independent
	// because the unspotted star is rotationally symmetric.
	quietFlux float64
	// zeroRV is the quiet-star flux-weighted velocity, subtracted from
	// every sample so the spot-free signal reads 0 exactly instead of the
	// grid's residual asymmetry.
	zeroRV float64

	workers int
}

// NewDiskIntegrator precomputes spot membership, per-spot contrasts, and the
// quiet-star flux. bandMin and bandMax bound the observation band in metres;
// workers caps the cell-level parallelism (values below 2 mean sequential).
func NewDiskIntegrator(cfg model.StarConfig, grid *Grid, limb LimbDarkening, spots []model.Spot, bandMin, bandMax float64, workers int) (*DiskIntegrator, error) {
	di := &DiskIntegrator{
		grid:       grid,
		limb:       limb,
		proj:       NewProjector(cfg),
		spots:      spots,
		contrasts:  make([]float64, len(spots)),
		membership: make(map[int][]int),
		workers:    workers,
	}

	spotTemp := cfg.Temperature - cfg.SpotTempDiff
	if spotTemp <= 0 {
		return nil, configErrorf("spot_temp_diff", "spot temperature %g K is not positive", spotTemp)
	}
	contrast := SpotContrast(cfg.Temperature, spotTemp, bandMin, bandMax)
	for i := range spots {
		di.contrasts[i] = contrast
	}

	// Cache spot centres and cap thresholds once; the membership scan
	// below touches every (cell, spot) pair.
	centres := make([]Vec3, len(spots))
	cosAlpha := make([]float64, len(spots))
	for i, s := range spots {
		centres[i] = unitFromSpherical(s.Latitude*math.Pi/180, s.Longitude*math.Pi/180)
		cosAlpha[i] = 1 - 2*s.FillFactor
	}

	for ci := range grid.Cells {
		unit := grid.Cells[ci].Unit
		for si := range spots {
			if unit.Dot(centres[si]) >= cosAlpha[si] {
				di.membership[ci] = append(di.membership[ci], si)
			}
		}
	}

	// Quiet-star reference at t=0; any t gives the same values.
	quiet, quietV := di.integrate(0, nil)
	if quiet <= 0 {
		return nil, configErrorf("inclination", "spot-free star has zero visible flux")
	}
	di.quietFlux = quiet
	di.zeroRV = quietV / quiet

	return di, nil
}

// Integrate computes the disk-integrated flux and RV at time t. A zero-flux
// sample returns ErrDegenerateSample; callers flag the record and continue.
func (di *DiskIntegrator) Integrate(t float64) (IntegrationResult, error) {
	active := make([]bool, len(di.spots))
	for i, s := range di.spots {
		active[i] = s.ActiveAt(t)
	}

	flux, vflux := di.integrate(t, active)
	if flux <= 0 {
		return IntegrationResult{}, ErrDegenerateSample
	}

	return IntegrationResult{
		Flux: flux / di.quietFlux,
		RV:   vflux/flux - di.zeroRV,
	}, nil
}

// integrate runs the cell sum. active selects which spots apply their
// contrast; a nil slice integrates the spot-free star.
func (di *DiskIntegrator) integrate(t float64, active []bool) (flux, vflux float64) {
	offset := di.proj.MeridianOffset(t)

	nChunks := (len(di.grid.Cells) + cellChunk - 1) / cellChunk
	fluxParts := make([]float64, nChunks)
	vfluxParts := make([]float64, nChunks)

	if di.workers > 1 && nChunks > 1 {
		jobs := make(chan int, nChunks)
		var wg sync.WaitGroup
		for w := 0; w < di.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for chunk := range jobs {
					fluxParts[chunk], vfluxParts[chunk] = di.sumChunk(chunk, offset, active)
				}
			}()
		}
		for chunk := 0; chunk < nChunks; chunk++ {
			jobs <- chunk
		}
		close(jobs)
		wg.Wait()
	} else {
		for chunk := 0; chunk < nChunks; chunk++ {
			fluxParts[chunk], vfluxParts[chunk] = di.sumChunk(chunk, offset, active)
		}
	}

	// Stable combine in chunk order keeps the floating-point reduction
	// independent of scheduling.
	for chunk := 0; chunk < nChunks; chunk++ {
		flux += fluxParts[chunk]
		vflux += vfluxParts[chunk]
	}
	return flux, vflux
}

// sumChunk integrates one contiguous cell range sequentially.
func (di *DiskIntegrator) sumChunk(chunk int, offset float64, active []bool) (flux, vflux float64) {
	start := chunk * cellChunk
	end := start + cellChunk
	if end > len(di.grid.Cells) {
		end = len(di.grid.Cells)
	}

	for ci := start; ci < end; ci++ {
		cell := &di.grid.Cells[ci]
		proj := di.proj.projectAtOffset(cell.Latitude, cell.Longitude+offset)
		if !proj.Visible {
			continue
		}

		brightness := 1.0
		if active != nil {
			// First active spot in priority order claims the cell.
			for _, si := range di.membership[ci] {
				if active[si] {
					brightness = di.contrasts[si]
					break
				}
			}
		}

		w := cell.AreaWeight * di.limb.Intensity(proj.Mu) * brightness
		flux += w
		vflux += w * proj.VLos
	}
	return flux, vflux
}
