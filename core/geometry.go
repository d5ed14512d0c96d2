package core

import "math"

// Vec3 is a unit-sphere direction vector in the star's co-rotating frame.
type Vec3 struct {
	X, Y, Z float64
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// AngularSeparation returns the angle in radians between two unit vectors.
func (v Vec3) AngularSeparation(other Vec3) float64 {
	cos := v.Dot(other)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// unitFromSpherical converts latitude/longitude in radians to a unit vector.
// The x axis points at longitude 0 on the equator, z along the spin axis.
func unitFromSpherical(latRad, lonRad float64) Vec3 {
	cosLat := math.Cos(latRad)
	return Vec3{
		X: cosLat * math.Cos(lonRad),
		Y: cosLat * math.Sin(lonRad),
		Z: math.Sin(latRad),
	}
}

// Cell is one element of the surface discretization, fixed in the co-rotating
// frame. Cells are immutable once the grid is built; rotation only changes
// where they project, never their identity or area.
type Cell struct {
	// Latitude and Longitude of the cell centre, radians.
	Latitude  float64
	Longitude float64
	// Unit is the precomputed direction vector of the cell centre.
	Unit Vec3
	// AreaWeight is the fraction of total sphere area this cell covers.
	AreaWeight float64
}

// Grid discretizes the full sphere into equal-area cells: GridSize latitude
// bands uniform in sin(latitude), each split into 2·GridSize longitude
// columns. Every cell subtends exactly the same solid angle, so a naive
// grid's polar over-sampling cannot occur and the area weights sum to 1 by
// construction.
//
// Cell ordering is band-major (south to north, then increasing longitude) and
// depends only on the size, so identical sizes yield identical, stably
// ordered cell sets.
type Grid struct {
	Size  int
	Cells []Cell
}

// NewGrid builds the cell set for the given linear resolution.
func NewGrid(size int) (*Grid, error) {
	if size <= 0 {
		return nil, configErrorf("grid_size", "must be > 0, got %d", size)
	}

	bands := size
	columns := 2 * size
	weight := 1.0 / float64(bands*columns)

	cells := make([]Cell, 0, bands*columns)
	dz := 2.0 / float64(bands)
	dLon := 2 * math.Pi / float64(columns)

	for band := 0; band < bands; band++ {
		z := -1 + (float64(band)+0.5)*dz
		lat := math.Asin(z)
		for col := 0; col < columns; col++ {
			lon := (float64(col) + 0.5) * dLon
			cells = append(cells, Cell{
				Latitude:   lat,
				Longitude:  lon,
				Unit:       unitFromSpherical(lat, lon),
				AreaWeight: weight,
			})
		}
	}

	return &Grid{Size: size, Cells: cells}, nil
}
