// Package elevation turns the raw tectonic heightmap into the post-processed
// elevation, the connected ocean mask, and the normalized sea depth.
package elevation

import (
	"fmt"
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/noise"
)

// Params are the post-processing knobs.
type Params struct {
	// NoiseAmplitude scales the injected noise relative to the raw elevation
	// range of the input heightmap.
	NoiseAmplitude float64 `mapstructure:"noise_amplitude"`
	// ShallowFraction of sea level below which the ocean floor is compressed.
	ShallowFraction float64 `mapstructure:"shallow_fraction"`
	// FloorCompression divides the distance of the ocean floor to the shallow
	// midpoint.
	FloorCompression float64 `mapstructure:"floor_compression"`
	// SmoothingSigma is the Gaussian blur radius applied to the ocean floor (0 disables).
	SmoothingSigma float32 `mapstructure:"smoothing_sigma"`
	// ShoreRamp is the distance in cells over which sea depth ramps up from the
	// shoreline.
	ShoreRamp float64 `mapstructure:"shore_ramp"`
}

// DefaultParams returns the standard post-processing parameters.
func DefaultParams() Params {
	return Params{
		NoiseAmplitude:   0.05,
		ShallowFraction:  0.85,
		FloorCompression: 5.0,
		SmoothingSigma:   1.0,
		ShoreRamp:        4.0,
	}
}

// Result is the output of PostProcess.
type Result struct {
	Elevation *grid.Float
	Ocean     *grid.Bool
	SeaDepth  *grid.Float
}

// PostProcess runs noise injection, ocean flood fill, ocean harmonization, and
// sea depth, in that order, on a clone of height. height is never modified.
func PostProcess(height *grid.Float, seaLevel float64, gen noise.Generator, p Params) (*Result, error) {
	if err := grid.ValidateFinite("heightmap", height); err != nil {
		return nil, fmt.Errorf("elevation: %w", err)
	}
	if math.IsNaN(seaLevel) || math.IsInf(seaLevel, 0) {
		return nil, fmt.Errorf("elevation: %w: sea level %v", grid.ErrNonFinite, seaLevel)
	}
	if gen == nil {
		return nil, fmt.Errorf("elevation: %w: terrain noise", grid.ErrMissingField)
	}

	noisy := InjectNoise(height, gen, p.NoiseAmplitude)
	ocean := FloodOcean(noisy, seaLevel)
	harmonized := Harmonize(noisy, ocean, seaLevel, p)
	depth := SeaDepth(harmonized, ocean, seaLevel, p.ShoreRamp)

	return &Result{
		Elevation: harmonized,
		Ocean:     ocean,
		SeaDepth:  depth,
	}, nil
}

// InjectNoise returns a copy of height with terrain-scale noise added. The
// noise is scaled by amplitude times the raw elevation range of height, so a
// perfectly flat heightmap stays flat.
func InjectNoise(height *grid.Float, gen noise.Generator, amplitude float64) *grid.Float {
	out := height.Clone()
	lo, hi := height.MinMax()
	scale := amplitude * (hi - lo)
	if scale == 0 {
		return out
	}

	cells := out.Cells()
	w := out.W
	grid.ForEachRow(out.H, func(y int) {
		row := cells[y*w : (y+1)*w]
		for x := range row {
			// The conversion rounds the product so no platform fuses it into an FMA.
			row[x] += float64(gen.Sample2D(float64(x), float64(y)) * scale)
		}
	})
	return out
}

// FloodOcean marks every cell below sea level that is 4-connected, through
// other below-sea-level cells, to a below-sea-level border cell. Depressions
// that do not reach the border stay land.
func FloodOcean(elev *grid.Float, seaLevel float64) *grid.Bool {
	below := grid.NewBool(elev.W, elev.H)
	bc := below.Cells()
	for i, v := range elev.Cells() {
		bc[i] = v < seaLevel
	}
	return grid.FloodFill(grid.BorderCells(elev.W, elev.H), below)
}
