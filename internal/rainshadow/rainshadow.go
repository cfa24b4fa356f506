// Package rainshadow reduces precipitation on the leeward side of high terrain
// by tracing upwind along the prevailing wind of each row.
package rainshadow

import (
	"fmt"
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/wind"
)

// Params are the orographic blocking constants.
type Params struct {
	// MaxSteps is how many cells the upwind trace visits.
	MaxSteps int `mapstructure:"max_steps"`
	// BlockPerStep is the blocking added by every upwind cell that rises above
	// the threshold.
	BlockPerStep float64 `mapstructure:"block_per_step"`
	// MinMultiplier caps the total reduction.
	MinMultiplier float64 `mapstructure:"min_multiplier"`
	// ThresholdFraction of the world's raw elevation range an upwind cell must
	// exceed the current cell by.
	ThresholdFraction float64 `mapstructure:"threshold_fraction"`
	// MinThreshold is a fixed floor for the threshold in raw units (0 disables).
	MinThreshold float64 `mapstructure:"min_threshold"`
}

// DefaultParams returns the standard blocking model.
func DefaultParams() Params {
	return Params{
		MaxSteps:          20,
		BlockPerStep:      0.05,
		MinMultiplier:     0.2,
		ThresholdFraction: 0.05,
	}
}

// Input bundles the prior-stage grids read by Apply.
type Input struct {
	Precipitation *grid.Float
	Elevation     *grid.Float
	Ocean         *grid.Bool
	// Wind defaults to wind.Latitude when nil.
	Wind wind.Model
}

// Threshold returns the elevation rise that counts as blocking for elev.
func Threshold(elev *grid.Float, p Params) float64 {
	lo, hi := elev.MinMax()
	return math.Max(p.ThresholdFraction*(hi-lo), p.MinThreshold)
}

// Apply returns precipitation multiplied by max(MinMultiplier, 1-blocking) on
// every land cell. Ocean cells pass through unchanged and no cell ever gains
// precipitation.
func Apply(in Input, p Params) (*grid.Float, error) {
	if err := grid.RequireSameSize([]string{"precipitation", "elevation", "ocean"},
		in.Precipitation, in.Elevation, in.Ocean); err != nil {
		return nil, fmt.Errorf("rain shadow: %w", err)
	}
	if err := grid.ValidateFinite("elevation", in.Elevation); err != nil {
		return nil, fmt.Errorf("rain shadow: %w", err)
	}
	if err := grid.ValidateFinite("precipitation", in.Precipitation); err != nil {
		return nil, fmt.Errorf("rain shadow: %w", err)
	}

	model := in.Wind
	if model == nil {
		model = wind.Latitude{}
	}

	w, h := in.Elevation.W, in.Elevation.H
	threshold := Threshold(in.Elevation, p)
	elev := in.Elevation.Cells()
	ocean := in.Ocean.Cells()
	src := in.Precipitation.Cells()

	out := in.Precipitation.Clone()
	dst := out.Cells()

	grid.ForEachRow(h, func(y int) {
		sx, sy := upwindStep(model.ForRow(y, h))
		if sx == 0 && sy == 0 {
			return
		}
		for x := 0; x < w; x++ {
			i := y*w + x
			if ocean[i] {
				continue
			}
			blocking := traceBlocking(elev, w, h, x, y, sx, sy, threshold, p)
			if blocking <= 0 {
				continue
			}
			dst[i] = src[i] * Multiplier(blocking, p)
		}
	})

	return out, nil
}

// Multiplier converts accumulated blocking into a precipitation multiplier.
func Multiplier(blocking float64, p Params) float64 {
	return math.Min(1, math.Max(p.MinMultiplier, 1-blocking))
}

// traceBlocking walks up to MaxSteps cells against the wind from (x, y) and
// sums BlockPerStep for every cell higher than the origin by more than
// threshold. The walk stops at the grid boundary.
func traceBlocking(elev []float64, w, h, x, y, sx, sy int, threshold float64, p Params) float64 {
	origin := elev[y*w+x]
	var blocking float64
	ux, uy := x, y
	for step := 0; step < p.MaxSteps; step++ {
		ux += sx
		uy += sy
		if ux < 0 || uy < 0 || ux >= w || uy >= h {
			break
		}
		if elev[uy*w+ux]-origin > threshold {
			blocking += p.BlockPerStep
		}
	}
	return blocking
}

// upwindStep returns the integer cell offset pointing against v.
func upwindStep(v wind.Vector) (int, int) {
	return int(math.Round(-v.DX)), int(math.Round(-v.DY))
}
