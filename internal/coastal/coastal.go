// Package coastal adds a maritime moisture bonus that decays with distance to
// the ocean and is resisted by high terrain.
package coastal

import (
	"fmt"
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/mathx"
)

// Params are the coastal moisture constants.
type Params struct {
	MaxBonus float64 `mapstructure:"max_bonus"`
	// DecayRange is the e-folding distance of the bonus, in cells.
	DecayRange float64 `mapstructure:"decay_range"`
	// ResistanceCoefficient scales raw elevation into moisture resistance.
	ResistanceCoefficient float64 `mapstructure:"resistance_coefficient"`
}

// DefaultParams returns the standard coastal moisture model.
func DefaultParams() Params {
	return Params{
		MaxBonus:              0.8,
		DecayRange:            30,
		ResistanceCoefficient: 0.02,
	}
}

// Input bundles the prior-stage grids read by Apply.
type Input struct {
	Precipitation *grid.Float // rain-shadow precipitation
	Elevation     *grid.Float // post-processed raw elevation
	Ocean         *grid.Bool
}

// Result is the terminal precipitation field and the distance it was built from.
type Result struct {
	Distance      *grid.Int
	Precipitation *grid.Float
}

// Apply computes distance to ocean by multi-source BFS and boosts every land
// cell by bonus*resistance. Ocean cells pass through unchanged.
func Apply(in Input, p Params) (*Result, error) {
	if err := grid.RequireSameSize([]string{"precipitation", "elevation", "ocean"},
		in.Precipitation, in.Elevation, in.Ocean); err != nil {
		return nil, fmt.Errorf("coastal moisture: %w", err)
	}
	if err := grid.ValidateFinite("elevation", in.Elevation); err != nil {
		return nil, fmt.Errorf("coastal moisture: %w", err)
	}
	if err := grid.ValidateFinite("precipitation", in.Precipitation); err != nil {
		return nil, fmt.Errorf("coastal moisture: %w", err)
	}
	if p.DecayRange <= 0 {
		return nil, fmt.Errorf("coastal moisture: decay range must be positive, got %g", p.DecayRange)
	}

	dist := grid.BFSDistance(in.Ocean)

	out := in.Precipitation.Clone()
	dst := out.Cells()
	src := in.Precipitation.Cells()
	elev := in.Elevation.Cells()
	ocean := in.Ocean.Cells()
	d := dist.Cells()
	w := in.Precipitation.W

	grid.ForEachRow(in.Precipitation.H, func(y int) {
		for i := y * w; i < (y+1)*w; i++ {
			if ocean[i] {
				continue
			}
			boost := Bonus(d[i], p) * Resistance(elev[i], p)
			dst[i] = mathx.Clamp01(src[i] * (1 + boost))
		}
	})

	return &Result{Distance: dist, Precipitation: out}, nil
}

// Bonus is MaxBonus*exp(-distance/DecayRange). Negative distances mark land
// with no reachable ocean and get no bonus.
func Bonus(distance int, p Params) float64 {
	if distance < 0 {
		return 0
	}
	return p.MaxBonus * math.Exp(-float64(distance)/p.DecayRange)
}

// Resistance is 1 - min(1, elevation*ResistanceCoefficient), floored at 0.
func Resistance(elevation float64, p Params) float64 {
	return 1 - mathx.Clamp01(elevation*p.ResistanceCoefficient)
}
