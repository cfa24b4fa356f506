// Package precipitation computes the base precipitation of a world in three
// cumulative stages: base noise, temperature gamma shaping, and renormalization.
package precipitation

import (
	"fmt"
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/mathx"
	"github.com/Coelancanth/Darklands-sub002/internal/noise"
)

// Params are the precipitation shaping constants.
type Params struct {
	Gamma float64 `mapstructure:"gamma"`
	// CurveBonus is the share of base precipitation kept even at temperature 0.
	CurveBonus float64 `mapstructure:"curve_bonus"`
	// NeutralValue replaces the renormalized field when it has no variance.
	NeutralValue float64 `mapstructure:"neutral_value"`
}

// DefaultParams returns the standard precipitation shaping.
func DefaultParams() Params {
	return Params{
		Gamma:        2.0,
		CurveBonus:   0.2,
		NeutralValue: 0.5,
	}
}

// Stages holds every named precipitation grid, normalized to [0, 1].
type Stages struct {
	Base   *grid.Float
	Shaped *grid.Float
	Final  *grid.Float
}

// Compute runs all three stages against the final temperature grid.
func Compute(temperature *grid.Float, gen noise.Generator, p Params) (*Stages, error) {
	if err := grid.ValidateFinite("temperature", temperature); err != nil {
		return nil, fmt.Errorf("precipitation: %w", err)
	}
	if gen == nil {
		return nil, fmt.Errorf("precipitation: %w: precipitation noise", grid.ErrMissingField)
	}

	base := BaseStage(temperature.W, temperature.H, gen)
	shaped := ShapeStage(base, temperature, p)
	final := Renormalize(shaped, p.NeutralValue)

	return &Stages{
		Base:   base,
		Shaped: shaped,
		Final:  final,
	}, nil
}

// BaseStage samples gen over the grid and remaps [-1, 1] to [0, 1].
func BaseStage(w, h int, gen noise.Generator) *grid.Float {
	out := noise.SampleGrid(gen, w, h)
	cells := out.Cells()
	for i, n := range cells {
		cells[i] = (n + 1) * 0.5
	}
	return out
}

// Curve returns t^gamma·(1-bonus) + bonus for a temperature t in [0, 1].
func Curve(t float64, p Params) float64 {
	return float64(math.Pow(mathx.Clamp01(t), p.Gamma)*(1-p.CurveBonus)) + p.CurveBonus
}

// ShapeStage multiplies base precipitation by the temperature curve, so cold
// regions are drier.
func ShapeStage(base, temperature *grid.Float, p Params) *grid.Float {
	out := base.Clone()
	cells := out.Cells()
	temp := temperature.Cells()
	for i := range cells {
		cells[i] *= Curve(temp[i], p)
	}
	return out
}

// Renormalize linearly maps the observed minimum and maximum of shaped to 0
// and 1. A field without variance becomes neutral everywhere.
func Renormalize(shaped *grid.Float, neutral float64) *grid.Float {
	out := shaped.Clone()
	cells := out.Cells()
	lo, hi := shaped.MinMax()
	delta := hi - lo

	if delta <= 0 {
		for i := range cells {
			cells[i] = neutral
		}
		return out
	}
	for i, v := range cells {
		cells[i] = mathx.Clamp01((v - lo) / delta)
	}
	return out
}
