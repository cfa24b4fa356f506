// Package temperature computes the four cumulative temperature stages of a
// world: latitude with axial tilt, climate noise, distance to sun, and
// mountain cooling. Every stage is kept as its own grid so a defect can be
// traced to the stage that introduced it.
package temperature

import (
	"fmt"
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/mathx"
	"github.com/Coelancanth/Darklands-sub002/internal/noise"
)

// Params are the temperature model constants.
type Params struct {
	AxialTiltHWHM  float64 `mapstructure:"axial_tilt_hwhm"`
	AxialTiltLimit float64 `mapstructure:"axial_tilt_limit"`
	DistanceHWHM   float64 `mapstructure:"distance_hwhm"`
	DistanceFloor  float64 `mapstructure:"distance_floor"`
	LatitudeWeight float64 `mapstructure:"latitude_weight"`
	NoiseWeight    float64 `mapstructure:"noise_weight"`
	// CoolingRange is the raw elevation span above MountainLevel over which
	// cooling ramps linearly; CoolingCutoff and MinCooling clamp the ramp.
	CoolingRange  float64 `mapstructure:"cooling_range"`
	CoolingCutoff float64 `mapstructure:"cooling_cutoff"`
	MinCooling    float64 `mapstructure:"min_cooling"`
}

// DefaultParams returns the standard temperature model.
func DefaultParams() Params {
	return Params{
		AxialTiltHWHM:  0.07,
		AxialTiltLimit: 0.5,
		DistanceHWHM:   0.12,
		DistanceFloor:  0.1,
		LatitudeWeight: 12,
		NoiseWeight:    1,
		CoolingRange:   30,
		CoolingCutoff:  29,
		MinCooling:     0.033,
	}
}

// ClimateParameters are sampled once per world.
type ClimateParameters struct {
	AxialTilt float64
	// DistanceToSunSq is the squared orbital distance (inverse-square law).
	DistanceToSunSq float64
}

// SampleClimate draws the axial tilt and then the distance to sun from g.
func SampleClimate(g *mathx.Gaussian, p Params) ClimateParameters {
	tilt := mathx.Clamp(g.SampleHWHM(0, p.AxialTiltHWHM), -p.AxialTiltLimit, p.AxialTiltLimit)
	dist := math.Max(p.DistanceFloor, g.SampleHWHM(1, p.DistanceHWHM))
	return ClimateParameters{
		AxialTilt:       tilt,
		DistanceToSunSq: dist * dist,
	}
}

// Input bundles the prior-stage data the calculator reads.
type Input struct {
	Elevation     *grid.Float
	MountainLevel float64
	Noise         noise.Generator
	Climate       ClimateParameters
}

// Stages holds every named temperature grid, normalized to [0, 1].
type Stages struct {
	Latitude *grid.Float
	Noise    *grid.Float
	Distance *grid.Float
	Final    *grid.Float
}

// Compute runs all four stages.
func Compute(in Input, p Params) (*Stages, error) {
	if err := grid.ValidateFinite("elevation", in.Elevation); err != nil {
		return nil, fmt.Errorf("temperature: %w", err)
	}
	if in.Noise == nil {
		return nil, fmt.Errorf("temperature: %w: climate noise", grid.ErrMissingField)
	}
	if in.Climate.DistanceToSunSq <= 0 || math.IsNaN(in.Climate.DistanceToSunSq) || math.IsNaN(in.Climate.AxialTilt) {
		return nil, fmt.Errorf("temperature: invalid climate parameters %+v", in.Climate)
	}

	w, h := in.Elevation.W, in.Elevation.H
	lat := LatitudeStage(w, h, in.Climate.AxialTilt)
	noisy := NoiseStage(lat, in.Noise, in.Climate, p)
	dist := DistanceStage(noisy)
	final := MountainCooling(dist, in.Elevation, in.MountainLevel, p)

	return &Stages{
		Latitude: lat,
		Noise:    noisy,
		Distance: dist,
		Final:    final,
	}, nil
}

// LatitudeStage returns the latitude factor of every row: 1 at the (tilted)
// equator falling linearly to 0 half a grid height away.
func LatitudeStage(w, h int, axialTilt float64) *grid.Float {
	xs := []float64{axialTilt - 0.5, axialTilt, axialTilt + 0.5}
	ys := []float64{0, 1, 0}

	out := grid.NewFloat(w, h)
	cells := out.Cells()
	for y := 0; y < h; y++ {
		v := mathx.Interp(grid.NormalizedRow(y, h), xs, ys)
		row := cells[y*w : (y+1)*w]
		for x := range row {
			row[x] = v
		}
	}
	return out
}

// NoiseStage blends climate noise into the latitude factor (12:1 by default)
// and divides by the squared distance to sun.
func NoiseStage(lat *grid.Float, gen noise.Generator, climate ClimateParameters, p Params) *grid.Float {
	total := p.LatitudeWeight + p.NoiseWeight
	out := grid.NewFloat(lat.W, lat.H)
	src, dst := lat.Cells(), out.Cells()
	w := lat.W

	grid.ForEachRow(lat.H, func(y int) {
		for x := 0; x < w; x++ {
			i := y*w + x
			n := gen.Sample2D(float64(x), float64(y))
			t := (float64(src[i]*p.LatitudeWeight) + float64(n*p.NoiseWeight)) / total / climate.DistanceToSunSq
			dst[i] = mathx.Clamp01(t)
		}
	})
	return out
}

// DistanceStage is the distance-to-sun stage. The division already happens in
// NoiseStage, so this stage carries the same values as its own grid.
func DistanceStage(noisy *grid.Float) *grid.Float {
	return noisy.Clone()
}

// MountainCooling scales temperature down only where elevation exceeds
// mountainLevel.
func MountainCooling(prev, elev *grid.Float, mountainLevel float64, p Params) *grid.Float {
	out := prev.Clone()
	cells := out.Cells()
	for i, e := range elev.Cells() {
		cells[i] *= CoolingFactor(e, mountainLevel, p)
	}
	return out
}

// CoolingFactor returns 1 at or below mountainLevel, a linear ramp down to
// 1 - CoolingCutoff/CoolingRange at mountainLevel+CoolingCutoff, and MinCooling
// beyond that.
func CoolingFactor(elev, mountainLevel float64, p Params) float64 {
	if elev <= mountainLevel {
		return 1
	}
	above := elev - mountainLevel
	if above > p.CoolingCutoff {
		return p.MinCooling
	}
	return math.Max(p.MinCooling, 1-above/p.CoolingRange)
}
