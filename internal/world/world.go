// Package world holds the result of one climate generation run and exposes its
// grids through a registry of named fields.
package world

import (
	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/temperature"
	"github.com/Coelancanth/Darklands-sub002/internal/thresholds"
)

// World is the assembled output of the pipeline. Heightmap and Plates are
// always present; every other field is nil when absent, as in worlds loaded
// from older stores.
type World struct {
	Seed   int64
	Width  int
	Height int

	Heightmap *grid.Float
	Plates    *grid.Int

	PostProcessed *grid.Float
	Ocean         *grid.Bool
	SeaDepth      *grid.Float

	Thresholds *thresholds.Thresholds
	Climate    *temperature.ClimateParameters

	TemperatureLatitude *grid.Float
	TemperatureNoise    *grid.Float
	TemperatureDistance *grid.Float
	Temperature         *grid.Float

	PrecipitationBase   *grid.Float
	PrecipitationShaped *grid.Float
	Precipitation       *grid.Float

	RainShadow         *grid.Float
	DistanceToOcean    *grid.Int
	FinalPrecipitation *grid.Float
}

// New returns a World with only the upstream fields set.
func New(seed int64, heightmap *grid.Float, plates *grid.Int) *World {
	w := &World{Seed: seed, Heightmap: heightmap, Plates: plates}
	if heightmap != nil {
		w.Width, w.Height = heightmap.W, heightmap.H
	}
	return w
}

// Present returns the names of every non-nil field in registry order.
func (w *World) Present() []FieldName {
	var out []FieldName
	for _, name := range Fields() {
		if f, err := w.Field(name); err == nil && !f.Empty() {
			out = append(out, name)
		}
	}
	return out
}
