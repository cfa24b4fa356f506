// Package pipeline sequences the climate stages over one heightmap and
// assembles the resulting world.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Coelancanth/Darklands-sub002/internal/coastal"
	"github.com/Coelancanth/Darklands-sub002/internal/elevation"
	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/mathx"
	"github.com/Coelancanth/Darklands-sub002/internal/precipitation"
	"github.com/Coelancanth/Darklands-sub002/internal/rainshadow"
	"github.com/Coelancanth/Darklands-sub002/internal/temperature"
	"github.com/Coelancanth/Darklands-sub002/internal/terrain"
	"github.com/Coelancanth/Darklands-sub002/internal/thresholds"
	"github.com/Coelancanth/Darklands-sub002/internal/world"
)

// Request identifies one world.
type Request struct {
	Seed   int64
	Width  int
	Height int
	// SeaLevel overrides the sea level used for ocean detection. When nil it is
	// the median of the raw heightmap.
	SeaLevel *float64
}

// Generator wires the upstream terrain source and the climate stages into a
// single step.
type Generator struct {
	source terrain.Source
	params Params
	logger *slog.Logger
}

// NewGenerator validates params and prepares a generator.
func NewGenerator(source terrain.Source, params Params, logger *slog.Logger) (*Generator, error) {
	if source == nil {
		return nil, errors.New("terrain source is required")
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate pipeline params: %w", err)
	}
	return &Generator{source: source, params: params, logger: logger}, nil
}

// Params returns the parameters the generator runs with.
func (g *Generator) Params() Params { return g.params }

// Generate fetches the heightmap for req from the terrain source and runs the
// climate stages over it. ctx is only consulted before the stages start.
func (g *Generator) Generate(ctx context.Context, req Request, debug *DebugContext) (*world.World, error) {
	if err := grid.ValidateDimensions(req.Width, req.Height); err != nil {
		return nil, err
	}

	start := time.Now()
	heightmap, plates, err := g.source.Heightmap(ctx, req.Seed, req.Width, req.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch heightmap: %w", err)
	}
	g.log().Debug("Fetched heightmap", "seed", req.Seed, "elapsed", time.Since(start))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.Run(req, heightmap, plates, debug)
}

// Run executes every stage in order over heightmap. Neither input is
// modified. Any stage failure aborts the run and no world is returned.
func (g *Generator) Run(req Request, heightmap *grid.Float, plates *grid.Int, debug *DebugContext) (*world.World, error) {
	if err := grid.ValidateDimensions(req.Width, req.Height); err != nil {
		return nil, err
	}
	if err := grid.RequireSameSize([]string{"heightmap", "plates"}, heightmap, plates); err != nil {
		return nil, &StageError{Stage: StagePostProcessElevation, Err: err}
	}
	if heightmap.W != req.Width || heightmap.H != req.Height {
		return nil, &StageError{Stage: StagePostProcessElevation, Err: fmt.Errorf("%w: heightmap is %dx%d, requested %dx%d",
			grid.ErrSizeMismatch, heightmap.W, heightmap.H, req.Width, req.Height)}
	}

	p := g.params
	seeds := DeriveSeeds(req.Seed)
	climate := temperature.SampleClimate(mathx.NewGaussian(seeds.Parameters), p.Temperature)
	g.log().Info("Generating climate",
		"seed", req.Seed,
		"width", req.Width,
		"height", req.Height,
		"axial_tilt", climate.AxialTilt,
		"distance_to_sun_sq", climate.DistanceToSunSq,
	)

	debug.capture(world.Field{Name: world.FieldHeightmap, Kind: world.KindFloat, Float: heightmap})
	debug.capture(world.Field{Name: world.FieldPlates, Kind: world.KindInt, Int: plates})

	var (
		post   *elevation.Result
		levels thresholds.Thresholds
		temp   *temperature.Stages
		precip *precipitation.Stages
		shadow *grid.Float
		coast  *coastal.Result
		out    *world.World
	)

	steps := []struct {
		stage string
		run   func() error
	}{
		{StagePostProcessElevation, func() error {
			seaLevel, err := g.seaLevel(req, heightmap)
			if err != nil {
				return err
			}
			gen, err := p.noise(p.TerrainNoise, seeds.Terrain)
			if err != nil {
				return err
			}
			post, err = elevation.PostProcess(heightmap, seaLevel, gen, p.Elevation)
			if err != nil {
				return err
			}
			debug.capture(world.Field{Name: world.FieldElevation, Kind: world.KindFloat, Float: post.Elevation})
			debug.capture(world.Field{Name: world.FieldOcean, Kind: world.KindBool, Bool: post.Ocean})
			debug.capture(world.Field{Name: world.FieldSeaDepth, Kind: world.KindFloat, Float: post.SeaDepth})
			return nil
		}},
		{StageComputeThresholds, func() error {
			var err error
			if levels, err = thresholds.Compute(post.Elevation); err != nil {
				return err
			}
			return levels.Validate()
		}},
		{StageComputeTemperature, func() error {
			gen, err := p.noise(p.ClimateNoise, seeds.Climate)
			if err != nil {
				return err
			}
			temp, err = temperature.Compute(temperature.Input{
				Elevation:     post.Elevation,
				MountainLevel: levels.MountainLevel,
				Noise:         gen,
				Climate:       climate,
			}, p.Temperature)
			if err != nil {
				return err
			}
			debug.capture(world.Field{Name: world.FieldTemperatureLatitude, Kind: world.KindFloat, Float: temp.Latitude})
			debug.capture(world.Field{Name: world.FieldTemperatureNoise, Kind: world.KindFloat, Float: temp.Noise})
			debug.capture(world.Field{Name: world.FieldTemperatureDistance, Kind: world.KindFloat, Float: temp.Distance})
			debug.capture(world.Field{Name: world.FieldTemperature, Kind: world.KindFloat, Float: temp.Final})
			return nil
		}},
		{StageComputePrecipitation, func() error {
			gen, err := p.noise(p.PrecipitationNoise, seeds.Precipitation)
			if err != nil {
				return err
			}
			precip, err = precipitation.Compute(temp.Final, gen, p.Precipitation)
			if err != nil {
				return err
			}
			debug.capture(world.Field{Name: world.FieldPrecipitationBase, Kind: world.KindFloat, Float: precip.Base})
			debug.capture(world.Field{Name: world.FieldPrecipitationShaped, Kind: world.KindFloat, Float: precip.Shaped})
			debug.capture(world.Field{Name: world.FieldPrecipitation, Kind: world.KindFloat, Float: precip.Final})
			return nil
		}},
		{StageApplyRainShadow, func() error {
			var err error
			shadow, err = rainshadow.Apply(rainshadow.Input{
				Precipitation: precip.Final,
				Elevation:     post.Elevation,
				Ocean:         post.Ocean,
			}, p.RainShadow)
			if err != nil {
				return err
			}
			debug.capture(world.Field{Name: world.FieldRainShadow, Kind: world.KindFloat, Float: shadow})
			return nil
		}},
		{StageApplyCoastalMoisture, func() error {
			var err error
			coast, err = coastal.Apply(coastal.Input{
				Precipitation: shadow,
				Elevation:     post.Elevation,
				Ocean:         post.Ocean,
			}, p.Coastal)
			if err != nil {
				return err
			}
			debug.capture(world.Field{Name: world.FieldDistanceToOcean, Kind: world.KindInt, Int: coast.Distance})
			debug.capture(world.Field{Name: world.FieldFinalPrecipitation, Kind: world.KindFloat, Float: coast.Precipitation})
			return nil
		}},
		{StageAssemble, func() error {
			out = world.New(req.Seed, heightmap, plates)
			out.PostProcessed = post.Elevation
			out.Ocean = post.Ocean
			out.SeaDepth = post.SeaDepth
			out.Thresholds = &levels
			out.Climate = &climate
			out.TemperatureLatitude = temp.Latitude
			out.TemperatureNoise = temp.Noise
			out.TemperatureDistance = temp.Distance
			out.Temperature = temp.Final
			out.PrecipitationBase = precip.Base
			out.PrecipitationShaped = precip.Shaped
			out.Precipitation = precip.Final
			out.RainShadow = shadow
			out.DistanceToOcean = coast.Distance
			out.FinalPrecipitation = coast.Precipitation
			return nil
		}},
	}

	total := time.Now()
	for _, step := range steps {
		start := time.Now()
		if err := step.run(); err != nil {
			g.log().Error("Stage failed", "seed", req.Seed, "stage", step.stage, "error", err)
			return nil, &StageError{Stage: step.stage, Err: err}
		}
		g.log().Debug("Stage complete", "seed", req.Seed, "stage", step.stage, "elapsed", time.Since(start))
	}

	g.log().Info("Climate generated",
		"seed", req.Seed,
		"sea_level", levels.SeaLevel,
		"mountain_level", levels.MountainLevel,
		"ocean_cells", post.Ocean.Count(),
		"elapsed", time.Since(total),
	)
	return out, nil
}

func (g *Generator) seaLevel(req Request, heightmap *grid.Float) (float64, error) {
	if req.SeaLevel != nil {
		return *req.SeaLevel, nil
	}
	if err := grid.ValidateFinite("heightmap", heightmap); err != nil {
		return 0, fmt.Errorf("elevation: %w", err)
	}
	return mathx.Percentile(heightmap.Cells(), 50), nil
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
