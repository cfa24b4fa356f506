package pipeline

import (
	"fmt"

	"github.com/Coelancanth/Darklands-sub002/internal/coastal"
	"github.com/Coelancanth/Darklands-sub002/internal/elevation"
	"github.com/Coelancanth/Darklands-sub002/internal/noise"
	"github.com/Coelancanth/Darklands-sub002/internal/precipitation"
	"github.com/Coelancanth/Darklands-sub002/internal/rainshadow"
	"github.com/Coelancanth/Darklands-sub002/internal/temperature"
)

// NoiseParams configures one of the per-world noise generators.
type NoiseParams struct {
	Octaves int     `mapstructure:"octaves"`
	Divisor float64 `mapstructure:"divisor"`
}

// Params holds every numeric knob of the pipeline. The zero value is not
// usable; start from DefaultParams.
type Params struct {
	NoiseBackend       noise.Backend `mapstructure:"noise_backend"`
	TerrainNoise       NoiseParams   `mapstructure:"terrain_noise"`
	ClimateNoise       NoiseParams   `mapstructure:"climate_noise"`
	PrecipitationNoise NoiseParams   `mapstructure:"precipitation_noise"`

	Elevation     elevation.Params     `mapstructure:"elevation"`
	Temperature   temperature.Params   `mapstructure:"temperature"`
	Precipitation precipitation.Params `mapstructure:"precipitation"`
	RainShadow    rainshadow.Params    `mapstructure:"rain_shadow"`
	Coastal       coastal.Params       `mapstructure:"coastal"`
}

// DefaultParams returns the standard climate model.
func DefaultParams() Params {
	return Params{
		NoiseBackend:       noise.BackendPerlin,
		TerrainNoise:       NoiseParams{Octaves: 8, Divisor: 128},
		ClimateNoise:       NoiseParams{Octaves: 8, Divisor: 128},
		PrecipitationNoise: NoiseParams{Octaves: 6, Divisor: 384},
		Elevation:          elevation.DefaultParams(),
		Temperature:        temperature.DefaultParams(),
		Precipitation:      precipitation.DefaultParams(),
		RainShadow:         rainshadow.DefaultParams(),
		Coastal:            coastal.DefaultParams(),
	}
}

// Validate rejects parameter sets no stage can run with.
func (p Params) Validate() error {
	switch p.NoiseBackend {
	case noise.BackendPerlin, noise.BackendSimplex, "":
	default:
		return fmt.Errorf("unknown noise backend %q", p.NoiseBackend)
	}
	for _, n := range []struct {
		name string
		np   NoiseParams
	}{
		{"terrain", p.TerrainNoise},
		{"climate", p.ClimateNoise},
		{"precipitation", p.PrecipitationNoise},
	} {
		if n.np.Octaves <= 0 || n.np.Divisor <= 0 {
			return fmt.Errorf("invalid %s noise: octaves=%d divisor=%g", n.name, n.np.Octaves, n.np.Divisor)
		}
	}
	if p.RainShadow.MaxSteps < 0 {
		return fmt.Errorf("invalid rain shadow steps: %d", p.RainShadow.MaxSteps)
	}
	if p.Coastal.DecayRange <= 0 {
		return fmt.Errorf("invalid coastal decay range: %g", p.Coastal.DecayRange)
	}
	return nil
}

func (p Params) noise(np NoiseParams, seed int64) (noise.Generator, error) {
	return noise.New(noise.Config{
		Backend: p.NoiseBackend,
		Seed:    seed,
		Octaves: np.Octaves,
		Divisor: np.Divisor,
	})
}
