// Package terrain provides the upstream heightmap consumed by the climate
// pipeline.
package terrain

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/mathx"
	"github.com/Coelancanth/Darklands-sub002/internal/noise"
)

// Raw elevation range produced by every Source.
const (
	MinElevation = 0.1
	MaxElevation = 20.0
)

// Source produces a raw heightmap and a plate-id grid for (seed, w, h).
type Source interface {
	Heightmap(ctx context.Context, seed int64, w, h int) (*grid.Float, *grid.Int, error)
}

// Synthetic is a stand-in for a tectonic simulator: fractal OpenSimplex
// continents that sink toward the map border, and plates assigned to the
// nearest of a handful of random sites.
type Synthetic struct {
	// Octaves of continent noise (default 6).
	Octaves int
	// Plates is the plate count (default scales with the map area).
	Plates int
	// EdgeFalloff lowers terrain near the border so the map is ringed by ocean.
	EdgeFalloff float64
}

// NewSynthetic returns a Synthetic source with default settings.
func NewSynthetic() *Synthetic {
	return &Synthetic{Octaves: 6, EdgeFalloff: 0.7}
}

// Heightmap implements Source.
func (s *Synthetic) Heightmap(ctx context.Context, seed int64, w, h int) (*grid.Float, *grid.Int, error) {
	if err := grid.ValidateDimensions(w, h); err != nil {
		return nil, nil, fmt.Errorf("synthetic terrain: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	octaves := s.Octaves
	if octaves <= 0 {
		octaves = 6
	}
	divisor := math.Max(float64(max(w, h))/2, 1)
	gen := noise.NewSimplex(mathx.DeriveSeed(seed, "continents"), octaves, divisor)

	height := grid.NewFloat(w, h)
	cells := height.Cells()
	grid.ForEachRow(h, func(y int) {
		ny := grid.NormalizedRow(y, h)
		for x := 0; x < w; x++ {
			nx := grid.NormalizedRow(x, w)
			edge := math.Max(math.Abs(nx), math.Abs(ny)) * 2
			v := gen.Sample2D(float64(x), float64(y)) - float64(s.EdgeFalloff*edge*edge*edge)
			v = mathx.Clamp(v, -1, 1)
			cells[y*w+x] = MinElevation + float64((v+1)/2*(MaxElevation-MinElevation))
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return height, s.plates(seed, w, h), nil
}

func (s *Synthetic) plates(seed int64, w, h int) *grid.Int {
	n := s.Plates
	if n <= 0 {
		n = min(max(w*h/4096, 4), 24)
	}

	r := rand.New(rand.NewPCG(uint64(mathx.DeriveSeed(seed, "plates")), 0))
	sites := make([][2]float64, n)
	for i := range sites {
		sites[i] = [2]float64{r.Float64() * float64(w), r.Float64() * float64(h)}
	}

	out := grid.NewInt(w, h)
	cells := out.Cells()
	grid.ForEachRow(h, func(y int) {
		for x := 0; x < w; x++ {
			best, bestDist := 0, math.Inf(1)
			for i, site := range sites {
				dx := float64(x) + 0.5 - site[0]
				dy := float64(y) + 0.5 - site[1]
				if d := float64(dx*dx) + float64(dy*dy); d < bestDist {
					best, bestDist = i, d
				}
			}
			cells[y*w+x] = best
		}
	})
	return out
}

// Fixed serves a heightmap supplied by the caller, for any seed.
type Fixed struct {
	Height *grid.Float
	// Plates may be nil, in which case every cell belongs to plate 0.
	Plates *grid.Int
}

// Heightmap implements Source. The requested size must match the stored grid.
// Callers receive clones.
func (f Fixed) Heightmap(ctx context.Context, _ int64, w, h int) (*grid.Float, *grid.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if f.Height == nil {
		return nil, nil, fmt.Errorf("fixed terrain: %w: heightmap", grid.ErrMissingField)
	}
	if f.Height.W != w || f.Height.H != h {
		return nil, nil, fmt.Errorf("fixed terrain: %w: have %dx%d, requested %dx%d",
			grid.ErrSizeMismatch, f.Height.W, f.Height.H, w, h)
	}

	plates := grid.NewInt(w, h)
	if f.Plates != nil {
		if err := grid.RequireSameSize([]string{"heightmap", "plates"}, f.Height, f.Plates); err != nil {
			return nil, nil, fmt.Errorf("fixed terrain: %w", err)
		}
		plates = f.Plates.Clone()
	}
	return f.Height.Clone(), plates, nil
}
