// Package noise provides the seeded multi-octave coherent 2D noise used by the
// terrain, temperature, and precipitation stages.
package noise

import (
	"fmt"
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/mathx"
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Backend selects the underlying gradient noise implementation.
type Backend string

const (
	BackendPerlin  Backend = "perlin"
	BackendSimplex Backend = "simplex"
)

// Generator samples deterministic coherent noise in [-1, 1].
type Generator interface {
	Sample2D(x, y float64) float64
}

// Config describes one noise instance.
type Config struct {
	Backend Backend
	Seed    int64
	Octaves int
	// Divisor scales grid coordinates down before sampling; larger values give
	// smoother, larger-scale features.
	Divisor float64
}

// New builds a Generator for cfg. The result is safe for concurrent use.
func New(cfg Config) (Generator, error) {
	if cfg.Octaves <= 0 {
		return nil, fmt.Errorf("octaves must be positive, got %d", cfg.Octaves)
	}
	if cfg.Divisor <= 0 || math.IsNaN(cfg.Divisor) || math.IsInf(cfg.Divisor, 0) {
		return nil, fmt.Errorf("frequency divisor must be positive, got %v", cfg.Divisor)
	}

	switch cfg.Backend {
	case BackendPerlin, "":
		return newPerlin(cfg)
	case BackendSimplex:
		return NewSimplex(cfg.Seed, cfg.Octaves, cfg.Divisor), nil
	default:
		return nil, fmt.Errorf("unknown noise backend %q", cfg.Backend)
	}
}

// perlinPeriod is the lattice period of go-perlin's permutation table.
const perlinPeriod = perlin.B

// maxReseeds bounds how often newPerlin re-derives a seed whose gradient
// table is degenerate.
const maxReseeds = 16

// newPerlin builds a Perlin generator whose gradient table holds no zero
// vector. go-perlin normalizes every random gradient, so a zero draw turns
// into NaN for every lattice cell touching it; such seeds are re-derived.
func newPerlin(cfg Config) (*Perlin, error) {
	seed := cfg.Seed
	for attempt := 0; attempt < maxReseeds; attempt++ {
		if perlinFinite(seed) {
			return &Perlin{
				// alpha: amplitude divisor per octave, beta: frequency multiplier per octave
				p:       perlin.NewPerlin(2.0, 2.0, int32(cfg.Octaves), seed),
				divisor: cfg.Divisor,
			}, nil
		}
		seed = mathx.DeriveSeed(seed, "perlin-reseed")
	}
	return nil, fmt.Errorf("no finite perlin gradient table for seed %d", cfg.Seed)
}

// perlinFinite samples the centre of every lattice cell of one period. The
// gradient table does not depend on the octave count, so one octave visits
// every gradient.
func perlinFinite(seed int64) bool {
	p := perlin.NewPerlin(2.0, 2.0, 1, seed)
	for y := 0; y < perlinPeriod; y++ {
		for x := 0; x < perlinPeriod; x++ {
			if math.IsNaN(p.Noise2D(float64(x)+0.5, float64(y)+0.5)) {
				return false
			}
		}
	}
	return true
}

// Perlin is fractal Perlin noise: octaves are summed with halving amplitude and
// doubling frequency.
type Perlin struct {
	p       *perlin.Perlin
	divisor float64
}

// Sample2D implements Generator.
func (n *Perlin) Sample2D(x, y float64) float64 {
	return clampUnit(n.p.Noise2D(x/n.divisor, y/n.divisor))
}

// Simplex is fractal OpenSimplex noise normalized by the amplitude sum.
type Simplex struct {
	os         opensimplex.Noise
	amplitudes []float64
	ampSum     float64
	divisor    float64
}

// NewSimplex creates an OpenSimplex generator with amplitude-halving octaves.
func NewSimplex(seed int64, octaves int, divisor float64) *Simplex {
	s := &Simplex{
		os:         opensimplex.New(seed),
		amplitudes: make([]float64, octaves),
		divisor:    divisor,
	}
	for i := range s.amplitudes {
		s.amplitudes[i] = math.Pow(0.5, float64(i))
		s.ampSum += s.amplitudes[i]
	}
	return s
}

// Sample2D implements Generator.
func (n *Simplex) Sample2D(x, y float64) float64 {
	x /= n.divisor
	y /= n.divisor
	var sum float64
	freq := 1.0
	for _, amp := range n.amplitudes {
		sum += float64(amp * n.os.Eval2(x*freq, y*freq))
		freq *= 2
	}
	return clampUnit(sum / n.ampSum)
}

// SampleGrid samples gen at the integer coordinates of every cell of a w×h grid.
func SampleGrid(gen Generator, w, h int) *grid.Float {
	out := grid.NewFloat(w, h)
	cells := out.Cells()
	grid.ForEachRow(h, func(y int) {
		row := cells[y*w : (y+1)*w]
		for x := range row {
			row[x] = gen.Sample2D(float64(x), float64(y))
		}
	})
	return out
}

// clampUnit limits v to [-1, 1] and maps NaN to 0.
func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
