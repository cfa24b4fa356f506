package mathx

import (
	"math"
	"math/rand/v2"
)

// hwhmToSigma converts a half-width-half-max to a standard deviation.
var hwhmToSigma = 1 / math.Sqrt(2*math.Ln2)

// Gaussian draws normally distributed samples with the Box–Muller transform
// from a deterministic PCG source.
type Gaussian struct {
	r *rand.Rand
}

// NewGaussian creates a sampler seeded from seed.
func NewGaussian(seed int64) *Gaussian {
	return &Gaussian{r: rand.New(rand.NewPCG(uint64(seed), uint64(DeriveSeed(seed, "gaussian"))))}
}

// Standard returns one sample of N(0, 1).
func (g *Gaussian) Standard() float64 {
	// 1-Float64 lies in (0, 1], so the logarithm stays finite.
	u1 := 1 - g.r.Float64()
	u2 := g.r.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Sample returns one sample of N(mean, sigma²).
func (g *Gaussian) Sample(mean, sigma float64) float64 {
	return mean + float64(sigma*g.Standard())
}

// SampleHWHM returns one sample of a normal distribution described by its mean
// and half-width-half-max.
func (g *Gaussian) SampleHWHM(mean, hwhm float64) float64 {
	return g.Sample(mean, hwhm*hwhmToSigma)
}
