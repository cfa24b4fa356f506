package thresholds

import (
	"math"
	"testing"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeOrdering(t *testing.T) {
	g := grid.NewFloat(10, 10)
	for i := range g.Cells() {
		// Skewed distribution with a long mountainous tail.
		g.Cells()[i] = 0.1 + math.Pow(float64(i)/99, 3)*19.9
	}

	th, err := Compute(g)
	require.NoError(t, err)
	require.NoError(t, th.Validate())

	assert.Less(t, th.SeaLevel, th.HillLevel)
	assert.Less(t, th.HillLevel, th.MountainLevel)
	assert.Less(t, th.MountainLevel, th.PeakLevel)
}

func TestComputeLandOnlyQuantiles(t *testing.T) {
	// 0..99 ascending: sea = 49.5, land = 50..99.
	g := grid.NewFloat(100, 1)
	for i := range g.Cells() {
		g.Cells()[i] = float64(i)
	}

	th, err := Compute(g)
	require.NoError(t, err)
	assert.InDelta(t, 49.5, th.SeaLevel, 1e-9)
	assert.InDelta(t, 50+0.70*49, th.HillLevel, 1e-9)
	assert.InDelta(t, 50+0.85*49, th.MountainLevel, 1e-9)
	assert.InDelta(t, 50+0.95*49, th.PeakLevel, 1e-9)
}

func TestFlatWorldCollapses(t *testing.T) {
	g := grid.NewFloat(64, 64)
	for i := range g.Cells() {
		g.Cells()[i] = 4.2
	}

	th, err := Compute(g)
	require.NoError(t, err)
	assert.Equal(t, Thresholds{SeaLevel: 4.2, HillLevel: 4.2, MountainLevel: 4.2, PeakLevel: 4.2}, th)
}

func TestComputeRejectsNonFinite(t *testing.T) {
	g := grid.NewFloat(2, 2)
	g.Set(0, 1, math.Inf(1))
	_, err := Compute(g)
	require.ErrorIs(t, err, grid.ErrNonFinite)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Thresholds{SeaLevel: 2, HillLevel: 1, MountainLevel: 3, PeakLevel: 4}.Validate())
	assert.NoError(t, Thresholds{SeaLevel: 1, HillLevel: 1, MountainLevel: 1, PeakLevel: 1}.Validate())
}
