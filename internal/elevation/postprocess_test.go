package elevation

import (
	"math"
	"testing"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constantNoise float64

func (c constantNoise) Sample2D(x, y float64) float64 { return float64(c) }

// islandHeightmap builds a w×h map with a low border sea, a high plateau in the
// middle, and a one-cell pit inside the plateau.
func islandHeightmap(w, h int) *grid.Float {
	g := grid.NewFloat(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 1.0
			if x >= 3 && x < w-3 && y >= 3 && y < h-3 {
				v = 12.0
			}
			g.Set(x, y, v)
		}
	}
	g.Set(w/2, h/2, 0.5)
	return g
}

func terrainNoise(t *testing.T) noise.Generator {
	t.Helper()
	gen, err := noise.New(noise.Config{Seed: 11, Octaves: 8, Divisor: 128})
	require.NoError(t, err)
	return gen
}

func TestPostProcessDoesNotModifyInput(t *testing.T) {
	height := islandHeightmap(20, 20)
	before := height.Clone()

	_, err := PostProcess(height, 5, terrainNoise(t), DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, before.Cells(), height.Cells())
}

func TestIsolatedPitIsNotOcean(t *testing.T) {
	height := islandHeightmap(20, 20)

	res, err := PostProcess(height, 5, constantNoise(0), DefaultParams())
	require.NoError(t, err)

	assert.False(t, res.Ocean.At(10, 10), "pit below sea level but not border-connected")
	assert.True(t, res.Ocean.At(0, 0))
	assert.False(t, res.Ocean.At(5, 5))
}

func TestOceanIsBorderConnected(t *testing.T) {
	height := islandHeightmap(32, 24)
	res, err := PostProcess(height, 5, terrainNoise(t), DefaultParams())
	require.NoError(t, err)

	ocean := res.Ocean
	var borderOcean []int
	for _, i := range grid.BorderCells(ocean.W, ocean.H) {
		if ocean.Cells()[i] {
			borderOcean = append(borderOcean, i)
		}
	}
	reached := grid.FloodFill(borderOcean, ocean)
	assert.Equal(t, ocean.Cells(), reached.Cells())
}

func TestHarmonizedOceanStaysBelowSeaLevel(t *testing.T) {
	height := islandHeightmap(24, 24)
	seaLevel := 5.0

	res, err := PostProcess(height, seaLevel, terrainNoise(t), DefaultParams())
	require.NoError(t, err)

	for i, isOcean := range res.Ocean.Cells() {
		if isOcean {
			assert.Less(t, res.Elevation.Cells()[i], seaLevel)
		}
	}
}

func TestHarmonizeLeavesLandUntouched(t *testing.T) {
	height := islandHeightmap(16, 16)
	ocean := FloodOcean(height, 5)

	out := Harmonize(height, ocean, 5, DefaultParams())
	for i, isOcean := range ocean.Cells() {
		if !isOcean {
			assert.Equal(t, height.Cells()[i], out.Cells()[i])
		}
	}
}

func TestSeaDepthRange(t *testing.T) {
	height := grid.NewFloat(16, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			// Deepening sea to the west, land on the eastern quarter.
			height.Set(x, y, 0.1+float64(x)*0.5)
		}
	}

	res, err := PostProcess(height, 5, constantNoise(0), DefaultParams())
	require.NoError(t, err)

	for i, d := range res.SeaDepth.Cells() {
		if !res.Ocean.Cells()[i] {
			assert.Equal(t, 0.0, d)
			continue
		}
		assert.GreaterOrEqual(t, d, 0.0)
		assert.LessOrEqual(t, d, 1.0)
	}
	// Deep west is deeper than the cell right at the shore.
	assert.Greater(t, res.SeaDepth.At(0, 4), res.SeaDepth.At(9, 4))
}

func TestInjectNoiseRoundsProduct(t *testing.T) {
	height := grid.NewFloat(3, 1)
	copy(height.Cells(), []float64{0.1, 0.7, 0.3})
	amplitude, n := 1.0/3, 0.1
	lo, hi := height.MinMax()
	scale := amplitude * (hi - lo)

	out := InjectNoise(height, constantNoise(n), amplitude)
	for i, v := range height.Cells() {
		want := v + float64(n*scale)
		assert.Equal(t, math.Float64bits(want), math.Float64bits(out.Cells()[i]), "cell %d", i)
	}
}

func TestFlatHeightmapStaysFlat(t *testing.T) {
	height := grid.NewFloat(8, 8)
	for i := range height.Cells() {
		height.Cells()[i] = 3
	}
	res, err := PostProcess(height, 3, terrainNoise(t), DefaultParams())
	require.NoError(t, err)

	for _, v := range res.Elevation.Cells() {
		assert.Equal(t, 3.0, v)
	}
	assert.Equal(t, 0, res.Ocean.Count())
}

func TestSingleCellGrid(t *testing.T) {
	height := grid.NewFloat(1, 1)
	height.Set(0, 0, 0.2)

	res, err := PostProcess(height, 1, terrainNoise(t), DefaultParams())
	require.NoError(t, err)
	assert.True(t, res.Ocean.At(0, 0))
	assert.InDelta(t, 1.0, res.SeaDepth.At(0, 0), 1e-12)
}

func TestPostProcessRejectsNonFinite(t *testing.T) {
	height := grid.NewFloat(4, 4)
	height.Set(1, 2, math.NaN())

	_, err := PostProcess(height, 1, constantNoise(0), DefaultParams())
	require.ErrorIs(t, err, grid.ErrNonFinite)

	_, err = PostProcess(grid.NewFloat(4, 4), math.Inf(1), constantNoise(0), DefaultParams())
	require.ErrorIs(t, err, grid.ErrNonFinite)

	_, err = PostProcess(grid.NewFloat(4, 4), 1, nil, DefaultParams())
	require.ErrorIs(t, err, grid.ErrMissingField)
}
