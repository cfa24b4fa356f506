package temperature

import (
	"math"
	"testing"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/mathx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constantNoise float64

func (c constantNoise) Sample2D(x, y float64) float64 { return float64(c) }

func flat(w, h int, v float64) *grid.Float {
	g := grid.NewFloat(w, h)
	for i := range g.Cells() {
		g.Cells()[i] = v
	}
	return g
}

func TestLatitudeStageNoTilt(t *testing.T) {
	h := 64
	lat := LatitudeStage(4, h, 0)

	// Cold poles, hot equator, symmetric.
	assert.Less(t, lat.At(0, 0), 0.05)
	assert.Less(t, lat.At(0, h-1), 0.05)
	assert.Greater(t, lat.At(0, h/2), 0.95)
	for y := 0; y < h; y++ {
		assert.InDelta(t, lat.At(0, y), lat.At(0, h-1-y), 1e-12)
		assert.Equal(t, lat.At(0, y), lat.At(3, y), "rows are uniform")
	}
}

func TestLatitudeStageTiltShiftsEquator(t *testing.T) {
	h := 100
	lat := LatitudeStage(1, h, 0.2)

	hottest := 0
	for y := 1; y < h; y++ {
		if lat.At(0, y) > lat.At(0, hottest) {
			hottest = y
		}
	}
	assert.InDelta(t, 70, hottest, 1)
}

func TestNoiseStageWeighting(t *testing.T) {
	p := DefaultParams()
	lat := flat(3, 3, 1)

	out := NoiseStage(lat, constantNoise(0), ClimateParameters{DistanceToSunSq: 1}, p)
	assert.InDelta(t, 12.0/13.0, out.At(1, 1), 1e-12)

	out = NoiseStage(lat, constantNoise(-1), ClimateParameters{DistanceToSunSq: 1}, p)
	assert.InDelta(t, 11.0/13.0, out.At(1, 1), 1e-12)

	// A closer sun warms, clamped to 1.
	out = NoiseStage(lat, constantNoise(1), ClimateParameters{DistanceToSunSq: 0.5}, p)
	assert.Equal(t, 1.0, out.At(0, 0))
}

func TestDistanceStageMatchesNoiseStage(t *testing.T) {
	noisy := flat(5, 5, 0.3)
	dist := DistanceStage(noisy)
	assert.Equal(t, noisy.Cells(), dist.Cells())
	dist.Set(0, 0, 1)
	assert.Equal(t, 0.3, noisy.At(0, 0), "stages must not share storage")
}

func TestCoolingFactor(t *testing.T) {
	p := DefaultParams()
	m := 10.0

	tests := []struct {
		elev float64
		want float64
	}{
		{elev: 5, want: 1},
		{elev: 10, want: 1},
		{elev: 25, want: 0.5},
		{elev: 39, want: 1 - 29.0/30.0},
		{elev: 39.5, want: 0.033},
		{elev: 1000, want: 0.033},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, CoolingFactor(tt.elev, m, p), 1e-12, "elev %v", tt.elev)
	}
}

func TestMountainCoolingOnlyAboveMountainLevel(t *testing.T) {
	prev := flat(4, 1, 0.8)
	elev := grid.NewFloat(4, 1)
	copy(elev.Cells(), []float64{1, 5, 5.0001, 20})

	out := MountainCooling(prev, elev, 5, DefaultParams())
	assert.Equal(t, 0.8, out.At(0, 0))
	assert.Equal(t, 0.8, out.At(1, 0))
	assert.Less(t, out.At(2, 0), 0.8)
	assert.InDelta(t, 0.8*0.5, out.At(3, 0), 1e-12)
}

func TestComputeFlatWorldHasNoCooling(t *testing.T) {
	elev := flat(64, 64, 3)
	st, err := Compute(Input{
		Elevation:     elev,
		MountainLevel: 3,
		Noise:         constantNoise(0.25),
		Climate:       ClimateParameters{AxialTilt: 0, DistanceToSunSq: 1},
	}, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, st.Distance.Cells(), st.Final.Cells())
}

func TestComputeStagesInRange(t *testing.T) {
	elev := flat(16, 16, 2)
	elev.Set(8, 8, 19)
	st, err := Compute(Input{
		Elevation:     elev,
		MountainLevel: 4,
		Noise:         constantNoise(0.9),
		Climate:       ClimateParameters{AxialTilt: 0.1, DistanceToSunSq: 0.81},
	}, DefaultParams())
	require.NoError(t, err)

	for _, g := range []*grid.Float{st.Latitude, st.Noise, st.Distance, st.Final} {
		for _, v := range g.Cells() {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
	assert.Less(t, st.Final.At(8, 8), st.Distance.At(8, 8))
}

func TestComputeValidation(t *testing.T) {
	bad := flat(2, 2, 1)
	bad.Set(0, 0, math.NaN())

	_, err := Compute(Input{Elevation: bad, Noise: constantNoise(0), Climate: ClimateParameters{DistanceToSunSq: 1}}, DefaultParams())
	require.ErrorIs(t, err, grid.ErrNonFinite)

	_, err = Compute(Input{Elevation: flat(2, 2, 1), Climate: ClimateParameters{DistanceToSunSq: 1}}, DefaultParams())
	require.ErrorIs(t, err, grid.ErrMissingField)

	_, err = Compute(Input{Elevation: flat(2, 2, 1), Noise: constantNoise(0)}, DefaultParams())
	require.Error(t, err)
}

func TestSampleClimate(t *testing.T) {
	p := DefaultParams()
	a := SampleClimate(mathx.NewGaussian(9), p)
	b := SampleClimate(mathx.NewGaussian(9), p)
	assert.Equal(t, a, b)

	g := mathx.NewGaussian(1)
	for i := 0; i < 1000; i++ {
		c := SampleClimate(g, p)
		assert.GreaterOrEqual(t, c.AxialTilt, -0.5)
		assert.LessOrEqual(t, c.AxialTilt, 0.5)
		assert.GreaterOrEqual(t, c.DistanceToSunSq, 0.01-1e-12)
	}
}
