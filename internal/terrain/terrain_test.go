package terrain

import (
	"context"
	"testing"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticRangeAndDeterminism(t *testing.T) {
	src := NewSynthetic()
	h1, p1, err := src.Heightmap(context.Background(), 42, 64, 48)
	require.NoError(t, err)
	h2, p2, err := src.Heightmap(context.Background(), 42, 64, 48)
	require.NoError(t, err)

	assert.Equal(t, h1.Cells(), h2.Cells())
	assert.Equal(t, p1.Cells(), p2.Cells())

	lo, hi := h1.MinMax()
	assert.GreaterOrEqual(t, lo, MinElevation)
	assert.LessOrEqual(t, hi, MaxElevation)
	assert.Greater(t, hi, lo)
	require.NoError(t, grid.ValidateFinite("height", h1))
}

func TestSyntheticSeedsDiffer(t *testing.T) {
	src := NewSynthetic()
	h1, _, err := src.Heightmap(context.Background(), 1, 32, 32)
	require.NoError(t, err)
	h2, _, err := src.Heightmap(context.Background(), 2, 32, 32)
	require.NoError(t, err)
	assert.NotEqual(t, h1.Cells(), h2.Cells())
}

func TestSyntheticBorderIsLow(t *testing.T) {
	h, _, err := (&Synthetic{Octaves: 6, EdgeFalloff: 2}).Heightmap(context.Background(), 9, 64, 64)
	require.NoError(t, err)

	var border, centre float64
	for x := 0; x < 64; x++ {
		border += h.At(x, 0) + h.At(x, 63)
	}
	for x := 16; x < 48; x++ {
		centre += h.At(x, 31) + h.At(x, 32)
	}
	assert.Less(t, border/128, centre/64)
}

func TestSyntheticPlates(t *testing.T) {
	src := &Synthetic{Octaves: 4, Plates: 5}
	_, plates, err := src.Heightmap(context.Background(), 3, 40, 30)
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, id := range plates.Cells() {
		assert.GreaterOrEqual(t, id, 0)
		assert.Less(t, id, 5)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestSyntheticErrors(t *testing.T) {
	_, _, err := NewSynthetic().Heightmap(context.Background(), 1, 0, 4)
	require.ErrorIs(t, err, grid.ErrInvalidDimensions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = NewSynthetic().Heightmap(ctx, 1, 4, 4)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFixed(t *testing.T) {
	height := grid.NewFloat(3, 2)
	height.Set(1, 1, 5)

	h, p, err := Fixed{Height: height}.Heightmap(context.Background(), 99, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, height.Cells(), h.Cells())
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0}, p.Cells())

	h.Set(1, 1, 0)
	assert.Equal(t, 5.0, height.At(1, 1), "caller receives a clone")

	_, _, err = Fixed{Height: height}.Heightmap(context.Background(), 0, 2, 3)
	require.ErrorIs(t, err, grid.ErrSizeMismatch)

	_, _, err = Fixed{Height: height, Plates: grid.NewInt(2, 2)}.Heightmap(context.Background(), 0, 3, 2)
	require.ErrorIs(t, err, grid.ErrSizeMismatch)

	_, _, err = Fixed{}.Heightmap(context.Background(), 0, 3, 2)
	require.ErrorIs(t, err, grid.ErrMissingField)
}
