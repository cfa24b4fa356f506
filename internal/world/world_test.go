package world

import (
	"testing"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsCoverEveryWorldGrid(t *testing.T) {
	w := New(7, grid.NewFloat(3, 2), grid.NewInt(3, 2))
	for _, name := range Fields() {
		f, err := w.Field(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, f.Name)
		assert.Equal(t, KindOf(name), f.Kind)
	}
	assert.Equal(t, []FieldName{FieldHeightmap, FieldPlates}, w.Present())
	assert.Equal(t, 3, w.Width)
	assert.Equal(t, 2, w.Height)
}

func TestSetFieldRoundTrip(t *testing.T) {
	w := New(1, grid.NewFloat(4, 4), grid.NewInt(4, 4))

	for _, name := range Fields() {
		f := Field{Name: name}
		switch KindOf(name) {
		case KindFloat:
			f.Float = grid.NewFloat(4, 4)
		case KindBool:
			f.Bool = grid.NewBool(4, 4)
		case KindInt:
			f.Int = grid.NewInt(4, 4)
		}
		require.NoError(t, w.SetField(f), name)

		got, err := w.Field(name)
		require.NoError(t, err)
		assert.False(t, got.Empty(), name)
	}
	assert.Equal(t, Fields(), w.Present())
}

func TestSetFieldRejectsBadInput(t *testing.T) {
	w := New(1, grid.NewFloat(4, 4), grid.NewInt(4, 4))

	err := w.SetField(Field{Name: FieldTemperature, Float: grid.NewFloat(5, 4)})
	require.ErrorIs(t, err, grid.ErrSizeMismatch)

	err = w.SetField(Field{Name: FieldOcean, Float: grid.NewFloat(4, 4)})
	require.Error(t, err)

	err = w.SetField(Field{Name: FieldRainShadow})
	require.ErrorIs(t, err, grid.ErrMissingField)

	err = w.SetField(Field{Name: "humidity", Float: grid.NewFloat(4, 4)})
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestSetFieldAdoptsExtentOfEmptyWorld(t *testing.T) {
	w := &World{}
	require.NoError(t, w.SetField(Field{Name: FieldElevation, Float: grid.NewFloat(6, 3)}))
	assert.Equal(t, 6, w.Width)
	assert.Equal(t, 3, w.Height)
}

func TestLookupField(t *testing.T) {
	tests := []struct {
		in      string
		want    FieldName
		suggest string
	}{
		{in: "temperature", want: FieldTemperature},
		{in: "  Rain-Shadow ", want: FieldRainShadow},
		{in: "temprature", suggest: `did you mean "temperature"?`},
		{in: "sea-dept", suggest: `did you mean "sea-depth"?`},
		{in: "completely-unrelated-name"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := LookupField(tt.in)
			if tt.want != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.ErrorIs(t, err, ErrUnknownField)
			if tt.suggest != "" {
				assert.Contains(t, err.Error(), tt.suggest)
			} else {
				assert.NotContains(t, err.Error(), "did you mean")
			}
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "float", KindFloat.String())
	assert.Equal(t, "bool", KindBool.String())
	assert.Equal(t, "int", KindInt.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
