package world

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/agnivade/levenshtein"
)

// FieldName identifies one grid of a World.
type FieldName string

const (
	FieldHeightmap           FieldName = "heightmap"
	FieldPlates              FieldName = "plates"
	FieldElevation           FieldName = "elevation"
	FieldOcean               FieldName = "ocean"
	FieldSeaDepth            FieldName = "sea-depth"
	FieldTemperatureLatitude FieldName = "temperature-latitude"
	FieldTemperatureNoise    FieldName = "temperature-noise"
	FieldTemperatureDistance FieldName = "temperature-distance"
	FieldTemperature         FieldName = "temperature"
	FieldPrecipitationBase   FieldName = "precipitation-base"
	FieldPrecipitationShaped FieldName = "precipitation-shaped"
	FieldPrecipitation       FieldName = "precipitation"
	FieldRainShadow          FieldName = "rain-shadow"
	FieldDistanceToOcean     FieldName = "distance-to-ocean"
	FieldFinalPrecipitation  FieldName = "final-precipitation"
)

var fieldOrder = []FieldName{
	FieldHeightmap,
	FieldPlates,
	FieldElevation,
	FieldOcean,
	FieldSeaDepth,
	FieldTemperatureLatitude,
	FieldTemperatureNoise,
	FieldTemperatureDistance,
	FieldTemperature,
	FieldPrecipitationBase,
	FieldPrecipitationShaped,
	FieldPrecipitation,
	FieldRainShadow,
	FieldDistanceToOcean,
	FieldFinalPrecipitation,
}

// Fields returns every field name in pipeline order.
func Fields() []FieldName {
	out := make([]FieldName, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// Kind is the element type of a field.
type Kind int

const (
	KindFloat Kind = iota + 1
	KindBool
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	}
	return "unknown"
}

// KindOf returns the element type stored under name.
func KindOf(name FieldName) Kind {
	switch name {
	case FieldPlates, FieldDistanceToOcean:
		return KindInt
	case FieldOcean:
		return KindBool
	}
	return KindFloat
}

// Field is a view of one grid. Exactly one of Float, Bool or Int is set for a
// present field.
type Field struct {
	Name  FieldName
	Kind  Kind
	Float *grid.Float
	Bool  *grid.Bool
	Int   *grid.Int
}

// Empty reports whether the field is absent.
func (f Field) Empty() bool {
	return f.Float == nil && f.Bool == nil && f.Int == nil
}

// Size returns the grid extent, or 0x0 for an absent field.
func (f Field) Size() (int, int) {
	switch {
	case f.Float != nil:
		return f.Float.Size()
	case f.Bool != nil:
		return f.Bool.Size()
	case f.Int != nil:
		return f.Int.Size()
	}
	return 0, 0
}

// ErrUnknownField is returned for names outside the registry.
var ErrUnknownField = errors.New("unknown field")

// maxSuggestDistance bounds how far a typo may be from a suggestion.
const maxSuggestDistance = 4

// LookupField parses s into a FieldName, suggesting the closest match when s
// is not a known name.
func LookupField(s string) (FieldName, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, name := range fieldOrder {
		if string(name) == s {
			return name, nil
		}
	}

	best, bestDist := FieldName(""), maxSuggestDistance+1
	for _, name := range fieldOrder {
		if d := levenshtein.ComputeDistance(s, string(name)); d < bestDist {
			best, bestDist = name, d
		}
	}
	if best != "" {
		return "", fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownField, s, best)
	}
	return "", fmt.Errorf("%w %q", ErrUnknownField, s)
}

// Field returns the grid stored under name.
func (w *World) Field(name FieldName) (Field, error) {
	f := Field{Name: name, Kind: KindOf(name)}
	switch name {
	case FieldHeightmap:
		f.Float = w.Heightmap
	case FieldPlates:
		f.Int = w.Plates
	case FieldElevation:
		f.Float = w.PostProcessed
	case FieldOcean:
		f.Bool = w.Ocean
	case FieldSeaDepth:
		f.Float = w.SeaDepth
	case FieldTemperatureLatitude:
		f.Float = w.TemperatureLatitude
	case FieldTemperatureNoise:
		f.Float = w.TemperatureNoise
	case FieldTemperatureDistance:
		f.Float = w.TemperatureDistance
	case FieldTemperature:
		f.Float = w.Temperature
	case FieldPrecipitationBase:
		f.Float = w.PrecipitationBase
	case FieldPrecipitationShaped:
		f.Float = w.PrecipitationShaped
	case FieldPrecipitation:
		f.Float = w.Precipitation
	case FieldRainShadow:
		f.Float = w.RainShadow
	case FieldDistanceToOcean:
		f.Int = w.DistanceToOcean
	case FieldFinalPrecipitation:
		f.Float = w.FinalPrecipitation
	default:
		return Field{}, fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	return f, nil
}

// SetField stores f under f.Name. The grid must match the field's kind and,
// once the world has an extent, its size.
func (w *World) SetField(f Field) error {
	want := KindOf(f.Name)
	if _, err := w.Field(f.Name); err != nil {
		return err
	}
	if f.Empty() {
		return fmt.Errorf("%w: %s", grid.ErrMissingField, f.Name)
	}
	if (want == KindFloat && f.Float == nil) ||
		(want == KindBool && f.Bool == nil) ||
		(want == KindInt && f.Int == nil) {
		return fmt.Errorf("field %s holds %s values", f.Name, want)
	}

	fw, fh := f.Size()
	if w.Width == 0 && w.Height == 0 {
		w.Width, w.Height = fw, fh
	} else if fw != w.Width || fh != w.Height {
		return fmt.Errorf("%w: %s is %dx%d, want %dx%d", grid.ErrSizeMismatch, f.Name, fw, fh, w.Width, w.Height)
	}

	switch f.Name {
	case FieldHeightmap:
		w.Heightmap = f.Float
	case FieldPlates:
		w.Plates = f.Int
	case FieldElevation:
		w.PostProcessed = f.Float
	case FieldOcean:
		w.Ocean = f.Bool
	case FieldSeaDepth:
		w.SeaDepth = f.Float
	case FieldTemperatureLatitude:
		w.TemperatureLatitude = f.Float
	case FieldTemperatureNoise:
		w.TemperatureNoise = f.Float
	case FieldTemperatureDistance:
		w.TemperatureDistance = f.Float
	case FieldTemperature:
		w.Temperature = f.Float
	case FieldPrecipitationBase:
		w.PrecipitationBase = f.Float
	case FieldPrecipitationShaped:
		w.PrecipitationShaped = f.Float
	case FieldPrecipitation:
		w.Precipitation = f.Float
	case FieldRainShadow:
		w.RainShadow = f.Float
	case FieldDistanceToOcean:
		w.DistanceToOcean = f.Int
	case FieldFinalPrecipitation:
		w.FinalPrecipitation = f.Float
	}
	return nil
}
