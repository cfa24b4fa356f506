package grid

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidDimensions is returned for zero or negative grid extents.
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	// ErrNonFinite is returned when a grid contains NaN or an infinity.
	ErrNonFinite = errors.New("non-finite value")
	// ErrSizeMismatch is returned when grids that must share an extent do not.
	ErrSizeMismatch = errors.New("grid size mismatch")
	// ErrMissingField is returned when a required upstream grid is nil.
	ErrMissingField = errors.New("missing required field")
)

// ValidateDimensions fails for non-positive width or height.
func ValidateDimensions(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	return nil
}

// ValidateFinite reports the first NaN or infinite cell of g.
func ValidateFinite(name string, g *Float) error {
	if g == nil {
		return fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	if err := ValidateDimensions(g.W, g.H); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if len(g.data) != g.W*g.H {
		return fmt.Errorf("%w: %s has %d values for %dx%d", ErrSizeMismatch, name, len(g.data), g.W, g.H)
	}
	for i, v := range g.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s at (%d,%d)", ErrNonFinite, name, i%g.W, i/g.W)
		}
	}
	return nil
}

// RequireSameSize checks that every grid is present and shares the extent of the first.
// Names are given in the same order as the grids.
func RequireSameSize(names []string, grids ...Sized) error {
	var w, h int
	for i, g := range grids {
		name := fmt.Sprintf("#%d", i)
		if i < len(names) {
			name = names[i]
		}
		if isNil(g) {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
		gw, gh := g.Size()
		if i == 0 {
			w, h = gw, gh
			continue
		}
		if gw != w || gh != h {
			return fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrSizeMismatch, name, gw, gh, w, h)
		}
	}
	return nil
}

func isNil(g Sized) bool {
	switch v := g.(type) {
	case nil:
		return true
	case *Float:
		return v == nil
	case *Bool:
		return v == nil
	case *Int:
		return v == nil
	}
	return false
}
