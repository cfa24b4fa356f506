// Package grid provides the row-major 2D grids shared by every climate stage.
package grid

import (
	"fmt"
	"math"
)

// Float stores a 2D grid of float64 values in row-major order.
type Float struct {
	W, H int
	data []float64
}

// NewFloat allocates a zeroed float grid. Dimensions must be validated by the caller.
func NewFloat(w, h int) *Float {
	return &Float{W: w, H: h, data: make([]float64, w*h)}
}

// FloatFrom wraps an existing row-major slice. The slice is used as-is.
func FloatFrom(w, h int, data []float64) (*Float, error) {
	if err := ValidateDimensions(w, h); err != nil {
		return nil, err
	}
	if len(data) != w*h {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrSizeMismatch, len(data), w, h)
	}
	return &Float{W: w, H: h, data: data}, nil
}

// Cells exposes the backing slice.
func (g *Float) Cells() []float64 { return g.data }

// Index returns the linear slice index for coordinates (x, y).
func (g *Float) Index(x, y int) int { return y*g.W + x }

// At returns the value at (x, y).
func (g *Float) At(x, y int) float64 { return g.data[y*g.W+x] }

// Set stores v at (x, y).
func (g *Float) Set(x, y int, v float64) { g.data[y*g.W+x] = v }

// Clone returns a deep copy.
func (g *Float) Clone() *Float {
	out := &Float{W: g.W, H: g.H, data: make([]float64, len(g.data))}
	copy(out.data, g.data)
	return out
}

// MinMax returns the smallest and largest value of the grid.
func (g *Float) MinMax() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range g.data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Bool stores a 2D grid of flags in row-major order.
type Bool struct {
	W, H int
	data []bool
}

// NewBool allocates an all-false grid.
func NewBool(w, h int) *Bool {
	return &Bool{W: w, H: h, data: make([]bool, w*h)}
}

// BoolFrom wraps an existing row-major slice.
func BoolFrom(w, h int, data []bool) (*Bool, error) {
	if err := ValidateDimensions(w, h); err != nil {
		return nil, err
	}
	if len(data) != w*h {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrSizeMismatch, len(data), w, h)
	}
	return &Bool{W: w, H: h, data: data}, nil
}

func (g *Bool) Cells() []bool { return g.data }
func (g *Bool) Index(x, y int) int { return y*g.W + x }
func (g *Bool) At(x, y int) bool { return g.data[y*g.W+x] }
func (g *Bool) Set(x, y int, v bool) { g.data[y*g.W+x] = v }

// Count returns the number of set cells.
func (g *Bool) Count() int {
	n := 0
	for _, v := range g.data {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (g *Bool) Clone() *Bool {
	out := &Bool{W: g.W, H: g.H, data: make([]bool, len(g.data))}
	copy(out.data, g.data)
	return out
}

// Int stores a 2D grid of integers in row-major order.
type Int struct {
	W, H int
	data []int
}

// NewInt allocates a zeroed integer grid.
func NewInt(w, h int) *Int {
	return &Int{W: w, H: h, data: make([]int, w*h)}
}

// IntFrom wraps an existing row-major slice.
func IntFrom(w, h int, data []int) (*Int, error) {
	if err := ValidateDimensions(w, h); err != nil {
		return nil, err
	}
	if len(data) != w*h {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrSizeMismatch, len(data), w, h)
	}
	return &Int{W: w, H: h, data: data}, nil
}

func (g *Int) Cells() []int { return g.data }
func (g *Int) Index(x, y int) int { return y*g.W + x }
func (g *Int) At(x, y int) int { return g.data[y*g.W+x] }
func (g *Int) Set(x, y int, v int) { g.data[y*g.W+x] = v }

// Clone returns a deep copy.
func (g *Int) Clone() *Int {
	out := &Int{W: g.W, H: g.H, data: make([]int, len(g.data))}
	copy(out.data, g.data)
	return out
}

// Sized is implemented by every grid type.
type Sized interface {
	Size() (int, int)
}

func (g *Float) Size() (int, int) { return g.W, g.H }
func (g *Bool) Size() (int, int) { return g.W, g.H }
func (g *Int) Size() (int, int) { return g.W, g.H }

// NormalizedRow returns the cell-centred vertical position of row y in [-0.5, 0.5],
// with -0.5 at the top edge of the grid.
func NormalizedRow(y, h int) float64 {
	return (float64(y)+0.5)/float64(h) - 0.5
}
