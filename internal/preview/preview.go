// Package preview renders single world fields as grayscale PNGs for debugging.
package preview

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/wind"
	"github.com/Coelancanth/Darklands-sub002/internal/world"
	"golang.org/x/image/draw"
)

// MaxSize bounds the longest edge of a scaled preview.
const MaxSize = 4096

// Gray maps a field to an 8-bit grayscale image of the same size. Float and
// int fields are min-max scaled (a constant field is mid gray, negative int
// cells are black); bool fields are 0 or 255.
func Gray(f world.Field) (*image.Gray, error) {
	if f.Empty() {
		return nil, fmt.Errorf("field %s is absent", f.Name)
	}
	w, h := f.Size()
	img := image.NewGray(image.Rect(0, 0, w, h))

	switch {
	case f.Float != nil:
		cells := f.Float.Cells()
		lo, hi := f.Float.MinMax()
		for i, v := range cells {
			img.Pix[i] = scale(v, lo, hi)
		}
	case f.Bool != nil:
		for i, v := range f.Bool.Cells() {
			if v {
				img.Pix[i] = 255
			}
		}
	case f.Int != nil:
		cells := f.Int.Cells()
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range cells {
			if v < 0 {
				continue
			}
			lo = math.Min(lo, float64(v))
			hi = math.Max(hi, float64(v))
		}
		for i, v := range cells {
			if v < 0 {
				continue
			}
			img.Pix[i] = scale(float64(v), lo, hi)
		}
	}
	return img, nil
}

func scale(v, lo, hi float64) uint8 {
	if hi <= lo {
		return 128
	}
	return uint8(math.Round((v - lo) / (hi - lo) * 255))
}

// Scale resizes img so its longest edge is size pixels. size <= 0 returns img
// unchanged.
func Scale(img *image.Gray, size int) *image.Gray {
	if size <= 0 {
		return img
	}
	size = min(size, MaxSize)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if max(w, h) == size {
		return img
	}

	ratio := float64(size) / float64(max(w, h))
	dw := max(1, int(math.Round(float64(w)*ratio)))
	dh := max(1, int(math.Round(float64(h)*ratio)))

	dst := image.NewGray(image.Rect(0, 0, dw, dh))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Encode writes f as a PNG, scaled so its longest edge is size pixels.
func Encode(w io.Writer, f world.Field, size int) error {
	img, err := Gray(f)
	if err != nil {
		return err
	}
	if err := png.Encode(w, Scale(img, size)); err != nil {
		return fmt.Errorf("failed to encode %s preview: %w", f.Name, err)
	}
	return nil
}

// Render converts f to a preview scaled to size. When overlay is non-nil an
// arrow grid of its winds is drawn on top.
func Render(f world.Field, size int, overlay wind.Model) (*image.Gray, error) {
	img, err := Gray(f)
	if err != nil {
		return nil, err
	}
	img = Scale(img, size)
	if overlay != nil {
		_, rows := f.Size()
		DrawWind(img, overlay, rows, max(8, img.Bounds().Dx()/16))
	}
	return img, nil
}
