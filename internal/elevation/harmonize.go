package elevation

import (
	"image"
	"image/color"
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/disintegration/gift"
)

// Harmonize smooths the ocean floor: floor cells are first compressed toward
// the shallow-sea midpoint, then Gaussian-blurred with land treated as sea
// level. Only ocean cells change and every ocean cell stays below sea level.
func Harmonize(elev *grid.Float, ocean *grid.Bool, seaLevel float64, p Params) *grid.Float {
	out := elev.Clone()
	if ocean.Count() == 0 {
		return out
	}

	cells := out.Cells()
	oc := ocean.Cells()

	shallow := seaLevel * p.ShallowFraction
	mid := shallow / 2
	if p.FloorCompression > 0 {
		for i, v := range cells {
			if !oc[i] || v >= shallow {
				continue
			}
			cells[i] = mid + (v-mid)/p.FloorCompression
		}
	}

	if p.SmoothingSigma > 0 {
		smoothOceanFloor(out, ocean, seaLevel, p.SmoothingSigma)
	}
	return out
}

// smoothOceanFloor blurs ocean cells in place through a 16-bit gray image
// spanning [deepest ocean cell, sea level].
func smoothOceanFloor(elev *grid.Float, ocean *grid.Bool, seaLevel float64, sigma float32) {
	cells := elev.Cells()
	oc := ocean.Cells()

	lo := math.Inf(1)
	for i, v := range cells {
		if oc[i] && v < lo {
			lo = v
		}
	}
	span := seaLevel - lo
	if span <= 0 {
		return
	}

	w, h := elev.W, elev.H
	src := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			norm := 1.0
			if oc[i] {
				norm = (cells[i] - lo) / span
			}
			src.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(norm * 65535))})
		}
	}

	g := gift.New(gift.GaussianBlur(sigma))
	dst := image.NewGray16(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	ceiling := seaLevel - span/65535
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !oc[i] {
				continue
			}
			v := lo + float64(float64(dst.Gray16At(x, y).Y)/65535*span)
			cells[i] = math.Min(v, ceiling)
		}
	}
}
