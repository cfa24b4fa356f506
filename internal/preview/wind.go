package preview

import (
	"image"
	"image/color"
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/wind"
	"golang.org/x/image/vector"
)

// DrawWind rasterizes one arrow per spacing×spacing block of img pointing
// along the prevailing wind of that block's centre row. rows is the row count
// of the field img was rendered from, which may differ from img's height when
// the preview was scaled.
func DrawWind(img *image.Gray, model wind.Model, rows, spacing int) {
	if model == nil {
		model = wind.Latitude{}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if spacing <= 0 || rows <= 0 || w == 0 || h == 0 {
		return
	}

	ras := vector.NewRasterizer(w, h)
	half := float64(spacing) * 0.35
	for cy := spacing / 2; cy < h; cy += spacing {
		row := min(rows-1, cy*rows/h)
		v := model.ForRow(row, rows)
		m := v.Magnitude()
		if m == 0 {
			continue
		}
		dx, dy := v.DX/m, v.DY/m
		for cx := spacing / 2; cx < w; cx += spacing {
			arrow(ras, float64(cx), float64(cy), dx, dy, half)
		}
	}

	src := image.NewUniform(color.Gray{Y: 255})
	ras.Draw(img, b, src, image.Point{})
}

// arrow adds a closed arrow outline centred on (cx, cy) and pointing along the
// unit vector (dx, dy).
func arrow(ras *vector.Rasterizer, cx, cy, dx, dy, half float64) {
	// Perpendicular of the direction.
	px, py := -dy, dx
	shaft := math.Max(half*0.15, 0.5)
	head := half * 0.45

	pts := [][2]float64{
		{cx - dx*half + px*shaft, cy - dy*half + py*shaft},
		{cx + dx*(half-head) + px*shaft, cy + dy*(half-head) + py*shaft},
		{cx + dx*(half-head) + px*head, cy + dy*(half-head) + py*head},
		{cx + dx*half, cy + dy*half},
		{cx + dx*(half-head) - px*head, cy + dy*(half-head) - py*head},
		{cx + dx*(half-head) - px*shaft, cy + dy*(half-head) - py*shaft},
		{cx - dx*half - px*shaft, cy - dy*half - py*shaft},
	}
	for i, pt := range pts {
		if i == 0 {
			ras.MoveTo(float32(pt[0]), float32(pt[1]))
			continue
		}
		ras.LineTo(float32(pt[0]), float32(pt[1]))
	}
	ras.ClosePath()
}
