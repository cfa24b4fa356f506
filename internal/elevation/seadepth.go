package elevation

import (
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
)

// SeaDepth returns the normalized depth of every ocean cell. The depth below
// sea level is attenuated within shoreRamp cells of the nearest land cell,
// which gives the shoreline a gradient instead of a hard step, and the result
// is rescaled to [0, 1] over the ocean. Land cells are 0.
func SeaDepth(elev *grid.Float, ocean *grid.Bool, seaLevel, shoreRamp float64) *grid.Float {
	out := grid.NewFloat(elev.W, elev.H)
	if ocean.Count() == 0 {
		return out
	}

	toLand := grid.EuclideanDistance(ocean)
	dist := toLand.Cells()
	oc := ocean.Cells()
	cells := out.Cells()

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range elev.Cells() {
		if !oc[i] {
			continue
		}
		depth := math.Max(0, seaLevel-v)
		if shoreRamp > 0 && !math.IsInf(dist[i], 1) {
			depth *= math.Min(1, dist[i]/shoreRamp)
		}
		cells[i] = depth
		lo = math.Min(lo, depth)
		hi = math.Max(hi, depth)
	}

	delta := hi - lo
	for i := range cells {
		if !oc[i] {
			continue
		}
		switch {
		case delta > 0:
			cells[i] = (cells[i] - lo) / delta
		case hi > 0:
			cells[i] = 1
		default:
			cells[i] = 0
		}
	}
	return out
}
