// Package thresholds derives the adaptive elevation thresholds of a world from
// the distribution of its post-processed elevation.
package thresholds

import (
	"fmt"
	"sort"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/mathx"
)

// Percentiles used for each threshold.
const (
	SeaPercentile      = 50.0
	HillPercentile     = 70.0
	MountainPercentile = 85.0
	PeakPercentile     = 95.0
)

// Thresholds are raw-unit elevation levels; SeaLevel <= HillLevel <= MountainLevel <= PeakLevel.
type Thresholds struct {
	SeaLevel      float64
	HillLevel     float64
	MountainLevel float64
	PeakLevel     float64
}

// Compute returns the quantile thresholds of elev. SeaLevel is taken over every
// cell; the other levels only over land cells (elevation >= SeaLevel).
func Compute(elev *grid.Float) (Thresholds, error) {
	if err := grid.ValidateFinite("elevation", elev); err != nil {
		return Thresholds{}, fmt.Errorf("thresholds: %w", err)
	}

	sorted := make([]float64, len(elev.Cells()))
	copy(sorted, elev.Cells())
	sort.Float64s(sorted)

	sea := mathx.PercentileSorted(sorted, SeaPercentile)

	// sorted is ascending, so land is a suffix.
	land := sorted[sort.SearchFloat64s(sorted, sea):]
	if len(land) == 0 {
		return Thresholds{SeaLevel: sea, HillLevel: sea, MountainLevel: sea, PeakLevel: sea}, nil
	}

	return Thresholds{
		SeaLevel:      sea,
		HillLevel:     mathx.PercentileSorted(land, HillPercentile),
		MountainLevel: mathx.PercentileSorted(land, MountainPercentile),
		PeakLevel:     mathx.PercentileSorted(land, PeakPercentile),
	}, nil
}

// Validate checks the ordering invariant.
func (t Thresholds) Validate() error {
	if !(t.SeaLevel <= t.HillLevel && t.HillLevel <= t.MountainLevel && t.MountainLevel <= t.PeakLevel) {
		return fmt.Errorf("thresholds out of order: sea=%v hill=%v mountain=%v peak=%v",
			t.SeaLevel, t.HillLevel, t.MountainLevel, t.PeakLevel)
	}
	return nil
}
