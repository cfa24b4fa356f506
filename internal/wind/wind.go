// Package wind maps latitude to the prevailing surface wind of a simplified
// three-cell atmospheric circulation.
package wind

import (
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
)

// Band is an atmospheric circulation band.
type Band int

const (
	TradeWinds Band = iota
	Westerlies
	PolarEasterlies
)

func (b Band) String() string {
	switch b {
	case TradeWinds:
		return "trade-winds"
	case Westerlies:
		return "westerlies"
	case PolarEasterlies:
		return "polar-easterlies"
	}
	return "unknown"
}

// Vector is a unit wind direction in grid space (+DX east, +DY south).
type Vector struct {
	DX, DY float64
}

var (
	East = Vector{DX: 1}
	West = Vector{DX: -1}
)

// Magnitude returns the vector length.
func (v Vector) Magnitude() float64 {
	return math.Hypot(v.DX, v.DY)
}

// Band limits in degrees of absolute latitude (inclusive upper bound).
const (
	tradeLimit    = 30.0
	westerlyLimit = 60.0
)

// Prevailing returns the circulation band and wind direction at latDeg.
// |lat| <= 30 is trade winds (westward), 30 < |lat| <= 60 westerlies
// (eastward), |lat| > 60 polar easterlies (westward).
func Prevailing(latDeg float64) (Band, Vector) {
	abs := math.Abs(latDeg)
	switch {
	case abs <= tradeLimit:
		return TradeWinds, West
	case abs <= westerlyLimit:
		return Westerlies, East
	default:
		return PolarEasterlies, West
	}
}

// LatitudeForRow maps row y of an h-row grid to degrees, +90 at the top edge
// and -90 at the bottom edge, sampled at the row centre.
func LatitudeForRow(y, h int) float64 {
	return -grid.NormalizedRow(y, h) * 180
}

// Model yields the wind direction for each row of a grid.
type Model interface {
	ForRow(y, h int) Vector
}

// Latitude is the default Model: prevailing winds by row latitude.
type Latitude struct{}

// ForRow implements Model.
func (Latitude) ForRow(y, h int) Vector {
	_, v := Prevailing(LatitudeForRow(y, h))
	return v
}

// Constant blows the same direction on every row.
type Constant Vector

// ForRow implements Model.
func (c Constant) ForRow(y, h int) Vector {
	return Vector(c)
}
