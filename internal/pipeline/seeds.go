package pipeline

import "github.com/Coelancanth/Darklands-sub002/internal/mathx"

// Seeds are the independent sub-seeds of one world.
type Seeds struct {
	World         int64
	Terrain       int64
	Climate       int64
	Precipitation int64
	Parameters    int64
}

// DeriveSeeds splits a world seed into uncorrelated per-purpose seeds.
func DeriveSeeds(seed int64) Seeds {
	return Seeds{
		World:         seed,
		Terrain:       mathx.DeriveSeed(seed, "terrain-noise"),
		Climate:       mathx.DeriveSeed(seed, "climate-noise"),
		Precipitation: mathx.DeriveSeed(seed, "precipitation-noise"),
		Parameters:    mathx.DeriveSeed(seed, "climate-parameters"),
	}
}
