package mathx

import (
	"fmt"
	"hash/fnv"
)

// DeriveSeed deterministically derives an independent sub-seed from a world
// seed and a salt naming its consumer.
func DeriveSeed(seed int64, salt string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return int64(h.Sum64())
}
