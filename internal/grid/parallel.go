package grid

import (
	"runtime"
	"sync"
)

// ForEachRow calls fn once for every row in [0, h), splitting the rows into
// contiguous chunks processed by concurrent workers. fn must only write cells of
// its own row and must only read grids produced by earlier stages.
func ForEachRow(h int, fn func(y int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > h {
		workers = h
	}
	if workers <= 1 {
		for y := 0; y < h; y++ {
			fn(y)
		}
		return
	}

	var wg sync.WaitGroup
	var chunkStart int
	chunkSize := (h / workers) + 1
	for i := 0; i < workers; i++ {
		curChunk := chunkSize
		if rem := h - chunkStart; rem < curChunk {
			curChunk = rem
		}
		if curChunk <= 0 {
			break
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for y := start; y < end; y++ {
				fn(y)
			}
		}(chunkStart, chunkStart+curChunk)
		chunkStart += curChunk
	}
	wg.Wait()
}
