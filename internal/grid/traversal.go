package grid

// neighbors4 lists the 4-connected offsets in a fixed order so traversals are
// deterministic.
var neighbors4 = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// FloodFill marks every cell reachable from a seed through passable cells using
// 4-connected breadth-first search. Seeds that are not passable are ignored.
func FloodFill(seeds []int, passable *Bool) *Bool {
	w, h := passable.W, passable.H
	visited := NewBool(w, h)
	queue := make([]int, 0, len(seeds))

	for _, i := range seeds {
		if i < 0 || i >= len(passable.data) || !passable.data[i] || visited.data[i] {
			continue
		}
		visited.data[i] = true
		queue = append(queue, i)
	}

	for head := 0; head < len(queue); head++ {
		i := queue[head]
		x, y := i%w, i/w
		for _, d := range neighbors4 {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			j := ny*w + nx
			if visited.data[j] || !passable.data[j] {
				continue
			}
			visited.data[j] = true
			queue = append(queue, j)
		}
	}

	return visited
}

// BorderCells returns the linear indices of every cell on the grid border, in
// row-major order and without duplicates.
func BorderCells(w, h int) []int {
	out := make([]int, 0, 2*(w+h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if y == 0 || y == h-1 || x == 0 || x == w-1 {
				out = append(out, y*w+x)
			}
		}
	}
	return out
}

// BFSDistance returns the 4-connected hop distance from every cell to the
// nearest source cell. Source cells have distance 0; cells that cannot be
// reached (no sources at all) are -1.
func BFSDistance(sources *Bool) *Int {
	w, h := sources.W, sources.H
	dist := NewInt(w, h)
	queue := make([]int, 0, len(sources.data))

	for i, src := range sources.data {
		if src {
			queue = append(queue, i)
		} else {
			dist.data[i] = -1
		}
	}

	for head := 0; head < len(queue); head++ {
		i := queue[head]
		x, y := i%w, i/w
		next := dist.data[i] + 1
		for _, d := range neighbors4 {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			j := ny*w + nx
			if dist.data[j] != -1 {
				continue
			}
			dist.data[j] = next
			queue = append(queue, j)
		}
	}

	return dist
}
