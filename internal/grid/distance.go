package grid

import "math"

// EuclideanDistance computes, for every inside cell, the Euclidean distance to
// the nearest outside cell using the Felzenszwalb & Huttenlocher separable
// squared distance transform. Outside cells are 0. When the grid has no outside
// cell at all, inside cells are +Inf.
//
// Algorithm: O(n) using two separable 1D passes (rows, then columns) with the
// parabola lower envelope method.
func EuclideanDistance(inside *Bool) *Float {
	w, h := inside.W, inside.H

	// Large but finite so the envelope intersections never see Inf-Inf.
	extent := float64(w + h)
	infinity := extent*extent*2.0 + 1.0

	temp := make([]float64, w*h)
	for i, in := range inside.data {
		if in {
			temp[i] = infinity
		}
	}

	// First pass: rows (horizontal distances)
	rowInput := make([]float64, w)
	rowOutput := make([]float64, w)
	for y := 0; y < h; y++ {
		copy(rowInput, temp[y*w:(y+1)*w])
		distanceTransform1D(rowInput, rowOutput)
		copy(temp[y*w:(y+1)*w], rowOutput)
	}

	// Second pass: columns (complete Euclidean distance)
	colInput := make([]float64, h)
	colOutput := make([]float64, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			colInput[y] = temp[y*w+x]
		}
		distanceTransform1D(colInput, colOutput)
		for y := 0; y < h; y++ {
			temp[y*w+x] = colOutput[y]
		}
	}

	out := NewFloat(w, h)
	for i, distSq := range temp {
		if !inside.data[i] {
			continue
		}
		if distSq >= infinity/2 {
			out.data[i] = math.Inf(1)
			continue
		}
		out.data[i] = math.Sqrt(distSq)
	}
	return out
}

// distanceTransform1D computes the squared distance transform along one dimension
// using the parabola lower envelope method from Felzenszwalb & Huttenlocher.
//
// Input: 0 for boundary cells, a large value for cells that need a distance.
// Output: squared distances to the nearest boundary cell.
func distanceTransform1D(input []float64, output []float64) {
	n := len(input)
	if n == 0 {
		return
	}

	// v[i]: positions of parabola vertices in lower envelope
	v := make([]int, n)
	// z[i]: x-coordinate where parabola v[i] stops being minimal
	z := make([]float64, n+1)

	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)

	for q := 1; q < n; q++ {
		var s float64
		for k >= 0 {
			// Solve (s - v[k])^2 + input[v[k]] = (s - q)^2 + input[q]
			s = ((input[q] + float64(q*q)) - (input[v[k]] + float64(v[k]*v[k]))) /
				(2.0 * float64(q-v[k]))
			if s <= z[k] {
				k--
			} else {
				break
			}
		}

		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dx := float64(q - v[k])
		output[q] = float64(dx*dx) + input[v[k]]
	}
}
