package scheduler

import "math/big"

// SpiralOrder returns tile indices starting at the grid center and
// expanding in concentric square rings (right, down, left, up, the
// ring growing every two turns). Used for pure zooms so the visual
// center sharpens first. Every tile appears exactly once.
func SpiralOrder(cols, rows int) []int {
	total := cols * rows
	result := make([]int, 0, total)
	visited := make([]bool, total)

	x, y := cols/2, rows/2
	dx := [4]int{1, 0, -1, 0}
	dy := [4]int{0, 1, 0, -1}
	dir := 0
	steps := 1

	result = append(result, y*cols+x)
	visited[y*cols+x] = true

	for len(result) < total {
		for turn := 0; turn < 2; turn++ {
			for step := 0; step < steps; step++ {
				x += dx[dir]
				y += dy[dir]
				if x >= 0 && x < cols && y >= 0 && y < rows && !visited[y*cols+x] {
					result = append(result, y*cols+x)
					visited[y*cols+x] = true
				}
			}
			dir = (dir + 1) % 4
		}
		steps++
	}
	return result
}

// RasterOrder returns tile indices column-major from the corner
// matching the pan direction, so tiles the camera is moving toward
// are scheduled first. fromLeft/fromTop pick the origin corner.
func RasterOrder(cols, rows int, fromLeft, fromTop bool) []int {
	result := make([]int, 0, cols*rows)
	for c := 0; c < cols; c++ {
		col := c
		if !fromLeft {
			col = cols - 1 - c
		}
		for r := 0; r < rows; r++ {
			row := r
			if !fromTop {
				row = rows - 1 - r
			}
			result = append(result, row*cols+col)
		}
	}
	return result
}

// PassOrder picks the traversal for one scheduling pass from the pan
// delta: a pure zoom (zero delta) spirals outward from the center,
// a pan rasters from the corner given by the delta signs.
func PassOrder(cols, rows int, dx, dy *big.Float) []int {
	if dx.Sign() == 0 && dy.Sign() == 0 {
		return SpiralOrder(cols, rows)
	}
	return RasterOrder(cols, rows, dx.Sign() >= 0, dy.Sign() >= 0)
}
