package geom

import (
	"math"

	"github.com/trouthatch/trout/noise"
)

// poissonTries is the number of candidates drawn around an active sample.
const poissonTries = 30

// PoissonDisk fills a w by h rectangle with samples no closer than r to
// each other, starting from the center (Bridson's algorithm). Samples are
// never placed in the outermost ring of grid cells.
func PoissonDisk(w, h, r float64, rng *noise.Rand) []Point {
	cell := r / math.Sqrt2
	cols := int(w / cell)
	rows := int(h / cell)
	grid := make([]int, cols*rows)
	for i := range grid {
		grid[i] = -1
	}
	samples := []Point{{X: w / 2, Y: h / 2}}
	if col, row := int(samples[0].X/cell), int(samples[0].Y/cell); col < cols && row < rows {
		grid[col+row*cols] = 0
	}
	active := []Point{samples[0]}
	r2 := r * r

	for len(active) > 0 {
		ri := rng.Intn(len(active))
		pos := active[ri]
		found := false
		for n := 0; n < poissonTries; n++ {
			sr := r + rng.Float64()*r
			sa := 2 * math.Pi * rng.Float64()
			cand := pos.Polar(sa, sr)
			col := int(cand.X / cell)
			row := int(cand.Y / cell)
			if col <= 0 || row <= 0 || col >= cols-1 || row >= rows-1 || grid[col+row*cols] != -1 {
				continue
			}
			if !clearOf(grid, cols, rows, col, row, cand, samples, r2) {
				continue
			}
			found = true
			grid[row*cols+col] = len(samples)
			samples = append(samples, cand)
			active = append(active, cand)
		}
		if !found {
			active = append(active[:ri], active[ri+1:]...)
		}
	}
	return samples
}

// clearOf reports whether cand keeps its distance from every sample in
// the 5x5 block of cells around (col, row).
func clearOf(grid []int, cols, rows, col, row int, cand Point, samples []Point, r2 float64) bool {
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			rr, cc := row+i, col+j
			if rr < 0 || cc < 0 || rr >= rows || cc >= cols {
				continue
			}
			if nb := grid[rr*cols+cc]; nb != -1 && cand.DistanceSquared(samples[nb]) < r2 {
				return false
			}
		}
	}
	return true
}
