package topology

import (
	"math"
	"math/rand"
)

// PlacePMUs assigns one location per PMU on a shuffled uniform grid.
//
// The W×L area is partitioned into ⌈√(N·W/L)⌉ columns and ⌈N/cols⌉ rows.
// Cells are enumerated row-major and shuffled with seed·1000+999; PMU i is
// then placed uniformly at random inside the i-th shuffled cell using its
// own seed seed·10⁶+i. Per-PMU seeding keeps a single placement independent
// of the fleet size ordering.
func PlacePMUs(n int, width, length float64, seed int64) []Location {
	if n <= 0 {
		return nil
	}
	cols := int(math.Ceil(math.Sqrt(float64(n) * width / length)))
	if cols < 1 {
		cols = 1
	}
	rows := int(math.Ceil(float64(n) / float64(cols)))
	cellW := width / float64(cols)
	cellL := length / float64(rows)

	cells := make([]int, rows*cols)
	for i := range cells {
		cells[i] = i
	}
	shuffler := rand.New(rand.NewSource(seed*1000 + 999))
	shuffler.Shuffle(len(cells), func(i, j int) {
		cells[i], cells[j] = cells[j], cells[i]
	})

	locs := make([]Location, n)
	for i := 0; i < n; i++ {
		cell := cells[i]
		row := cell / cols
		col := cell % cols
		rng := rand.New(rand.NewSource(seed*1000000 + int64(i)))
		locs[i] = Location{
			X: (float64(col) + rng.Float64()) * cellW,
			Y: (float64(row) + rng.Float64()) * cellL,
		}
	}
	return locs
}
