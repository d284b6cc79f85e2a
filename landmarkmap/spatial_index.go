package landmarkmap

import (
	"math"
	"sort"
)

type GridCell struct {
	XIdx, YIdx int
}

// SpatialIndex buckets landmark positions (by index into the owning map) into a
// uniform grid.
type SpatialIndex struct {
	grid     map[GridCell][]int
	cellSize float64 // in metres

	minCell, maxCell GridCell
}

func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		grid:     make(map[GridCell][]int),
		cellSize: cellSize,
	}
}

func (si *SpatialIndex) getCell(x, y float64) GridCell {
	return GridCell{
		XIdx: int(math.Floor(x / si.cellSize)),
		YIdx: int(math.Floor(y / si.cellSize)),
	}
}

func (si *SpatialIndex) Insert(i int, x, y float64) {
	cell := si.getCell(x, y)
	if len(si.grid) == 0 {
		si.minCell, si.maxCell = cell, cell
	} else {
		si.minCell.XIdx = min(si.minCell.XIdx, cell.XIdx)
		si.minCell.YIdx = min(si.minCell.YIdx, cell.YIdx)
		si.maxCell.XIdx = max(si.maxCell.XIdx, cell.XIdx)
		si.maxCell.YIdx = max(si.maxCell.YIdx, cell.YIdx)
	}
	si.grid[cell] = append(si.grid[cell], i)
}

// Nearest walks square rings of cells outwards from the query cell. A landmark in
// ring k+1 is at least k cells away, so the walk stops once the best distance
// found is strictly below that bound; equal distances keep the lowest index.
func (si *SpatialIndex) Nearest(x, y float64, landmarks []Landmark) (int, float64) {
	center := si.getCell(x, y)
	if !si.inBounds(center) {
		return si.scan(x, y, landmarks)
	}

	maxRing := max(
		abs(center.XIdx-si.minCell.XIdx), abs(center.XIdx-si.maxCell.XIdx),
		abs(center.YIdx-si.minCell.YIdx), abs(center.YIdx-si.maxCell.YIdx),
	)

	best := -1
	bestDist := math.Inf(1)

	for ring := 0; ring <= maxRing; ring++ {
		si.visitRing(center, ring, func(cell GridCell) {
			for _, i := range si.grid[cell] {
				l := landmarks[i]
				d := Distance(x, y, l.X, l.Y)
				if best < 0 || d < bestDist || (d == bestDist && i < best) {
					best, bestDist = i, d
				}
			}
		})

		if best >= 0 && bestDist < float64(ring)*si.cellSize {
			break
		}
	}

	return best, bestDist
}

// QueryRadius returns the sorted indices of landmarks within r of (x, y).
func (si *SpatialIndex) QueryRadius(x, y, r float64, landmarks []Landmark) []int {
	centerCell := si.getCell(x, y)
	radiusInCells := int(math.Min(math.Ceil(r/si.cellSize), 1<<30)) + 1

	lo := GridCell{
		XIdx: max(centerCell.XIdx-radiusInCells, si.minCell.XIdx),
		YIdx: max(centerCell.YIdx-radiusInCells, si.minCell.YIdx),
	}
	hi := GridCell{
		XIdx: min(centerCell.XIdx+radiusInCells, si.maxCell.XIdx),
		YIdx: min(centerCell.YIdx+radiusInCells, si.maxCell.YIdx),
	}

	var results []int
	for cx := lo.XIdx; cx <= hi.XIdx; cx++ {
		for cy := lo.YIdx; cy <= hi.YIdx; cy++ {
			cell := GridCell{XIdx: cx, YIdx: cy}

			for _, i := range si.grid[cell] {
				l := landmarks[i]
				if Distance(x, y, l.X, l.Y) <= r {
					results = append(results, i)
				}
			}
		}
	}

	sort.Ints(results)
	return results
}

func (si *SpatialIndex) visitRing(center GridCell, ring int, fn func(GridCell)) {
	if ring == 0 {
		fn(center)
		return
	}
	for d := -ring; d <= ring; d++ {
		fn(GridCell{XIdx: center.XIdx + d, YIdx: center.YIdx - ring})
		fn(GridCell{XIdx: center.XIdx + d, YIdx: center.YIdx + ring})
	}
	for d := -ring + 1; d <= ring-1; d++ {
		fn(GridCell{XIdx: center.XIdx - ring, YIdx: center.YIdx + d})
		fn(GridCell{XIdx: center.XIdx + ring, YIdx: center.YIdx + d})
	}
}

func (si *SpatialIndex) inBounds(c GridCell) bool {
	return c.XIdx >= si.minCell.XIdx && c.XIdx <= si.maxCell.XIdx &&
		c.YIdx >= si.minCell.YIdx && c.YIdx <= si.maxCell.YIdx
}

// scan is the exhaustive fallback for queries outside the occupied grid.
func (si *SpatialIndex) scan(x, y float64, landmarks []Landmark) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i, l := range landmarks {
		if d := Distance(x, y, l.X, l.Y); best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
