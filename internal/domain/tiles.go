package domain

// Tile is one cell of a row-major partition of a parent BBox.
type Tile struct {
	Index int  `json:"index"`
	Row   int  `json:"row"`
	Col   int  `json:"col"`
	BBox  BBox `json:"bbox"`
}

// GridSteps picks the per-axis tile count for a radius. Requests with edges
// much beyond ~250 m tend to time out or come back truncated, so larger
// areas are split into more, smaller requests.
func GridSteps(radiusM float64) int {
	switch {
	case radiusM <= 251:
		return 1
	case radiusM <= 500:
		return 2
	default:
		return 4
	}
}

// PlanTiles splits box into steps×steps equal tiles, row (latitude) outer and
// column (longitude) inner. The last row and column end exactly on the
// parent's max edges so the tiles cover the box without float drift.
func PlanTiles(box BBox, steps int) []Tile {
	if steps < 1 {
		steps = 1
	}
	latStep := (box.MaxLat - box.MinLat) / float64(steps)
	lonStep := (box.MaxLon - box.MinLon) / float64(steps)

	edge := func(lo, step, hi float64, k int) float64 {
		if k == steps {
			return hi
		}
		return lo + float64(k)*step
	}

	tiles := make([]Tile, 0, steps*steps)
	for i := range steps {
		for j := range steps {
			tiles = append(tiles, Tile{
				Index: len(tiles),
				Row:   i,
				Col:   j,
				BBox: BBox{
					MinLon: edge(box.MinLon, lonStep, box.MaxLon, j),
					MinLat: edge(box.MinLat, latStep, box.MaxLat, i),
					MaxLon: edge(box.MinLon, lonStep, box.MaxLon, j+1),
					MaxLat: edge(box.MinLat, latStep, box.MaxLat, i+1),
				},
			})
		}
	}
	return tiles
}
