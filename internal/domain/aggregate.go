package domain

import (
	"fmt"
	"log/slog"
)

// TileResponse is the fetch outcome for one tile. Body is nil when the tile
// produced no data.
type TileResponse struct {
	Tile Tile
	Body []byte
}

// AggregateStats summarises one aggregation pass.
type AggregateStats struct {
	TilesWithData int
	Unparsable    int
	Skipped       int
	Adjusted      int
}

// Aggregate decodes the tile responses in order and concatenates their
// features, tile order first and within-tile order second. Tiles without a
// body contribute nothing; tiles whose body cannot be decoded are logged and
// contribute nothing.
func Aggregate(responses []TileResponse, logger *slog.Logger) ([]Feature, AggregateStats) {
	var (
		all   []Feature
		stats AggregateStats
	)
	total := len(responses)
	for _, r := range responses {
		label := fmt.Sprintf("%d/%d", r.Tile.Index+1, total)
		if r.Body == nil {
			continue
		}

		features, issues, err := ParseFeatureCollection(r.Body)
		if err != nil {
			logger.Error("error parsing tile", "tile", label, "error", err)
			stats.Unparsable++
			continue
		}
		stats.TilesWithData++

		for _, issue := range issues {
			if issue.Skipped {
				stats.Skipped++
				logger.Warn("skipping feature", "tile", label, "error", issue.Error())
				continue
			}
			stats.Adjusted++
			logger.Warn("feature height defaulted", "tile", label, "error", issue.Error())
		}

		logger.Info("tile features found", "tile", label, "features", len(features))
		all = append(all, features...)
	}
	return all, stats
}

// Deduplicate keeps the first feature for each id and every feature without
// an id, preserving order.
func Deduplicate(features []Feature) []Feature {
	seen := make(map[string]struct{}, len(features))
	unique := make([]Feature, 0, len(features))
	for _, f := range features {
		if f.HasID() {
			if _, dup := seen[f.ID]; dup {
				continue
			}
			seen[f.ID] = struct{}{}
		}
		unique = append(unique, f)
	}
	return unique
}
