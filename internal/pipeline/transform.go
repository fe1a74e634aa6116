package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/footprint-extrusion/internal/domain"
)

// reconstruct projects every unique feature around center and extrudes it.
// All solids of a run share the projector built here.
func (p *Pipeline) reconstruct(center domain.GeoPoint, features []domain.Feature, logger *slog.Logger) []domain.Solid {
	projector := domain.NewProjector(center)
	origin := projector.Center()
	mLon, mLat := projector.Scale()
	logger.Info("projection center",
		"lon", origin.Lon,
		"lat", origin.Lat,
		"m_per_deg_lon", fmt.Sprintf("%.2f", mLon),
		"m_per_deg_lat", fmt.Sprintf("%.2f", mLat),
	)

	rec := domain.NewReconstructor(projector, p.kernel)
	start := p.clock.Now()

	var solids []domain.Solid
	for i, f := range features {
		built, failures := rec.Reconstruct(f, i, logger)
		solids = append(solids, built...)
		p.metrics.PolygonFailures.Add(float64(failures))
		p.metrics.SolidsBuilt.Add(float64(len(built)))

		if i > 0 && i%progressEvery == 0 {
			logProgress(logger, i, p.clock.Since(start).Seconds())
		}
	}

	logger.Info("geometry creation took", "duration", seconds(p.clock.Since(start)))
	return solids
}

func logProgress(logger *slog.Logger, processed int, elapsed float64) {
	if elapsed <= 0 {
		logger.Info("processed features", "features", processed)
		return
	}
	rate := float64(processed+1) / elapsed
	logger.Info("processed features", "features", processed, "buildings_per_sec", fmt.Sprintf("%.1f", rate))
}
