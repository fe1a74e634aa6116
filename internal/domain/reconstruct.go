package domain

import (
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// ClosureTolerance is the gap in metres beyond which a ring is closed by
	// repeating its first point.
	ClosureTolerance = 1e-6

	// SurfaceTolerance is the fit tolerance handed to the kernel.
	SurfaceTolerance = 1e-3
)

// Reconstructor turns footprint polygons into extruded solids in the frame of
// a single projector.
type Reconstructor struct {
	projector Projector
	kernel    GeometryKernel
}

// NewReconstructor binds a projector and a geometry kernel.
func NewReconstructor(projector Projector, kernel GeometryKernel) *Reconstructor {
	return &Reconstructor{projector: projector, kernel: kernel}
}

// Reconstruct builds one solid per polygon of the feature. A polygon that
// fails at any step is logged and skipped; the rest of the feature still
// yields solids. index is the feature's position in the unique feature list.
func (r *Reconstructor) Reconstruct(f Feature, index int, logger *slog.Logger) ([]Solid, int) {
	var (
		solids   []Solid
		failures int
	)
	for pi, poly := range f.Polygons {
		brep, err := r.buildPolygon(poly, f.Height)
		if err != nil {
			failures++
			logger.Warn("error creating building solid, skipping polygon",
				"feature_index", index,
				"feature_id", f.ID,
				"polygon_index", pi,
				"error", err,
			)
			continue
		}
		solids = append(solids, Solid{
			FeatureID:    f.ID,
			FeatureIndex: index,
			PolygonIndex: pi,
			Height:       f.Height,
			Brep:         brep,
		})
	}
	return solids, failures
}

func (r *Reconstructor) buildPolygon(poly orb.Polygon, height float64) (Brep, error) {
	if len(poly) == 0 {
		return Brep{}, fmt.Errorf("polygon has no rings")
	}
	curves := make([]Loop, 0, len(poly))
	for _, ring := range poly {
		curves = append(curves, r.curve(ring))
	}

	surface, err := r.kernel.PlanarSurface(curves, SurfaceTolerance)
	if err != nil {
		return Brep{}, fmt.Errorf("planar surface: %w", err)
	}
	brep, err := r.kernel.Extrude(surface, height)
	if err != nil {
		return Brep{}, fmt.Errorf("extrude: %w", err)
	}
	return brep, nil
}

// curve projects a ring onto the ground plane and closes it if needed.
func (r *Reconstructor) curve(ring orb.Ring) Loop {
	loop := make(Loop, 0, len(ring)+1)
	for _, pt := range r.projector.ProjectRing(ring) {
		loop = append(loop, r3.Vec{X: pt.X(), Y: pt.Y()})
	}
	if len(loop) > 0 && r3.Norm(r3.Sub(loop[0], loop[len(loop)-1])) > ClosureTolerance {
		loop = append(loop, loop[0])
	}
	return loop
}
