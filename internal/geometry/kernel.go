// Package geometry implements the planar-surface and extrusion operations the
// reconstruction stage needs, producing closed boundary representations made
// of planar faces.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/footprint-extrusion/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrNoCurves       = errors.New("no curves")
	ErrOpenCurve      = errors.New("curve is not closed")
	ErrDegenerate     = errors.New("curve is degenerate")
	ErrNonPlanar      = errors.New("curves are not coplanar")
	ErrSelfIntersects = errors.New("curve intersects itself")
	ErrHoleOutside    = errors.New("hole is not inside the boundary")
	ErrHolesOverlap   = errors.New("holes overlap")
	ErrInvalidHeight  = errors.New("extrusion height must be positive")
	ErrNotClosed      = errors.New("extrusion is not a closed solid")
	ErrInvalidSurface = errors.New("surface has no boundary")
)

// closedCheckEpsilon is the vertex-merge distance used when verifying that an
// extrusion is watertight.
const closedCheckEpsilon = 1e-9

// Kernel is the default domain.GeometryKernel.
type Kernel struct{}

// NewKernel returns a Kernel.
func NewKernel() *Kernel { return &Kernel{} }

var _ domain.GeometryKernel = (*Kernel)(nil)

// PlanarSurface builds a surface from a boundary and zero or more holes. The
// surface normal points up (+Z) whenever the plane is not vertical, so
// footprints always extrude upwards regardless of ring winding.
func (k *Kernel) PlanarSurface(curves []domain.Loop, tolerance float64) (domain.Surface, error) {
	if len(curves) == 0 {
		return domain.Surface{}, ErrNoCurves
	}

	loops := make([]domain.Loop, len(curves))
	for i, c := range curves {
		l, err := cleanLoop(c, tolerance)
		if err != nil {
			return domain.Surface{}, fmt.Errorf("curve %d: %w", i, err)
		}
		loops[i] = l
	}

	outer := loops[0]
	area := outer.AreaVector()
	if r3.Norm(area) <= tolerance*tolerance {
		return domain.Surface{}, fmt.Errorf("curve 0: %w: zero area", ErrDegenerate)
	}
	normal := r3.Unit(area)
	if normal.Z < 0 {
		normal = r3.Scale(-1, normal)
		outer = outer.Reversed()
	}

	origin := outer[0]
	for i, l := range loops {
		for _, v := range l {
			if d := math.Abs(r3.Dot(r3.Sub(v, origin), normal)); d > tolerance {
				return domain.Surface{}, fmt.Errorf("curve %d: %w: off-plane by %g", i, ErrNonPlanar, d)
			}
		}
	}

	b := newBasis(origin, normal)
	outerRing := b.ring(outer)
	if selfIntersects(outerRing) {
		return domain.Surface{}, fmt.Errorf("curve 0: %w", ErrSelfIntersects)
	}

	holes := make([]domain.Loop, 0, len(loops)-1)
	holeRings := make([]orb.Ring, 0, len(loops)-1)
	for i, h := range loops[1:] {
		ha := h.AreaVector()
		if r3.Norm(ha) <= tolerance*tolerance {
			return domain.Surface{}, fmt.Errorf("curve %d: %w: zero area", i+1, ErrDegenerate)
		}
		if r3.Dot(ha, normal) > 0 {
			h = h.Reversed()
		}
		holeRing := b.ring(h)
		if selfIntersects(holeRing) {
			return domain.Surface{}, fmt.Errorf("curve %d: %w", i+1, ErrSelfIntersects)
		}
		if !ringInside(holeRing, outerRing) {
			return domain.Surface{}, fmt.Errorf("curve %d: %w", i+1, ErrHoleOutside)
		}
		for j, other := range holeRings {
			if ringsOverlap(holeRing, other) {
				return domain.Surface{}, fmt.Errorf("curves %d and %d: %w", j+1, i+1, ErrHolesOverlap)
			}
		}
		holes = append(holes, h)
		holeRings = append(holeRings, holeRing)
	}

	return domain.Surface{Outer: outer, Holes: holes, Normal: normal}, nil
}

// Extrude sweeps the surface along its normal by height. The result has a
// bottom face, a top face and one quadrilateral side face per edge of the
// boundary and of every hole.
func (k *Kernel) Extrude(s domain.Surface, height float64) (domain.Brep, error) {
	if math.IsNaN(height) || math.IsInf(height, 0) || height <= 0 {
		return domain.Brep{}, fmt.Errorf("%w: %v", ErrInvalidHeight, height)
	}
	if len(s.Outer) < 4 {
		return domain.Brep{}, ErrInvalidSurface
	}
	d := r3.Scale(height, r3.Unit(s.Normal))

	bottom := domain.Face{Outer: s.Outer.Reversed()}
	top := domain.Face{Outer: translate(s.Outer, d)}
	for _, h := range s.Holes {
		bottom.Holes = append(bottom.Holes, h.Reversed())
		top.Holes = append(top.Holes, translate(h, d))
	}

	faces := []domain.Face{bottom, top}
	faces = appendSides(faces, s.Outer, top.Outer)
	for i, h := range s.Holes {
		faces = appendSides(faces, h, top.Holes[i])
	}

	brep := domain.Brep{Faces: faces}
	if !brep.Closed(closedCheckEpsilon) {
		return domain.Brep{}, ErrNotClosed
	}
	return brep, nil
}

// appendSides adds one wall per edge of base, joining it to the matching edge
// of the translated loop.
func appendSides(faces []domain.Face, base, lifted domain.Loop) []domain.Face {
	for i := 0; i+1 < len(base); i++ {
		a, b := base[i], base[i+1]
		at, bt := lifted[i], lifted[i+1]
		faces = append(faces, domain.Face{Outer: domain.Loop{a, b, bt, at, a}})
	}
	return faces
}

func translate(l domain.Loop, d r3.Vec) domain.Loop {
	out := make(domain.Loop, len(l))
	for i, v := range l {
		out[i] = r3.Add(v, d)
	}
	return out
}

// cleanLoop checks closure, drops repeated vertices and returns the loop
// closed with its exact first vertex.
func cleanLoop(c domain.Loop, tol float64) (domain.Loop, error) {
	if len(c) < 2 {
		return nil, fmt.Errorf("%w: %d vertices", ErrDegenerate, len(c))
	}
	if r3.Norm(r3.Sub(c[0], c[len(c)-1])) > tol {
		return nil, ErrOpenCurve
	}

	out := make(domain.Loop, 0, len(c))
	for _, v := range c[:len(c)-1] {
		if len(out) > 0 && r3.Norm(r3.Sub(v, out[len(out)-1])) <= tol {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && r3.Norm(r3.Sub(out[0], out[len(out)-1])) <= tol {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil, fmt.Errorf("%w: %d distinct vertices", ErrDegenerate, len(out))
	}
	return append(out, out[0]), nil
}

// basis maps points on a plane to 2D coordinates.
type basis struct {
	origin, u, v r3.Vec
}

func newBasis(origin, normal r3.Vec) basis {
	axis := r3.Vec{X: 1}
	if math.Abs(normal.X) > 0.9 {
		axis = r3.Vec{Y: 1}
	}
	u := r3.Unit(r3.Cross(axis, normal))
	v := r3.Cross(normal, u)
	return basis{origin: origin, u: u, v: v}
}

func (b basis) ring(l domain.Loop) orb.Ring {
	r := make(orb.Ring, len(l))
	for i, p := range l {
		rel := r3.Sub(p, b.origin)
		r[i] = orb.Point{r3.Dot(rel, b.u), r3.Dot(rel, b.v)}
	}
	return r
}

// selfIntersects reports whether two non-adjacent edges of a closed ring
// touch or cross.
func selfIntersects(r orb.Ring) bool {
	n := len(r) - 1
	for i := range n {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(r[i], r[i+1], r[j], r[j+1]) {
				return true
			}
		}
	}
	return false
}

// ringInside reports whether inner lies strictly within outer: every vertex
// inside and no edge touching or crossing the boundary.
func ringInside(inner, outer orb.Ring) bool {
	for _, p := range inner {
		if !planar.RingContains(outer, p) {
			return false
		}
	}
	return !edgesIntersect(inner, outer)
}

// ringsOverlap reports whether two simple rings share any area or boundary
// point, including one enclosing the other.
func ringsOverlap(a, b orb.Ring) bool {
	if edgesIntersect(a, b) {
		return true
	}
	return planar.RingContains(a, b[0]) || planar.RingContains(b, a[0])
}

func edgesIntersect(a, b orb.Ring) bool {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func cross(a, b, c orb.Point) float64 {
	return (b.X()-a.X())*(c.Y()-a.Y()) - (b.Y()-a.Y())*(c.X()-a.X())
}

func onSegment(a, b, p orb.Point) bool {
	return math.Min(a.X(), b.X()) <= p.X() && p.X() <= math.Max(a.X(), b.X()) &&
		math.Min(a.Y(), b.Y()) <= p.Y() && p.Y() <= math.Max(a.Y(), b.Y())
}
