package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Loop is a closed polyline in 3D. The last vertex repeats the first.
type Loop []r3.Vec

// MarshalJSON encodes the loop as an array of [x, y, z] triples.
func (l Loop) MarshalJSON() ([]byte, error) {
	pts := make([][3]float64, len(l))
	for i, v := range l {
		pts[i] = [3]float64{v.X, v.Y, v.Z}
	}
	return json.Marshal(pts)
}

// UnmarshalJSON decodes an array of [x, y, z] triples.
func (l *Loop) UnmarshalJSON(data []byte) error {
	var pts [][3]float64
	if err := json.Unmarshal(data, &pts); err != nil {
		return fmt.Errorf("decode loop: %w", err)
	}
	out := make(Loop, len(pts))
	for i, p := range pts {
		out[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	*l = out
	return nil
}

// AreaVector is the Newell normal of the loop scaled by its enclosed area.
// Its direction follows the loop's winding.
func (l Loop) AreaVector() r3.Vec {
	var n r3.Vec
	for i := 0; i+1 < len(l); i++ {
		n = r3.Add(n, r3.Cross(l[i], l[i+1]))
	}
	return r3.Scale(0.5, n)
}

// Reversed returns the loop with opposite winding.
func (l Loop) Reversed() Loop {
	out := make(Loop, len(l))
	for i, v := range l {
		out[len(l)-1-i] = v
	}
	return out
}

// Surface is a bounded planar region: an outer boundary wound
// counter-clockwise about Normal and holes wound clockwise.
type Surface struct {
	Outer  Loop
	Holes  []Loop
	Normal r3.Vec
}

// Face is one planar face of a boundary representation.
type Face struct {
	Outer Loop   `json:"outer"`
	Holes []Loop `json:"holes,omitempty"`
}

// AreaVector is the outward area vector of the face, holes subtracted.
func (f Face) AreaVector() r3.Vec {
	a := f.Outer.AreaVector()
	for _, h := range f.Holes {
		a = r3.Add(a, h.AreaVector())
	}
	return a
}

// Brep is a closed boundary representation made of planar faces whose loops
// are wound counter-clockwise when seen from outside.
type Brep struct {
	Faces []Face `json:"faces"`
}

// Volume returns the enclosed volume via the divergence theorem.
func (b Brep) Volume() float64 {
	var v float64
	for _, f := range b.Faces {
		if len(f.Outer) == 0 {
			continue
		}
		v += r3.Dot(f.Outer[0], f.AreaVector())
	}
	return v / 3
}

// Closed reports whether every edge is used exactly once in each direction,
// which holds for a watertight, consistently oriented shell. Vertices closer
// than tol are treated as equal.
func (b Brep) Closed(tol float64) bool {
	if len(b.Faces) == 0 {
		return false
	}
	type key [3]int64
	quant := func(v r3.Vec) key {
		return key{
			int64(math.Round(v.X / tol)),
			int64(math.Round(v.Y / tol)),
			int64(math.Round(v.Z / tol)),
		}
	}
	edges := make(map[[2]key]int)
	add := func(l Loop) {
		for i := 0; i+1 < len(l); i++ {
			edges[[2]key{quant(l[i]), quant(l[i+1])}]++
		}
	}
	for _, f := range b.Faces {
		add(f.Outer)
		for _, h := range f.Holes {
			add(h)
		}
	}
	for e, n := range edges {
		if n != 1 || edges[[2]key{e[1], e[0]}] != 1 {
			return false
		}
	}
	return true
}

// Solid is one extruded footprint polygon, positioned in the run's local frame.
type Solid struct {
	FeatureID    string  `json:"feature_id,omitempty"`
	FeatureIndex int     `json:"feature_index"`
	PolygonIndex int     `json:"polygon_index"`
	Height       float64 `json:"height"`
	Brep         Brep    `json:"brep"`
}

// GeometryKernel builds planar surfaces and extrusions. The pipeline depends
// only on this contract so the kernel can be swapped or faked.
type GeometryKernel interface {
	// PlanarSurface builds one planar surface bounded by the first curve with
	// the remaining curves as holes. Curves must be closed.
	PlanarSurface(curves []Loop, tolerance float64) (Surface, error)

	// Extrude sweeps the surface along its normal by height into a closed solid.
	Extrude(surface Surface, height float64) (Brep, error)
}
