package domain

import (
	"math"

	"github.com/paulmach/orb"
)

// Projector maps WGS-84 degrees to planar metres around a fixed centre using
// the series expansion of the ellipsoid's meridian and parallel lengths per
// degree at the centre latitude. It is a local tangent-plane approximation,
// accurate near the centre and degrading with distance.
type Projector struct {
	center        GeoPoint
	origin        orb.Point
	mPerDegreeLat float64
	mPerDegreeLon float64
}

// NewProjector fixes the projection origin. Every footprint of a run must use
// the same projector so all solids share one frame.
func NewProjector(center GeoPoint) Projector {
	phi := center.Lat * math.Pi / 180
	return Projector{
		center:        center,
		origin:        center.Point(),
		mPerDegreeLat: 111132.92 - 559.82*math.Cos(2*phi) + 1.175*math.Cos(4*phi),
		mPerDegreeLon: 111412.84*math.Cos(phi) - 93.5*math.Cos(3*phi) + 0.118*math.Cos(5*phi),
	}
}

// Center returns the projection origin.
func (p Projector) Center() GeoPoint { return p.center }

// Scale returns metres per degree of longitude and latitude at the origin.
func (p Projector) Scale() (lon, lat float64) { return p.mPerDegreeLon, p.mPerDegreeLat }

// Project converts a [lon, lat] point to [x, y] metres from the origin.
func (p Projector) Project(pt orb.Point) orb.Point {
	return orb.Point{
		(pt.Lon() - p.origin.Lon()) * p.mPerDegreeLon,
		(pt.Lat() - p.origin.Lat()) * p.mPerDegreeLat,
	}
}

// ProjectRing projects every vertex of a ring.
func (p Projector) ProjectRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, pt := range r {
		out[i] = p.Project(pt)
	}
	return out
}
