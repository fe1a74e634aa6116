package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// EarthRadius is the WGS-84 equatorial radius in metres.
const EarthRadius = 6378137.0

// CRS is the coordinate reference system every BBox is tagged with.
const CRS = "EPSG:4326"

// DefaultMaxAbsLatitude is the latitude limit beyond which the longitude
// offset of a bounding box diverges.
const DefaultMaxAbsLatitude = 85.0

var (
	ErrInvalidRadius  = errors.New("radius must be positive")
	ErrPolarLatitude  = errors.New("latitude too close to a pole")
	ErrInvalidLatLong = errors.New("latitude or longitude out of range")
)

// GeoPoint is a WGS-84 longitude/latitude pair in degrees.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Point returns the point in orb's [lon, lat] order.
func (p GeoPoint) Point() orb.Point { return orb.Point{p.Lon, p.Lat} }

// BBox is an axis-aligned box in geographic degrees.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// String renders the box in the WFS bbox parameter format, CRS suffix included.
func (b BBox) String() string {
	return fmt.Sprintf("%v,%v,%v,%v,%s", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat, CRS)
}

// Bound converts the box to an orb.Bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinLon, b.MinLat}, Max: orb.Point{b.MaxLon, b.MaxLat}}
}

// Valid reports whether min <= max on both axes.
func (b BBox) Valid() bool {
	return b.MinLon <= b.MaxLon && b.MinLat <= b.MaxLat
}

// BBoxCalculator converts a centre point and radius into a bounding box.
type BBoxCalculator struct {
	MaxAbsLatitude float64
}

// Calculate returns the box spanning radiusM metres north, south, east and
// west of center. The longitude offset is widened by 1/cos(lat) so the box
// stays roughly square in metres. Latitudes beyond MaxAbsLatitude are
// rejected with ErrPolarLatitude.
func (c BBoxCalculator) Calculate(center GeoPoint, radiusM float64) (BBox, error) {
	if radiusM <= 0 || math.IsNaN(radiusM) || math.IsInf(radiusM, 0) {
		return BBox{}, fmt.Errorf("%w: %v", ErrInvalidRadius, radiusM)
	}
	if math.Abs(center.Lat) > 90 || math.Abs(center.Lon) > 180 ||
		math.IsNaN(center.Lat) || math.IsNaN(center.Lon) {
		return BBox{}, fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidLatLong, center.Lat, center.Lon)
	}

	maxLat := c.MaxAbsLatitude
	if maxLat <= 0 {
		maxLat = DefaultMaxAbsLatitude
	}
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if math.Abs(center.Lat) > maxLat || cosLat < 1e-9 {
		return BBox{}, fmt.Errorf("%w: |%v| > %v", ErrPolarLatitude, center.Lat, maxLat)
	}

	dLat := radiusM / EarthRadius
	dLon := radiusM / (EarthRadius * cosLat)
	latOff := dLat * 180 / math.Pi
	lonOff := dLon * 180 / math.Pi

	return BBox{
		MinLon: center.Lon - lonOff,
		MinLat: center.Lat - latOff,
		MaxLon: center.Lon + lonOff,
		MaxLat: center.Lat + latOff,
	}, nil
}

// CalculateBBox is Calculate with the default polar limit.
func CalculateBBox(center GeoPoint, radiusM float64) (BBox, error) {
	return BBoxCalculator{}.Calculate(center, radiusM)
}
