package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBBox_Ordering(t *testing.T) {
	cases := []struct {
		name   string
		center GeoPoint
		radius float64
	}{
		{name: "munich", center: GeoPoint{Lon: 11.5, Lat: 48.1}, radius: 200},
		{name: "equator", center: GeoPoint{Lon: 0, Lat: 0}, radius: 1000},
		{name: "southern", center: GeoPoint{Lon: 151.2, Lat: -33.87}, radius: 500},
		{name: "antimeridian side", center: GeoPoint{Lon: -179.9, Lat: 10}, radius: 50},
		{name: "near limit", center: GeoPoint{Lon: 20, Lat: 84.9}, radius: 5000},
		{name: "tiny radius", center: GeoPoint{Lon: 11.5, Lat: 48.1}, radius: 0.01},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			box, err := CalculateBBox(tc.center, tc.radius)
			require.NoError(t, err)

			assert.Less(t, box.MinLon, box.MaxLon)
			assert.Less(t, box.MinLat, box.MaxLat)
			assert.True(t, box.Valid())
			assert.InDelta(t, tc.center.Lon, (box.MinLon+box.MaxLon)/2, 1e-9)
			assert.InDelta(t, tc.center.Lat, (box.MinLat+box.MaxLat)/2, 1e-9)
		})
	}
}

func TestCalculateBBox_Offsets(t *testing.T) {
	box, err := CalculateBBox(GeoPoint{Lon: 0, Lat: 0}, 1000)
	require.NoError(t, err)

	want := 1000 / EarthRadius * 180 / math.Pi
	assert.InDelta(t, want, box.MaxLat, 1e-12)
	assert.InDelta(t, want, box.MaxLon, 1e-12, "no widening at the equator")

	box, err = CalculateBBox(GeoPoint{Lon: 0, Lat: 60}, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 2*want, box.MaxLon, 1e-9, "cos(60°) doubles the longitude offset")
}

func TestCalculateBBox_PolarLatitude(t *testing.T) {
	for _, lat := range []float64{85.0001, -85.5, 89.9, 90, -90} {
		_, err := CalculateBBox(GeoPoint{Lon: 0, Lat: lat}, 500)
		require.ErrorIs(t, err, ErrPolarLatitude, "lat=%v", lat)
	}

	_, err := CalculateBBox(GeoPoint{Lon: 0, Lat: 85}, 500)
	require.NoError(t, err, "the limit itself is allowed")
}

func TestBBoxCalculator_CustomLimit(t *testing.T) {
	calc := BBoxCalculator{MaxAbsLatitude: 60}

	_, err := calc.Calculate(GeoPoint{Lon: 25, Lat: 61}, 500)
	require.ErrorIs(t, err, ErrPolarLatitude)

	_, err = calc.Calculate(GeoPoint{Lon: 25, Lat: 59}, 500)
	require.NoError(t, err)
}

func TestCalculateBBox_InvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		center GeoPoint
		radius float64
		want   error
	}{
		{name: "zero radius", center: GeoPoint{Lat: 48.1, Lon: 11.5}, radius: 0, want: ErrInvalidRadius},
		{name: "negative radius", center: GeoPoint{Lat: 48.1, Lon: 11.5}, radius: -10, want: ErrInvalidRadius},
		{name: "nan radius", center: GeoPoint{Lat: 48.1, Lon: 11.5}, radius: math.NaN(), want: ErrInvalidRadius},
		{name: "latitude out of range", center: GeoPoint{Lat: 91, Lon: 11.5}, radius: 100, want: ErrInvalidLatLong},
		{name: "longitude out of range", center: GeoPoint{Lat: 48.1, Lon: 181}, radius: 100, want: ErrInvalidLatLong},
		{name: "nan latitude", center: GeoPoint{Lat: math.NaN(), Lon: 11.5}, radius: 100, want: ErrInvalidLatLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CalculateBBox(tc.center, tc.radius)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBBox_String(t *testing.T) {
	box := BBox{MinLon: 11.49, MinLat: 48.09, MaxLon: 11.51, MaxLat: 48.11}
	assert.Equal(t, "11.49,48.09,11.51,48.11,EPSG:4326", box.String())
}

func TestBBox_Bound(t *testing.T) {
	b := BBox{MinLon: 1, MinLat: 2, MaxLon: 3, MaxLat: 4}.Bound()
	assert.Equal(t, 1.0, b.Left())
	assert.Equal(t, 2.0, b.Bottom())
	assert.Equal(t, 3.0, b.Right())
	assert.Equal(t, 4.0, b.Top())
}
