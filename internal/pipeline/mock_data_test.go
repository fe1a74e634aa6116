package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/footprint-extrusion/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadFixture reads a recorded WFS GetFeature response from testdata.
func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "read fixture %s", name)
	return data
}

func TestFixtures_Decode(t *testing.T) {
	cases := []struct {
		file     string
		features int
		skipped  int
		adjusted int
		ids      []string
	}{
		{
			file:     "single_tile.geojson",
			features: 3,
			ids:      []string{"lod1_global.1001", "lod1_global.1002", "lod1_global.1003"},
		},
		{
			file:     "mixed_tile.geojson",
			features: 2,
			skipped:  2,
			adjusted: 1,
			ids:      []string{"lod1_global.2001", ""},
		},
	}

	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			features, issues, err := domain.ParseFeatureCollection(loadFixture(t, tc.file))
			require.NoError(t, err)
			require.Len(t, features, tc.features)

			var skipped, adjusted int
			for _, is := range issues {
				if is.Skipped {
					skipped++
				} else {
					adjusted++
				}
			}
			assert.Equal(t, tc.skipped, skipped)
			assert.Equal(t, tc.adjusted, adjusted)

			ids := make([]string, len(features))
			for i, f := range features {
				ids[i] = f.ID
			}
			assert.Equal(t, tc.ids, ids)
		})
	}
}

func TestFixtures_Heights(t *testing.T) {
	features, _, err := domain.ParseFeatureCollection(loadFixture(t, "single_tile.geojson"))
	require.NoError(t, err)

	assert.InDelta(t, 12.5, features[0].Height, 1e-12)
	assert.InDelta(t, 7.2, features[1].Height, 1e-12, "numeric strings are accepted")
	assert.Equal(t, domain.KindMultiPolygon, features[1].Kind)
	assert.Len(t, features[1].Polygons[0], 2, "exterior plus one hole")

	mixed, _, err := domain.ParseFeatureCollection(loadFixture(t, "mixed_tile.geojson"))
	require.NoError(t, err)
	assert.InDelta(t, domain.DefaultHeight, mixed[0].Height, 1e-12, "missing height")
	assert.InDelta(t, domain.DefaultHeight, mixed[1].Height, 1e-12, "negative height")
}
