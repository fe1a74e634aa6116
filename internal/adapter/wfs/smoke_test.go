//go:build wfs

package wfs

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/footprint-extrusion/internal/domain"
	"github.com/couchcryptid/footprint-extrusion/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit a real WFS endpoint. WFS_BASE_URL and WFS_TYPE_NAME must be set.
// Run with: go test -tags=wfs ./internal/adapter/wfs/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	baseURL := os.Getenv("WFS_BASE_URL")
	typeName := os.Getenv("WFS_TYPE_NAME")
	if baseURL == "" || typeName == "" {
		t.Fatal("WFS_BASE_URL and WFS_TYPE_NAME must be set to run smoke tests")
	}
	return &Client{
		baseURL:     baseURL,
		typeName:    typeName,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		maxAttempts: 3,
		backoff:     2 * time.Second,
		clock:       clockwork.NewRealClock(),
		metrics:     observability.NewMetricsForTesting(),
	}
}

func TestSmoke_FetchDecodes(t *testing.T) {
	c := smokeClient(t)

	box, err := domain.CalculateBBox(domain.GeoPoint{Lon: 11.5755, Lat: 48.1372}, 100)
	require.NoError(t, err)

	body, err := c.Fetch(context.Background(), box, discardLogger())
	require.NoError(t, err)

	features, _, err := domain.ParseFeatureCollection(body)
	require.NoError(t, err)
	assert.NotEmpty(t, features, "expected buildings in a dense city centre")
}
