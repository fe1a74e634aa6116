package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/couchcryptid/footprint-extrusion/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalFloat(t *testing.T) {
	var f optionalFloat
	assert.Empty(t, f.String())

	require.NoError(t, f.Set("48.137"))
	require.NotNil(t, f.v)
	assert.InDelta(t, 48.137, *f.v, 1e-12)
	assert.Equal(t, "48.137", f.String())

	assert.Error(t, f.Set("north"))
}

func TestRun_Disabled(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-lat", "48.1", "-lon", "11.5", "-run=false"}, &out))

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, pipeline.StageIdle, res.Stage)
	assert.Empty(t, res.Solids)
	assert.Contains(t, res.Log, "run is disabled")
}
