package observability

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("tile downloaded", "tile", "1/4")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "tile downloaded", rec["msg"])
	assert.Equal(t, "1/4", rec["tile"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestParseLevel_MatchesSharedLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	levels := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	for _, in := range []string{"debug", "DEBUG", "info", "warn", "warning", "Error", " debug ", "", "bogus"} {
		t.Run(in, func(t *testing.T) {
			ours := newLogger(io.Discard, in, "json").Handler()
			shared := sharedobs.NewLogger(in, "json").Handler()
			for _, l := range levels {
				assert.Equal(t, shared.Enabled(t.Context(), l), ours.Enabled(t.Context(), l), "level %s", l)
			}
		})
	}
}
