package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultWFSURL = "https://tubvsig-so2sat-vm1.srv.mwn.de/geoserver/ows"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, defaultWFSURL, cfg.WFSBaseURL)
	assert.Equal(t, "global3D:lod1_global", cfg.WFSTypeName)
	assert.Equal(t, 120*time.Second, cfg.WFSTimeout)
	assert.Equal(t, 3, cfg.WFSMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.WFSRetryBackoff)
	assert.InDelta(t, 500.0, cfg.DefaultRadius, 1e-9)
	assert.InDelta(t, 85.0, cfg.MaxAbsLatitude, 1e-9)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "building-solids", cfg.KafkaSinkTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("WFS_BASE_URL", "http://localhost:8600/geoserver/ows")
	t.Setenv("WFS_TYPE_NAME", "city:footprints")
	t.Setenv("WFS_TIMEOUT", "30s")
	t.Setenv("WFS_MAX_ATTEMPTS", "5")
	t.Setenv("WFS_RETRY_BACKOFF", "500ms")
	t.Setenv("DEFAULT_RADIUS", "250")
	t.Setenv("MAX_ABS_LATITUDE", "80")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "solids")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:8600/geoserver/ows", cfg.WFSBaseURL)
	assert.Equal(t, "city:footprints", cfg.WFSTypeName)
	assert.Equal(t, 30*time.Second, cfg.WFSTimeout)
	assert.Equal(t, 5, cfg.WFSMaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.WFSRetryBackoff)
	assert.InDelta(t, 250.0, cfg.DefaultRadius, 1e-9)
	assert.InDelta(t, 80.0, cfg.MaxAbsLatitude, 1e-9)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "solids", cfg.KafkaSinkTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidWFSTimeout(t *testing.T) {
	t.Setenv("WFS_TIMEOUT", "0s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WFS_TIMEOUT")
}

func TestLoad_InvalidRetryBackoff(t *testing.T) {
	t.Setenv("WFS_RETRY_BACKOFF", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WFS_RETRY_BACKOFF")
}

func TestLoad_InvalidMaxAttempts(t *testing.T) {
	for _, v := range []string{"0", "11", "three"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("WFS_MAX_ATTEMPTS", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "WFS_MAX_ATTEMPTS")
		})
	}
}

func TestLoad_InvalidBaseURL(t *testing.T) {
	t.Setenv("WFS_BASE_URL", "not a url")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WFS_BASE_URL")
}

func TestLoad_InvalidDefaultRadius(t *testing.T) {
	t.Setenv("DEFAULT_RADIUS", "-10")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_RADIUS")
}

func TestLoad_InvalidMaxAbsLatitude(t *testing.T) {
	t.Setenv("MAX_ABS_LATITUDE", "90")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_ABS_LATITUDE")
}

func TestLoad_KafkaRequiresExplicitTrue(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "yes")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}
