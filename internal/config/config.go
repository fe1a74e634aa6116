package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// WFS feature service configuration.
	WFSBaseURL      string
	WFSTypeName     string
	WFSTimeout      time.Duration
	WFSMaxAttempts  int
	WFSRetryBackoff time.Duration

	DefaultRadius  float64
	MaxAbsLatitude float64

	// Optional Kafka sink for reconstructed solids.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	wfsTimeout, err := parsePositiveDuration("WFS_TIMEOUT", "120s")
	if err != nil {
		return nil, err
	}

	retryBackoff, err := time.ParseDuration(sharedcfg.EnvOrDefault("WFS_RETRY_BACKOFF", "2s"))
	if err != nil || retryBackoff < 0 {
		return nil, errors.New("invalid WFS_RETRY_BACKOFF")
	}

	maxAttempts, err := strconv.Atoi(sharedcfg.EnvOrDefault("WFS_MAX_ATTEMPTS", "3"))
	if err != nil || maxAttempts < 1 || maxAttempts > 10 {
		return nil, errors.New("invalid WFS_MAX_ATTEMPTS: must be between 1 and 10")
	}

	defaultRadius, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("DEFAULT_RADIUS", "500"), 64)
	if err != nil || defaultRadius <= 0 {
		return nil, errors.New("invalid DEFAULT_RADIUS")
	}

	maxAbsLat, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("MAX_ABS_LATITUDE", "85"), 64)
	if err != nil || maxAbsLat <= 0 || maxAbsLat >= 90 {
		return nil, errors.New("invalid MAX_ABS_LATITUDE: must be in (0, 90)")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WFSBaseURL:      sharedcfg.EnvOrDefault("WFS_BASE_URL", "https://tubvsig-so2sat-vm1.srv.mwn.de/geoserver/ows"),
		WFSTypeName:     sharedcfg.EnvOrDefault("WFS_TYPE_NAME", "global3D:lod1_global"),
		WFSTimeout:      wfsTimeout,
		WFSMaxAttempts:  maxAttempts,
		WFSRetryBackoff: retryBackoff,

		DefaultRadius:  defaultRadius,
		MaxAbsLatitude: maxAbsLat,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "building-solids"),
	}

	if u, err := url.Parse(cfg.WFSBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid WFS_BASE_URL")
	}
	if cfg.WFSTypeName == "" {
		return nil, errors.New("WFS_TYPE_NAME is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}
