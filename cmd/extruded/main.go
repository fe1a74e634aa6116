package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/footprint-extrusion/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/footprint-extrusion/internal/adapter/kafka"
	"github.com/couchcryptid/footprint-extrusion/internal/adapter/wfs"
	"github.com/couchcryptid/footprint-extrusion/internal/config"
	"github.com/couchcryptid/footprint-extrusion/internal/geometry"
	"github.com/couchcryptid/footprint-extrusion/internal/observability"
	"github.com/couchcryptid/footprint-extrusion/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := wfs.NewClient(cfg, metrics)
	logger.Info("feature service configured",
		"base_url", cfg.WFSBaseURL,
		"type_name", cfg.WFSTypeName,
		"timeout", cfg.WFSTimeout,
		"max_attempts", cfg.WFSMaxAttempts,
	)

	// Publishing solids is feature-flagged via KAFKA_ENABLED.
	var (
		loader pipeline.SolidLoader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader = writer
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	p := pipeline.New(client, geometry.NewKernel(), loader, logger, metrics, pipeline.Options{
		DefaultRadius:  cfg.DefaultRadius,
		MaxAbsLatitude: cfg.MaxAbsLatitude,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
