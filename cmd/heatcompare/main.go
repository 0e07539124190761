package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/heat-emissions/internal/adapter/dataset"
	httpadapter "github.com/couchcryptid/heat-emissions/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/heat-emissions/internal/adapter/kafka"
	"github.com/couchcryptid/heat-emissions/internal/adapter/openmeteo"
	"github.com/couchcryptid/heat-emissions/internal/config"
	"github.com/couchcryptid/heat-emissions/internal/observability"
	"github.com/couchcryptid/heat-emissions/internal/pipeline"
	"github.com/couchcryptid/heat-emissions/internal/session"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var source pipeline.Source
	if cfg.DatasetPath != "" {
		source = dataset.NewFileSource(cfg.DatasetPath)
	} else {
		source = dataset.NewHTTPSource(cfg.DatasetURL, cfg.DatasetTimeout, logger)
	}

	// Location and weather lookups (feature-flagged via LOOKUP_ENABLED).
	var locator *session.Locator
	if cfg.LookupEnabled {
		client := openmeteo.NewClient(cfg.GeocodingURL, cfg.ForecastURL, cfg.LookupTimeout, metrics, logger)
		geocoder := openmeteo.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
		locator = session.NewLocator(geocoder, client, logger)
		metrics.LookupEnabled.Set(1)
		logger.Info("lookups enabled", "cache_size", cfg.GeocodeCacheSize, "timeout", cfg.LookupTimeout)
	} else {
		logger.Info("lookups disabled")
	}

	opts := []pipeline.Option{pipeline.WithRefresh(cfg.DatasetRefreshInterval)}
	var publisher *kafkaadapter.Publisher
	if cfg.PublishEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		opts = append(opts, pipeline.WithNotifier(publisher))
		logger.Info("load notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(source, logger, metrics, opts...)
	api := httpadapter.NewAPI(p, locator, cfg.LookupTimeout, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, api, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load the dataset, then keep refreshing it when configured.
	go func() {
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
