// Command quakefeed polls the earthquake catalog for recently updated
// events and publishes them to a Kafka topic. It exposes health,
// readiness, and Prometheus metrics endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/quake-catalog/internal/adapter/comcat"
	httpadapter "github.com/couchcryptid/quake-catalog/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-catalog/internal/adapter/kafka"
	"github.com/couchcryptid/quake-catalog/internal/catalog"
	"github.com/couchcryptid/quake-catalog/internal/config"
	"github.com/couchcryptid/quake-catalog/internal/feed"
	"github.com/couchcryptid/quake-catalog/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := comcat.NewClient(cfg.ComcatBaseURL, cfg.ComcatTimeout, logger, metrics)
	service := catalog.New(client, nil, logger, metrics, cfg.DetailWorkers)
	writer := kafkaadapter.NewWriter(cfg, logger)

	f := feed.New(service, writer, logger, metrics,
		cfg.FeedPollInterval, cfg.FeedLookback, cfg.FeedMinMagnitude)

	srv := httpadapter.NewServer(cfg.HTTPAddr, "quakefeed", f, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := f.Run(ctx); err != nil {
			logger.Error("feed error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
