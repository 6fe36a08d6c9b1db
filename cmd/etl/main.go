// Command etl fetches substation records, downloads their street-level
// imagery and writes the enriched CSV and final JSON.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/substation-imagery-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/substation-imagery-etl/internal/adapter/kafka"
	"github.com/couchcryptid/substation-imagery-etl/internal/adapter/opendata"
	"github.com/couchcryptid/substation-imagery-etl/internal/adapter/streetview"
	"github.com/couchcryptid/substation-imagery-etl/internal/config"
	"github.com/couchcryptid/substation-imagery-etl/internal/observability"
	"github.com/couchcryptid/substation-imagery-etl/internal/pipeline"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg).With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()

	catalog := opendata.NewClient(cfg.CatalogURL, cfg.HTTPTimeout, logger)
	imagery := streetview.NewClient(cfg.StreetViewURL, cfg.StreetViewKey, cfg.HTTPTimeout, logger)

	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = writer
		logger.Info("kafka publication enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	runner := pipeline.NewRunner(
		pipeline.NewFetcher(catalog, cfg.DepartmentCount, cfg.LimitPerDepartment, logger, metrics),
		pipeline.NewEnricher(imagery, cfg.ImageDir, cfg.LimitPerDepartment, cfg.MinImageSize, logger, metrics),
		pipeline.NewConverter(logger, metrics),
		publisher,
		pipeline.Paths{CSV: cfg.CSVPath, JSON: cfg.JSONPath},
		clockwork.NewRealClock(),
		logger,
		metrics,
	)

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, runner, prometheus.DefaultGatherer, logger)
		srv.StartBackground()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	runErr := runner.Run(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("pipeline failed", "error", runErr)
		cancel()
		os.Exit(1)
	}
	logger.Info("pipeline complete")
}
