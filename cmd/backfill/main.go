// Command backfill replays historical acquisition windows through the
// pipeline, chunked so each FIRMS request stays within the API's maximum
// window and the dimensional loads stay per-date idempotent.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zsbahtiar/hotspot-etl/internal/adapter/bmkg"
	"github.com/zsbahtiar/hotspot-etl/internal/adapter/clickhouse"
	"github.com/zsbahtiar/hotspot-etl/internal/adapter/firms"
	"github.com/zsbahtiar/hotspot-etl/internal/adapter/rediscache"
	"github.com/zsbahtiar/hotspot-etl/internal/adapter/visualcrossing"
	"github.com/zsbahtiar/hotspot-etl/internal/config"
	"github.com/zsbahtiar/hotspot-etl/internal/domain"
	"github.com/zsbahtiar/hotspot-etl/internal/observability"
	"github.com/zsbahtiar/hotspot-etl/internal/pipeline"
	"github.com/zsbahtiar/hotspot-etl/internal/warehouse"
)

const dateFormat = "2006-01-02"

func main() {
	start := flag.String("start", "", "first acquisition date YYYY-MM-DD (required)")
	end := flag.String("end", "", "last acquisition date YYYY-MM-DD (required)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	startDate, err := time.ParseInLocation(dateFormat, *start, time.UTC)
	if err != nil {
		logger.Error("invalid -start date", "value", *start, "error", err)
		os.Exit(1)
	}
	endDate, err := time.ParseInLocation(dateFormat, *end, time.UTC)
	if err != nil {
		logger.Error("invalid -end date", "value", *end, "error", err)
		os.Exit(1)
	}
	if endDate.Before(startDate) {
		logger.Error("-end precedes -start", "start", *start, "end", *end)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := clickhouse.NewClient(cfg.ClickHouseURL(), cfg.ClickHouseDatabase,
		cfg.ClickHouseUser, cfg.ClickHousePassword, cfg.ClickHouseTimeout, logger)
	if err := store.Ping(ctx); err != nil {
		logger.Error("clickhouse unreachable", "error", err)
		os.Exit(1)
	}

	cache := newCache(ctx, cfg, logger)
	failed := 0

	for chunkStart := startDate; !chunkStart.After(endDate); {
		chunkEnd := chunkStart.AddDate(0, 0, cfg.BackfillChunkSize-1)
		if chunkEnd.After(endDate) {
			chunkEnd = endDate
		}
		days := int(chunkEnd.Sub(chunkStart).Hours()/24) + 1
		sources := archiveSources(chunkStart.Year())

		logger.Info("backfill chunk starting",
			"start", chunkStart.Format(dateFormat), "days", days, "sources", sources)

		p := buildChunkPipeline(cfg, store, cache, sources, logger, metrics)
		summary, err := p.RunOnce(ctx, days, chunkStart.Format(dateFormat))
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("backfill interrupted")
				os.Exit(1)
			}
			failed++
			logger.Error("backfill chunk failed",
				"start", chunkStart.Format(dateFormat), "error", err)
		} else {
			logger.Info("backfill chunk complete",
				"start", chunkStart.Format(dateFormat),
				"batch_id", summary.BatchID, "status", summary.Status, "verdict", summary.Verdict)
		}

		chunkStart = chunkEnd.AddDate(0, 0, 1)
		if !chunkStart.After(endDate) {
			select {
			case <-time.After(cfg.BackfillDelay):
			case <-ctx.Done():
				logger.Info("backfill interrupted")
				os.Exit(1)
			}
		}
	}

	if failed > 0 {
		logger.Error("backfill finished with failed chunks", "failed", failed)
		os.Exit(1)
	}
	logger.Info("backfill complete",
		"start", startDate.Format(dateFormat), "end", endDate.Format(dateFormat))
}

// archiveSources picks the standard-processing products available for a
// historical year. NOAA-20 flies from 2018, NOAA-21 from 2024.
func archiveSources(year int) []string {
	sources := []string{"MODIS_SP", "VIIRS_SNPP_SP"}
	if year >= 2018 {
		sources = append(sources, "VIIRS_NOAA20_NRT")
	}
	if year >= 2024 {
		sources = append(sources, "VIIRS_NOAA21_NRT")
	}
	return sources
}

func newCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) domain.Cache {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory enrichment cache")
		return rediscache.NewMemory()
	}
	rc := rediscache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	if err := rc.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, falling back to in-memory cache", "error", err)
		return rediscache.NewMemory()
	}
	return rc
}

func buildChunkPipeline(cfg *config.Config, store warehouse.Store, cache domain.Cache, sources []string, logger *slog.Logger, metrics *observability.Metrics) *pipeline.Pipeline {
	fetcher := firms.NewClient(cfg.FIRMSAPIKey, cfg.FIRMSBaseURL, cfg.FIRMSTimeout,
		cfg.FIRMSRateLimit, cfg.FIRMSRateWindow, logger)
	normalizer := pipeline.NewNormalizer(fetcher, sources, logger, metrics)

	geocoder := bmkg.NewClient(cfg.BMKGBaseURL, cfg.FIRMSTimeout, logger)

	var weather domain.WeatherProvider
	if cfg.WeatherEnabled {
		weather = visualcrossing.NewClient(cfg.WeatherAPIKey, cfg.WeatherBaseURL, cfg.FIRMSTimeout, logger)
	}

	enricher := pipeline.NewEnricher(geocoder, weather, cache, pipeline.EnricherConfig{
		GeoCacheTTL:       cfg.BMKGCacheTTL,
		WeatherCacheTTL:   cfg.WeatherCacheTTL,
		RequestDelay:      cfg.BMKGRequestDelay,
		GeoBatchDelay:     cfg.BMKGBatchDelay,
		WeatherBatchDelay: cfg.WeatherBatchDelay,
	}, logger, metrics)

	loader := warehouse.NewLoader(store, logger, metrics)
	staging := pipeline.NewStagingWriter(loader, cfg.BatchSize, logger)

	return pipeline.New(normalizer, enricher, staging, store, loader, nil, logger, metrics, cfg.RunInterval)
}
