package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/zsbahtiar/hotspot-etl/internal/adapter/bmkg"
	"github.com/zsbahtiar/hotspot-etl/internal/adapter/clickhouse"
	"github.com/zsbahtiar/hotspot-etl/internal/adapter/firms"
	"github.com/zsbahtiar/hotspot-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/zsbahtiar/hotspot-etl/internal/adapter/kafka"
	"github.com/zsbahtiar/hotspot-etl/internal/adapter/rediscache"
	"github.com/zsbahtiar/hotspot-etl/internal/adapter/visualcrossing"
	"github.com/zsbahtiar/hotspot-etl/internal/config"
	"github.com/zsbahtiar/hotspot-etl/internal/domain"
	"github.com/zsbahtiar/hotspot-etl/internal/observability"
	"github.com/zsbahtiar/hotspot-etl/internal/pipeline"
	"github.com/zsbahtiar/hotspot-etl/internal/warehouse"
)

func main() {
	once := flag.Bool("once", false, "run a single acquisition cycle and exit")
	dayRange := flag.Int("day-range", 1, "FIRMS window size in days")
	startDate := flag.String("date", "", "window start date YYYY-MM-DD (empty: ending today)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := clickhouse.NewClient(cfg.ClickHouseURL(), cfg.ClickHouseDatabase,
		cfg.ClickHouseUser, cfg.ClickHousePassword, cfg.ClickHouseTimeout, logger)
	if err := store.Ping(ctx); err != nil {
		logger.Error("clickhouse unreachable", "error", err)
		os.Exit(1)
	}

	cache := newCache(ctx, cfg, logger)

	var publisher pipeline.EventPublisher
	if cfg.EventsEnabled {
		kp := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = kp
		logger.Info("run events enabled", "topic", cfg.KafkaEventsTopic)
	}

	p := buildPipeline(cfg, store, cache, publisher, logger, metrics)

	if *once {
		summary, err := p.RunOnce(ctx, *dayRange, *startDate)
		if err != nil {
			logger.Error("run failed", "batch_id", summary.BatchID, "error", err)
			os.Exit(1)
		}
		logger.Info("run complete",
			"batch_id", summary.BatchID, "status", summary.Status, "verdict", summary.Verdict)
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
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

	logger.Info("shutdown complete")
}

// newCache prefers Redis and falls back to the in-process cache when no
// address is configured or Redis does not answer.
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
	logger.Info("redis enrichment cache connected", "addr", cfg.RedisAddr)
	return rc
}

func buildPipeline(cfg *config.Config, store warehouse.Store, cache domain.Cache, publisher pipeline.EventPublisher, logger *slog.Logger, metrics *observability.Metrics) *pipeline.Pipeline {
	fetcher := firms.NewClient(cfg.FIRMSAPIKey, cfg.FIRMSBaseURL, cfg.FIRMSTimeout,
		cfg.FIRMSRateLimit, cfg.FIRMSRateWindow, logger)
	normalizer := pipeline.NewNormalizer(fetcher, cfg.Sources, logger, metrics)

	geocoder := bmkg.NewClient(cfg.BMKGBaseURL, cfg.FIRMSTimeout, logger)

	var weather domain.WeatherProvider
	if cfg.WeatherEnabled {
		weather = visualcrossing.NewClient(cfg.WeatherAPIKey, cfg.WeatherBaseURL, cfg.FIRMSTimeout, logger)
		logger.Info("weather enrichment enabled")
	} else {
		logger.Info("weather enrichment disabled")
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

	return pipeline.New(normalizer, enricher, staging, store, loader, publisher, logger, metrics, cfg.RunInterval)
}
