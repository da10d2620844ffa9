package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSources lists every NASA FIRMS product the daily pipeline pulls.
var DefaultSources = []string{
	"MODIS_NRT",
	"MODIS_SP",
	"VIIRS_NOAA20_NRT",
	"VIIRS_NOAA20_SP",
	"VIIRS_NOAA21_NRT",
	"VIIRS_SNPP_NRT",
	"VIIRS_SNPP_SP",
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	RunInterval     time.Duration

	// NASA FIRMS hotspot feed.
	FIRMSAPIKey     string
	FIRMSBaseURL    string
	FIRMSTimeout    time.Duration
	FIRMSRateLimit  int
	FIRMSRateWindow time.Duration
	Sources         []string

	// BMKG administrative geocoding.
	BMKGBaseURL      string
	BMKGCacheTTL     time.Duration
	BMKGRequestDelay time.Duration
	BMKGBatchDelay   time.Duration

	// Visual Crossing weather enrichment (feature-flagged via the API key).
	WeatherEnabled    bool
	WeatherAPIKey     string
	WeatherBaseURL    string
	WeatherCacheTTL   time.Duration
	WeatherBatchDelay time.Duration

	// Rows per staging insert chunk.
	BatchSize int

	// ClickHouse analytical store (HTTP interface).
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseTimeout  time.Duration

	// Redis lookup cache; empty addr falls back to the in-memory cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional Kafka run-event publishing (enabled when brokers are set).
	EventsEnabled    bool
	KafkaBrokers     []string
	KafkaEventsTopic string

	// Backfill tuning.
	BackfillChunkSize int
	BackfillDelay     time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		FIRMSAPIKey:        os.Getenv("FIRMS_API_KEY"),
		FIRMSBaseURL:       envOrDefault("FIRMS_BASE_URL", "https://firms.modaps.eosdis.nasa.gov/api"),
		Sources:            splitList(envOrDefault("FIRMS_SOURCES", strings.Join(DefaultSources, ","))),
		BMKGBaseURL:        envOrDefault("BMKG_BASE_URL", "https://weather.bmkg.go.id/api"),
		WeatherAPIKey:      os.Getenv("WEATHER_API_KEY"),
		WeatherBaseURL:     envOrDefault("WEATHER_BASE_URL", "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"),
		ClickHouseHost:     envOrDefault("CLICKHOUSE_HOST", "localhost"),
		ClickHouseDatabase: envOrDefault("CLICKHOUSE_DB", "hotspot"),
		ClickHouseUser:     envOrDefault("CLICKHOUSE_USER", "default"),
		ClickHousePassword: os.Getenv("CLICKHOUSE_PASSWORD"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaEventsTopic:   envOrDefault("KAFKA_EVENTS_TOPIC", "hotspot-etl-runs"),
	}

	var err error
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RunInterval, err = durationEnv("RUN_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.FIRMSTimeout, err = durationEnv("FIRMS_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.FIRMSRateLimit, err = intEnv("FIRMS_RATE_LIMIT", 4500); err != nil {
		return nil, err
	}
	if cfg.FIRMSRateWindow, err = durationEnv("FIRMS_RATE_WINDOW", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.BMKGCacheTTL, err = durationEnv("BMKG_CACHE_TTL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BMKGRequestDelay, err = durationEnv("BMKG_REQUEST_DELAY", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.BMKGBatchDelay, err = durationEnv("BMKG_BATCH_DELAY", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.WeatherCacheTTL, err = durationEnv("WEATHER_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.WeatherBatchDelay, err = durationEnv("WEATHER_BATCH_DELAY", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = intEnv("BATCH_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.ClickHousePort, err = intEnv("CLICKHOUSE_PORT", 8123); err != nil {
		return nil, err
	}
	if cfg.ClickHouseTimeout, err = durationEnv("CLICKHOUSE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.BackfillChunkSize, err = intEnv("BACKFILL_CHUNK_SIZE", 7); err != nil {
		return nil, err
	}
	if cfg.BackfillDelay, err = durationEnv("BACKFILL_DELAY", 5*time.Second); err != nil {
		return nil, err
	}

	cfg.WeatherEnabled = cfg.WeatherAPIKey != ""
	if v := os.Getenv("WEATHER_ENABLED"); v != "" {
		cfg.WeatherEnabled = v == "true"
	}
	cfg.EventsEnabled = len(cfg.KafkaBrokers) > 0
	if v := os.Getenv("KAFKA_EVENTS_ENABLED"); v != "" {
		cfg.EventsEnabled = v == "true"
	}

	if cfg.FIRMSAPIKey == "" {
		return nil, errors.New("FIRMS_API_KEY is required")
	}
	if len(cfg.Sources) == 0 {
		return nil, errors.New("FIRMS_SOURCES must name at least one source")
	}
	if cfg.WeatherEnabled && cfg.WeatherAPIKey == "" {
		return nil, errors.New("WEATHER_ENABLED is true but WEATHER_API_KEY is not set")
	}
	if cfg.EventsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_EVENTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > 10000 {
		return nil, errors.New("BATCH_SIZE must be between 1 and 10000")
	}

	return cfg, nil
}

// ClickHouseURL builds the HTTP endpoint for the analytical store.
func (c *Config) ClickHouseURL() string {
	return fmt.Sprintf("http://%s:%d", c.ClickHouseHost, c.ClickHousePort)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
