package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
	"github.com/zsbahtiar/hotspot-etl/internal/observability"
	"github.com/zsbahtiar/hotspot-etl/internal/warehouse"
)

const (
	geoCachePrefix     = "geo_bmkg"
	weatherCachePrefix = "weather_vc"

	// geoBatchSize groups live geocode calls between the longer batch pauses.
	geoBatchSize = 50
	// weatherBatchSize groups weather lookups between courtesy delays.
	weatherBatchSize = 50
	// weatherConcurrency bounds in-flight weather requests within a batch.
	weatherConcurrency = 4
)

// EnricherConfig carries the cache TTLs and pacing delays for enrichment.
// RequestDelay paces individual geocode calls; GeoBatchDelay replaces it every
// geoBatchSize live calls.
type EnricherConfig struct {
	GeoCacheTTL       time.Duration
	WeatherCacheTTL   time.Duration
	RequestDelay      time.Duration
	GeoBatchDelay     time.Duration
	WeatherBatchDelay time.Duration
}

// Enricher resolves detections to Indonesian administrative areas and
// co-located weather. Detections whose coordinate does not geocode to a
// defined area are filtered out. The weather provider is nil when weather
// enrichment is disabled.
type Enricher struct {
	geocoder domain.Geocoder
	weather  domain.WeatherProvider
	cache    domain.Cache
	cfg      EnricherConfig
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewEnricher(geocoder domain.Geocoder, weather domain.WeatherProvider, cache domain.Cache, cfg EnricherConfig, logger *slog.Logger, metrics *observability.Metrics) *Enricher {
	return &Enricher{
		geocoder: geocoder,
		weather:  weather,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// Enrichment is the output of the geo/weather enrichment stage.
type Enrichment struct {
	// Detections is the input set filtered to geocoded coordinates.
	Detections domain.DetectionSet
	// Locations holds one dimension row per unique geocoded coordinate.
	Locations []warehouse.LocationRow
	// Weather holds one observation per unique coordinate and acquisition
	// time of the surviving detections.
	Weather []domain.WeatherObservation
}

// geoCacheEntry is the cached geocode outcome. Rejections are cached too:
// a coordinate outside Indonesia stays outside Indonesia.
type geoCacheEntry struct {
	OK   bool             `json:"ok"`
	Area domain.AdminArea `json:"area,omitempty"`
}

type weatherCacheEntry struct {
	OK  bool                      `json:"ok"`
	Obs domain.WeatherObservation `json:"obs,omitempty"`
}

// Enrich geocodes the set's unique coordinates, filters out detections that
// do not resolve, and fetches weather for the survivors. Location surrogate
// IDs come from the resolver so known subdistricts keep their IDs.
func (e *Enricher) Enrich(ctx context.Context, set domain.DetectionSet, resolver *warehouse.Resolver) (Enrichment, error) {
	areas, err := e.geocodeSet(ctx, set)
	if err != nil {
		return Enrichment{}, err
	}

	out := Enrichment{
		Detections: domain.DetectionSet{Columns: set.Columns},
	}
	seenCoords := map[string]bool{}
	rejected := 0
	for _, d := range set.Detections {
		coord := d.Latitude + "," + d.Longitude
		area, ok := areas[coord]
		if !ok {
			rejected++
			e.metrics.RowsRejected.WithLabelValues("enrich").Inc()
			continue
		}
		out.Detections.Detections = append(out.Detections.Detections, d)
		if !seenCoords[coord] {
			seenCoords[coord] = true
			out.Locations = append(out.Locations, warehouse.LocationRow{
				ID:              resolver.LocationID(area.SubdistrictCode),
				Latitude:        d.Latitude,
				Longitude:       d.Longitude,
				ProvinceCode:    area.ProvinceCode,
				ProvinceName:    area.ProvinceName,
				CityCode:        area.CityCode,
				CityName:        area.CityName,
				DistrictCode:    area.DistrictCode,
				DistrictName:    area.DistrictName,
				SubdistrictCode: area.SubdistrictCode,
				SubdistrictName: area.SubdistrictName,
			})
		}
	}
	if rejected > 0 {
		e.logger.Info("detections outside coverage filtered",
			"rejected", rejected, "kept", len(out.Detections.Detections))
	}

	if e.weather != nil && !out.Detections.Empty() {
		weather, err := e.fetchWeather(ctx, out.Detections)
		if err != nil {
			return Enrichment{}, err
		}
		out.Weather = weather
	}

	return out, nil
}

// geocodeSet resolves each unique coordinate in the set, consulting the cache
// first. A geocoder error drops the coordinate for this run without caching,
// so the next run retries it.
func (e *Enricher) geocodeSet(ctx context.Context, set domain.DetectionSet) (map[string]domain.AdminArea, error) {
	areas := map[string]domain.AdminArea{}
	checked := map[string]bool{}
	live := 0

	for _, d := range set.Detections {
		coord := d.Latitude + "," + d.Longitude
		if checked[coord] {
			continue
		}
		checked[coord] = true

		key := geoCachePrefix + ":" + d.Latitude + ":" + d.Longitude
		var entry geoCacheEntry
		if e.cacheGet(ctx, "geocode", key, &entry) {
			if entry.OK {
				areas[coord] = entry.Area
			}
			continue
		}

		area, ok, err := e.geocoder.ResolveLocation(ctx, d.Longitude, d.Latitude)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.metrics.GeocodeRequests.WithLabelValues("error").Inc()
			e.logger.Warn("geocode failed, dropping coordinate for this run",
				"latitude", d.Latitude, "longitude", d.Longitude, "error", err)
			continue
		}
		if ok {
			e.metrics.GeocodeRequests.WithLabelValues("resolved").Inc()
			areas[coord] = area
		} else {
			e.metrics.GeocodeRequests.WithLabelValues("rejected").Inc()
		}
		e.cacheSet(ctx, key, geoCacheEntry{OK: ok, Area: area}, e.cfg.GeoCacheTTL)

		live++
		pause := e.cfg.RequestDelay
		if live%geoBatchSize == 0 {
			pause = e.cfg.GeoBatchDelay
		}
		if !sleepWithContext(ctx, pause) {
			return nil, ctx.Err()
		}
	}
	return areas, nil
}

// fetchWeather resolves weather for each unique coordinate and acquisition
// time, in bounded-concurrency batches with a courtesy delay between batches.
// Provider errors skip the observation; weather is best-effort.
func (e *Enricher) fetchWeather(ctx context.Context, set domain.DetectionSet) ([]domain.WeatherObservation, error) {
	type lookup struct {
		lat, lon string
		local    string // API datetime, "YYYY-MM-DDTHH:MM:SS"
		staged   string // staging datetime, "YYYY-MM-DD HH:MM:SS"
	}
	var lookups []lookup
	seen := map[string]bool{}
	for _, d := range set.Detections {
		l := lookup{
			lat:    d.Latitude,
			lon:    d.Longitude,
			local:  domain.LocalDatetime(d.AcqDate, d.AcqTime),
			staged: domain.ObservationDatetime(d.AcqDate, d.AcqTime),
		}
		key := l.lat + "," + l.lon + "," + l.local
		if seen[key] {
			continue
		}
		seen[key] = true
		lookups = append(lookups, l)
	}

	var (
		mu  sync.Mutex
		out []domain.WeatherObservation
	)
	for start := 0; start < len(lookups); start += weatherBatchSize {
		end := start + weatherBatchSize
		if end > len(lookups) {
			end = len(lookups)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(weatherConcurrency)
		for _, l := range lookups[start:end] {
			g.Go(func() error {
				obs, ok := e.resolveWeather(gctx, l.lat, l.lon, l.local, l.staged)
				if ok {
					mu.Lock()
					out = append(out, obs)
					mu.Unlock()
				}
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if end < len(lookups) && !sleepWithContext(ctx, e.cfg.WeatherBatchDelay) {
			return nil, ctx.Err()
		}
	}
	return out, nil
}

func (e *Enricher) resolveWeather(ctx context.Context, lat, lon, local, staged string) (domain.WeatherObservation, bool) {
	key := weatherCachePrefix + ":" + lat + ":" + lon + ":" + local
	var entry weatherCacheEntry
	if e.cacheGet(ctx, "weather", key, &entry) {
		return entry.Obs, entry.OK
	}

	obs, ok, err := e.weather.ResolveWeather(ctx, lon, lat, local)
	if err != nil {
		e.metrics.WeatherRequests.WithLabelValues("error").Inc()
		e.logger.Warn("weather lookup failed, skipping observation",
			"latitude", lat, "longitude", lon, "error", err)
		return domain.WeatherObservation{}, false
	}
	if ok {
		e.metrics.WeatherRequests.WithLabelValues("resolved").Inc()
		// Pin the join columns to the detection's exact values.
		obs.Latitude = lat
		obs.Longitude = lon
		obs.Datetime = staged
	} else {
		e.metrics.WeatherRequests.WithLabelValues("empty").Inc()
	}
	e.cacheSet(ctx, key, weatherCacheEntry{OK: ok, Obs: obs}, e.cfg.WeatherCacheTTL)
	return obs, ok
}

func (e *Enricher) cacheGet(ctx context.Context, cache, key string, v any) bool {
	raw, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		e.metrics.CacheLookups.WithLabelValues(cache, "miss").Inc()
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		e.logger.Warn("cache entry corrupt, refetching", "key", key, "error", err)
		return false
	}
	e.metrics.CacheLookups.WithLabelValues(cache, "hit").Inc()
	return true
}

func (e *Enricher) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, string(raw), ttl); err != nil {
		e.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
