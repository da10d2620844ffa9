package pipeline_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
	"github.com/zsbahtiar/hotspot-etl/internal/observability"
	"github.com/zsbahtiar/hotspot-etl/internal/pipeline"
	"github.com/zsbahtiar/hotspot-etl/internal/warehouse"
)

func palangkaRaya() domain.AdminArea {
	return domain.AdminArea{
		ProvinceCode: "62", ProvinceName: "Kalimantan Tengah",
		CityCode: "62.71", CityName: "Kota Palangka Raya",
		DistrictCode: "62.71.01", DistrictName: "Pahandut",
		SubdistrictCode: "62.71.01.1001", SubdistrictName: "Pahandut",
	}
}

func newEnricher(g domain.Geocoder, w domain.WeatherProvider, cache domain.Cache) *pipeline.Enricher {
	return pipeline.NewEnricher(g, w, cache, pipeline.EnricherConfig{}, discardLogger(), observability.NewMetricsForTesting())
}

func testResolver() *warehouse.Resolver {
	return warehouse.NewResolver(newFakeStore(), discardLogger())
}

func TestEnrichFiltersUnresolvedCoordinates(t *testing.T) {
	geocoder := newFakeGeocoder()
	geocoder.resolve("-2.1234", "113.5678", palangkaRaya())

	set := domain.DetectionSet{
		Columns: allColumns,
		Detections: []domain.Detection{
			detection("-2.1234", "113.5678", "2025-08-01", "130", "Terra", "MODIS", "85"),
			// Open ocean, rejected by the geocoder.
			detection("-9.0000", "120.0000", "2025-08-01", "130", "Terra", "MODIS", "70"),
		},
	}

	enriched, err := newEnricher(geocoder, nil, newMemCache()).Enrich(context.Background(), set, testResolver())
	require.NoError(t, err)

	require.Len(t, enriched.Detections.Detections, 1)
	assert.Equal(t, "-2.1234", enriched.Detections.Detections[0].Latitude)

	require.Len(t, enriched.Locations, 1)
	assert.Equal(t, "62.71.01.1001", enriched.Locations[0].SubdistrictCode)
	assert.Equal(t, "-2.1234", enriched.Locations[0].Latitude)
	assert.NotEmpty(t, enriched.Locations[0].ID)
	assert.Empty(t, enriched.Weather, "weather provider disabled")
}

func TestEnrichGeocodesEachCoordinateOnce(t *testing.T) {
	geocoder := newFakeGeocoder()
	geocoder.resolve("-2.1234", "113.5678", palangkaRaya())

	set := domain.DetectionSet{
		Columns: allColumns,
		Detections: []domain.Detection{
			detection("-2.1234", "113.5678", "2025-08-01", "130", "Terra", "MODIS", "85"),
			detection("-2.1234", "113.5678", "2025-08-01", "445", "Aqua", "MODIS", "60"),
		},
	}

	enriched, err := newEnricher(geocoder, nil, newMemCache()).Enrich(context.Background(), set, testResolver())
	require.NoError(t, err)
	assert.Len(t, enriched.Detections.Detections, 2)
	assert.Len(t, enriched.Locations, 1)
	assert.Equal(t, 1, geocoder.calls)
}

func TestEnrichUsesCachedGeocode(t *testing.T) {
	geocoder := newFakeGeocoder()
	geocoder.resolve("-2.1234", "113.5678", palangkaRaya())
	cache := newMemCache()

	set := domain.DetectionSet{
		Columns: allColumns,
		Detections: []domain.Detection{
			detection("-2.1234", "113.5678", "2025-08-01", "130", "Terra", "MODIS", "85"),
		},
	}

	e := newEnricher(geocoder, nil, cache)
	_, err := e.Enrich(context.Background(), set, testResolver())
	require.NoError(t, err)
	require.Equal(t, 1, geocoder.calls)

	// Second run hits the cache, not the geocoder.
	_, err = e.Enrich(context.Background(), set, testResolver())
	require.NoError(t, err)
	assert.Equal(t, 1, geocoder.calls)
}

func TestEnrichCachesRejections(t *testing.T) {
	geocoder := newFakeGeocoder()
	cache := newMemCache()

	set := domain.DetectionSet{
		Columns: allColumns,
		Detections: []domain.Detection{
			detection("-9.0000", "120.0000", "2025-08-01", "130", "Terra", "MODIS", "85"),
		},
	}

	e := newEnricher(geocoder, nil, cache)
	for i := 0; i < 2; i++ {
		enriched, err := e.Enrich(context.Background(), set, testResolver())
		require.NoError(t, err)
		assert.Empty(t, enriched.Detections.Detections)
	}
	assert.Equal(t, 1, geocoder.calls, "rejection cached after first lookup")
}

func TestEnrichDropsCoordinateOnGeocodeError(t *testing.T) {
	geocoder := newFakeGeocoder()
	geocoder.err = errUpstream
	cache := newMemCache()

	set := domain.DetectionSet{
		Columns: allColumns,
		Detections: []domain.Detection{
			detection("-2.1234", "113.5678", "2025-08-01", "130", "Terra", "MODIS", "85"),
		},
	}

	enriched, err := newEnricher(geocoder, nil, cache).Enrich(context.Background(), set, testResolver())
	require.NoError(t, err)
	assert.Empty(t, enriched.Detections.Detections)
	assert.Empty(t, cache.entries, "errors are not cached")
}

func TestEnrichFetchesWeatherForSurvivors(t *testing.T) {
	geocoder := newFakeGeocoder()
	geocoder.resolve("-2.1234", "113.5678", palangkaRaya())
	weather := &fakeWeather{
		ok: true,
		obs: domain.WeatherObservation{
			Conditions:  "Partially cloudy",
			Icon:        "partly-cloudy-day",
			Temperature: 31,
			Humidity:    68.4,
		},
	}

	set := domain.DetectionSet{
		Columns: allColumns,
		Detections: []domain.Detection{
			detection("-2.1234", "113.5678", "2025-08-01", "130", "Terra", "MODIS", "85"),
			// Rejected coordinate never reaches the weather provider.
			detection("-9.0000", "120.0000", "2025-08-01", "130", "Terra", "MODIS", "70"),
		},
	}

	enriched, err := newEnricher(geocoder, weather, newMemCache()).Enrich(context.Background(), set, testResolver())
	require.NoError(t, err)

	require.Len(t, enriched.Weather, 1)
	assert.Equal(t, 1, weather.calls)
	obs := enriched.Weather[0]
	assert.Equal(t, "-2.1234", obs.Latitude, "join columns pinned to detection values")
	assert.Equal(t, "113.5678", obs.Longitude)
	assert.Equal(t, "2025-08-01 01:30:00", obs.Datetime)
	assert.Equal(t, "Partially cloudy", obs.Conditions)
}

func TestEnrichSkipsObservationOnWeatherError(t *testing.T) {
	geocoder := newFakeGeocoder()
	geocoder.resolve("-2.1234", "113.5678", palangkaRaya())
	weather := &fakeWeather{err: errUpstream}

	set := domain.DetectionSet{
		Columns: allColumns,
		Detections: []domain.Detection{
			detection("-2.1234", "113.5678", "2025-08-01", "130", "Terra", "MODIS", "85"),
		},
	}

	enriched, err := newEnricher(geocoder, weather, newMemCache()).Enrich(context.Background(), set, testResolver())
	require.NoError(t, err)
	assert.Len(t, enriched.Detections.Detections, 1, "detections survive a weather outage")
	assert.Empty(t, enriched.Weather)
}

func TestEnrichPausesBetweenGeocodeBatches(t *testing.T) {
	geocoder := newFakeGeocoder()
	set := domain.DetectionSet{Columns: allColumns}
	// 51 unique coordinates: one full batch of 50 live calls plus one more,
	// so exactly one batch pause applies.
	for i := 0; i < 51; i++ {
		lat := fmt.Sprintf("-2.%04d", i)
		geocoder.resolve(lat, "113.5678", palangkaRaya())
		set.Detections = append(set.Detections,
			detection(lat, "113.5678", "2025-08-01", "130", "Terra", "MODIS", "85"))
	}

	e := pipeline.NewEnricher(geocoder, nil, newMemCache(), pipeline.EnricherConfig{
		GeoBatchDelay: 30 * time.Millisecond,
	}, discardLogger(), observability.NewMetricsForTesting())

	start := time.Now()
	enriched, err := e.Enrich(context.Background(), set, testResolver())
	require.NoError(t, err)

	assert.Equal(t, 51, geocoder.calls)
	assert.Len(t, enriched.Locations, 51)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond,
		"the batch boundary pause must apply")
}
