package warehouse_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsbahtiar/hotspot-etl/internal/observability"
	"github.com/zsbahtiar/hotspot-etl/internal/warehouse"
)

func newFactBuilder(store *fakeStore) *warehouse.FactBuilder {
	resolver := warehouse.NewResolver(store, discardLogger())
	return warehouse.NewFactBuilder(store, resolver, discardLogger(), observability.NewMetricsForTesting())
}

func TestBuildHotspotFactsDropsUnresolvableLocations(t *testing.T) {
	store := newFakeStore()
	// Seven of the ten staged coordinates resolve to a location.
	var mapped []string
	staged := make([]warehouse.StagingHotspotRow, 0, 10)
	for i := 0; i < 10; i++ {
		lat := fmt.Sprintf("-2.%04d", i)
		staged = append(staged, warehouse.StagingHotspotRow{
			Latitude:   lat,
			Longitude:  "113.5678",
			AcqDate:    "2025-08-01",
			AcqTime:    "130",
			Satellite:  "Terra",
			Instrument: "MODIS",
			Confidence: "85",
			FRP:        "12.5",
		})
		if i < 7 {
			mapped = append(mapped, fmt.Sprintf("%s\t113.5678\tLOC%02d", lat, i))
		}
	}
	store.respond("SELECT latitude, longitude, id FROM dim_location",
		strings.Join(mapped, "\n")+"\n")

	facts, err := newFactBuilder(store).BuildHotspotFacts(context.Background(), staged)
	require.NoError(t, err)
	require.Len(t, facts, 7)

	first := facts[0]
	assert.Equal(t, "Terra_MODIS", first.SatelliteID)
	assert.Equal(t, "LOC00", first.LocationID)
	assert.Equal(t, "2025-08-01 01:30:00", first.AcquiredAt)
	assert.NotEmpty(t, first.PeriodID)
	assert.NotEmpty(t, first.ConfidenceID)
	assert.Len(t, first.ID, 26)
}

func TestBuildHotspotFactsShareDimensionIDs(t *testing.T) {
	store := newFakeStore()
	store.respond("SELECT latitude, longitude, id FROM dim_location",
		"-2.0000\t113.5678\tLOC00\n-2.0001\t113.5678\tLOC01\n")

	staged := []warehouse.StagingHotspotRow{
		{Latitude: "-2.0000", Longitude: "113.5678", AcqDate: "2025-08-01", AcqTime: "130", Satellite: "Terra", Instrument: "MODIS", Confidence: "85"},
		{Latitude: "-2.0001", Longitude: "113.5678", AcqDate: "2025-08-01", AcqTime: "445", Satellite: "Terra", Instrument: "MODIS", Confidence: "85"},
	}

	facts, err := newFactBuilder(store).BuildHotspotFacts(context.Background(), staged)
	require.NoError(t, err)
	require.Len(t, facts, 2)

	assert.Equal(t, facts[0].PeriodID, facts[1].PeriodID)
	assert.Equal(t, facts[0].ConfidenceID, facts[1].ConfidenceID)
	assert.NotEqual(t, facts[0].ID, facts[1].ID)
	assert.NotEqual(t, facts[0].LocationID, facts[1].LocationID)
}

func TestBuildWeatherFactsResolvesConditions(t *testing.T) {
	store := newFakeStore()
	store.respond("SELECT latitude, longitude, id FROM dim_location",
		"-2.0000\t113.5678\tLOC00\n")

	staged := []warehouse.StagingWeatherRow{
		{
			Latitude: "-2.0000", Longitude: "113.5678",
			Datetime: "2025-08-01 01:30:00", Conditions: "Partially cloudy",
			Temperature: "31.2", Humidity: "68.4", WindSpeed: "9.4",
		},
		{
			// Never geocoded, so no location row exists for it.
			Latitude: "-9.0000", Longitude: "120.0000",
			Datetime: "2025-08-01 01:30:00", Conditions: "Clear",
		},
	}

	facts, err := newFactBuilder(store).BuildWeatherFacts(context.Background(), staged)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "LOC00", facts[0].LocationID)
	assert.Equal(t, "31.2", facts[0].Temperature)
	assert.NotEmpty(t, facts[0].WeatherConditionID)
	assert.NotEmpty(t, facts[0].PeriodID)
}

func TestBuildHotspotFactsPropagatesLookupFailure(t *testing.T) {
	store := newFakeStore()
	store.fail("SELECT latitude, longitude, id FROM dim_location", errStoreDown)

	staged := []warehouse.StagingHotspotRow{
		{Latitude: "-2.0000", Longitude: "113.5678", AcqDate: "2025-08-01", AcqTime: "130"},
	}

	_, err := newFactBuilder(store).BuildHotspotFacts(context.Background(), staged)
	require.ErrorIs(t, err, errStoreDown)
}

func TestBuildHotspotFactsEmptyInput(t *testing.T) {
	facts, err := newFactBuilder(newFakeStore()).BuildHotspotFacts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, facts)
}
