package warehouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsbahtiar/hotspot-etl/internal/warehouse"
)

func stagedDetection(date, tm, sat, instr, conf string) warehouse.StagingHotspotRow {
	return warehouse.StagingHotspotRow{
		BatchID:    "01ARZ3BATCH0000000000001",
		Latitude:   "-2.1234",
		Longitude:  "113.5678",
		AcqDate:    date,
		AcqTime:    tm,
		Satellite:  sat,
		Instrument: instr,
		Confidence: conf,
	}
}

func TestBuildDimensionsDerivesUniqueRows(t *testing.T) {
	hotspots := []warehouse.StagingHotspotRow{
		stagedDetection("2025-08-01", "0130", "Terra", "MODIS", "85"),
		stagedDetection("2025-08-01", "0445", "Terra", "MODIS", "85"),
		stagedDetection("2025-08-01", "0612", "N", "VIIRS", "n"),
		stagedDetection("2025-08-02", "0130", "Aqua", "MODIS", "42"),
	}
	weather := []warehouse.StagingWeatherRow{
		{Datetime: "2025-08-03 06:00:00", Conditions: "Partially cloudy", Icon: "partly-cloudy-day"},
		{Datetime: "2025-08-03 09:00:00", Conditions: "Partially cloudy", Icon: "partly-cloudy-day"},
		{Datetime: "2025-08-01 12:00:00", Conditions: "Rain", Icon: "rain"},
	}

	r := warehouse.NewResolver(newFakeStore(), discardLogger())
	r.Preload(context.Background())

	dims, err := warehouse.BuildDimensions(hotspots, weather, r)
	require.NoError(t, err)

	require.Len(t, dims.Periods, 3)
	assert.Equal(t, "2025-08-01", dims.Periods[0].DateValue)
	assert.Equal(t, "2025-08-02", dims.Periods[1].DateValue)
	assert.Equal(t, "2025-08-03", dims.Periods[2].DateValue)
	assert.Equal(t, 2025, dims.Periods[0].Year)
	assert.Equal(t, 2, dims.Periods[0].Semester)
	assert.Equal(t, 3, dims.Periods[0].Quarter)
	assert.Equal(t, "August", dims.Periods[0].MonthName)

	require.Len(t, dims.Satellites, 3)
	ids := []string{dims.Satellites[0].ID, dims.Satellites[1].ID, dims.Satellites[2].ID}
	assert.Contains(t, ids, "Terra_MODIS")
	assert.Contains(t, ids, "N_VIIRS")
	assert.Contains(t, ids, "Aqua_MODIS")

	require.Len(t, dims.Confidences, 3)
	byKey := map[string]warehouse.ConfidenceRow{}
	for _, c := range dims.Confidences {
		byKey[c.RawValue+"_"+c.Instrument] = c
	}
	assert.Equal(t, "HIGH", byKey["85_MODIS"].Class)
	assert.Equal(t, 85, byKey["85_MODIS"].Score)
	assert.Equal(t, "NOMINAL", byKey["n_VIIRS"].Class)
	assert.Equal(t, 50, byKey["n_VIIRS"].Score)
	assert.Equal(t, "NOMINAL", byKey["42_MODIS"].Class)

	require.Len(t, dims.WeatherConditions, 2)
}

func TestBuildDimensionsPeriodIDsAreStablePerDate(t *testing.T) {
	hotspots := []warehouse.StagingHotspotRow{
		stagedDetection("2025-08-01", "0130", "Terra", "MODIS", "85"),
	}
	weather := []warehouse.StagingWeatherRow{
		{Datetime: "2025-08-01 12:00:00", Conditions: "Clear", Icon: "clear-day"},
	}

	r := warehouse.NewResolver(newFakeStore(), discardLogger())
	r.Preload(context.Background())

	dims, err := warehouse.BuildDimensions(hotspots, weather, r)
	require.NoError(t, err)

	require.Len(t, dims.Periods, 1)
	assert.Equal(t, dims.Periods[0].ID, r.PeriodID("2025-08-01"))
}

func TestBuildDimensionsRejectsMalformedDate(t *testing.T) {
	hotspots := []warehouse.StagingHotspotRow{
		stagedDetection("01/08/2025", "0130", "Terra", "MODIS", "85"),
	}

	r := warehouse.NewResolver(newFakeStore(), discardLogger())
	_, err := warehouse.BuildDimensions(hotspots, nil, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "01/08/2025")
}
