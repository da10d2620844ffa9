package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zsbahtiar/hotspot-etl/internal/domain"
)

func TestDetection_Key(t *testing.T) {
	d := domain.Detection{
		Latitude:   "-6.2088",
		Longitude:  "106.8456",
		AcqDate:    "2025-08-01",
		AcqTime:    "0630",
		Satellite:  "Terra",
		Instrument: "MODIS",
	}

	full := d.Key(domain.KeyColumns)
	assert.Equal(t, "-6.2088|106.8456|2025-08-01|0630|Terra|MODIS", full)

	partial := d.Key([]string{"latitude", "longitude", "acq_date", "acq_time"})
	assert.Equal(t, "-6.2088|106.8456|2025-08-01|0630", partial)
}

func TestPadAcqTime(t *testing.T) {
	assert.Equal(t, "0930", domain.PadAcqTime("930"))
	assert.Equal(t, "0005", domain.PadAcqTime("5"))
	assert.Equal(t, "1510", domain.PadAcqTime("1510"))
	assert.Equal(t, "0630", domain.PadAcqTime(" 630"))
}

func TestAcquiredAt(t *testing.T) {
	ts, err := domain.AcquiredAt("2025-08-01", "630")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 1, 6, 30, 0, 0, time.UTC), ts)

	_, err = domain.AcquiredAt("2025-08-01", "xxxx")
	assert.Error(t, err)
}

func TestLocalDatetime(t *testing.T) {
	assert.Equal(t, "2025-08-01T06:30:00", domain.LocalDatetime("2025-08-01", "630"))
	assert.Equal(t, "2025-08-01 06:30:00", domain.ObservationDatetime("2025-08-01", "630"))
}

func TestDetectionSet_HasColumn(t *testing.T) {
	set := domain.DetectionSet{Columns: []string{"latitude", "longitude", "acq_date"}}
	assert.True(t, set.HasColumn("latitude"))
	assert.False(t, set.HasColumn("satellite"))
	assert.True(t, set.Empty())
}
