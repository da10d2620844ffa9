package warehouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsbahtiar/hotspot-etl/internal/warehouse"
)

func TestResolverReusesPreloadedIDs(t *testing.T) {
	store := newFakeStore()
	store.respond("SELECT date_value, id FROM dim_period",
		"2025-08-01\t01ARZ3PERIOD0000000000001\n2025-08-02\t01ARZ3PERIOD0000000000002\n")
	store.respond("SELECT subdistrict_code, id FROM dim_location",
		"14.71.06.1001\t01ARZ3LOCATION00000000001\n")
	store.respond("SELECT raw_value, instrument, id FROM dim_confidence",
		"85\tMODIS\t01ARZ3CONF000000000000001\n")
	store.respond("SELECT conditions, id FROM dim_weather_condition",
		"Partially cloudy\t01ARZ3COND000000000000001\n")

	r := warehouse.NewResolver(store, discardLogger())
	r.Preload(context.Background())

	assert.Equal(t, "01ARZ3PERIOD0000000000001", r.PeriodID("2025-08-01"))
	assert.Equal(t, "01ARZ3LOCATION00000000001", r.LocationID("14.71.06.1001"))
	assert.Equal(t, "01ARZ3CONF000000000000001", r.ConfidenceID("85", "MODIS"))
	assert.Equal(t, "01ARZ3COND000000000000001", r.WeatherConditionID("Partially cloudy"))
}

func TestResolverMintsAndRemembersNewIDs(t *testing.T) {
	r := warehouse.NewResolver(newFakeStore(), discardLogger())
	r.Preload(context.Background())

	first := r.PeriodID("2025-08-15")
	second := r.PeriodID("2025-08-15")
	other := r.PeriodID("2025-08-16")

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 26)
}

func TestResolverDegradesWhenPreloadFails(t *testing.T) {
	store := newFakeStore()
	store.fail("SELECT date_value, id FROM dim_period", errStoreDown)

	r := warehouse.NewResolver(store, discardLogger())
	r.Preload(context.Background())

	// No error surfaces; the run proceeds with freshly minted IDs.
	id := r.PeriodID("2025-08-01")
	require.NotEmpty(t, id)
	assert.Equal(t, id, r.PeriodID("2025-08-01"))
}

func TestMintIDIsUniqueAndSortable(t *testing.T) {
	r := warehouse.NewResolver(newFakeStore(), discardLogger())

	prev := r.MintID()
	for i := 0; i < 100; i++ {
		next := r.MintID()
		require.NotEqual(t, prev, next)
		require.LessOrEqual(t, prev, next)
		prev = next
	}
}
