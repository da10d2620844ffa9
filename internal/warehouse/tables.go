package warehouse

// LoadPolicy determines how records for a table are reconciled against rows
// already present in the warehouse.
type LoadPolicy int

const (
	// PolicyAppend inserts every record unconditionally. Staging tables use
	// this; dedup happens upstream against the business key.
	PolicyAppend LoadPolicy = iota

	// PolicyInsertOnly inserts only records whose single-column key is absent.
	PolicyInsertOnly

	// PolicyUpsertByKey inserts only records whose key is absent, like
	// PolicyInsertOnly, but a failed existing-key query degrades to inserting
	// everything instead of failing the load.
	PolicyUpsertByKey

	// PolicyUpsertByCompositeKey inserts only records whose composite key
	// tuple is absent, preserving the surrogate IDs of existing rows.
	PolicyUpsertByCompositeKey

	// PolicyDateSwap rebuilds one acquisition date of a fact table through a
	// shadow table so the old rows for that date are replaced wholesale.
	PolicyDateSwap
)

// TableSpec binds a warehouse table to its column order and load policy.
type TableSpec struct {
	Name    string
	Columns []string
	Policy  LoadPolicy
	// Key names the column(s) the policy reconciles on. Single-element for
	// InsertOnly and UpsertByKey, multi-element for UpsertByCompositeKey.
	Key []string
}

var (
	StagingHotspotTable = TableSpec{
		Name: "staging_hotspot",
		Columns: []string{
			"batch_id", "ingested_at", "country_id", "latitude", "longitude",
			"acq_date", "acq_time", "satellite", "instrument", "confidence",
			"version", "frp", "daynight", "brightness", "bright_t31",
			"scan", "track", "bright_ti4", "bright_ti5",
		},
		Policy: PolicyAppend,
	}

	StagingWeatherTable = TableSpec{
		Name: "staging_weather",
		Columns: []string{
			"batch_id", "ingested_at", "latitude", "longitude", "datetime",
			"temperature", "feels_like", "humidity", "precipitation",
			"precip_prob", "wind_speed", "wind_degree", "wind_gust",
			"pressure", "visibility", "cloud_coverage", "solar_radiation",
			"solar_energy", "uv_index", "severe_risk", "conditions", "icon",
		},
		Policy: PolicyAppend,
	}

	DimPeriodTable = TableSpec{
		Name: "dim_period",
		Columns: []string{
			"id", "date_value", "year", "semester", "quarter",
			"month", "month_name", "week",
		},
		Policy: PolicyInsertOnly,
		Key:    []string{"date_value"},
	}

	DimLocationTable = TableSpec{
		Name: "dim_location",
		Columns: []string{
			"id", "latitude", "longitude",
			"province_code", "province_name",
			"city_code", "city_name",
			"district_code", "district_name",
			"subdistrict_code", "subdistrict_name",
		},
		Policy: PolicyUpsertByCompositeKey,
		Key:    []string{"latitude", "longitude"},
	}

	DimSatelliteTable = TableSpec{
		Name: "dim_satellite",
		Columns: []string{
			"id", "satellite", "instrument", "spatial_resolution_m",
			"temporal_resolution_hours", "description",
		},
		Policy: PolicyUpsertByKey,
		Key:    []string{"id"},
	}

	DimConfidenceTable = TableSpec{
		Name: "dim_confidence",
		Columns: []string{
			"id", "raw_value", "instrument", "class", "score", "description",
		},
		Policy: PolicyUpsertByKey,
		Key:    []string{"id"},
	}

	DimWeatherConditionTable = TableSpec{
		Name:    "dim_weather_condition",
		Columns: []string{"id", "conditions", "icon"},
		Policy:  PolicyUpsertByKey,
		Key:     []string{"id"},
	}

	FactHotspotTable = TableSpec{
		Name: "fact_hotspot",
		Columns: []string{
			"id", "satellite_id", "confidence_id", "period_id", "location_id",
			"acquired_at", "frp", "brightness", "bright_t31",
			"bright_ti4", "bright_ti5", "latitude", "longitude",
			"scan", "track",
		},
		Policy: PolicyDateSwap,
	}

	FactWeatherTable = TableSpec{
		Name: "fact_weather",
		Columns: []string{
			"id", "period_id", "location_id", "weather_condition_id",
			"acquired_at", "temperature", "humidity", "wind_speed",
			"wind_degree", "visibility", "cloud_coverage",
			"latitude", "longitude", "pressure", "uv_index",
			"precipitation", "solar_radiation",
		},
		Policy: PolicyDateSwap,
	}
)

// QualityTables lists every table the post-load quality check counts.
var QualityTables = []string{
	StagingHotspotTable.Name,
	StagingWeatherTable.Name,
	DimPeriodTable.Name,
	DimLocationTable.Name,
	DimSatelliteTable.Name,
	DimConfidenceTable.Name,
	DimWeatherConditionTable.Name,
	FactHotspotTable.Name,
	FactWeatherTable.Name,
}

func (s TableSpec) columnIndex(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
