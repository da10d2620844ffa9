package warehouse

import (
	"context"
	"log/slog"
	"strings"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
	"github.com/zsbahtiar/hotspot-etl/internal/observability"
)

// locationLookupBatch caps the number of coordinate pairs interpolated into a
// single dim_location lookup query.
const locationLookupBatch = 1000

// FactBuilder turns staged rows into fact rows by resolving every dimension
// key. Rows whose location cannot be resolved are dropped: the fact tables
// require a location key and an unresolvable coordinate means the geocoder
// rejected it after the row was staged.
type FactBuilder struct {
	store    Store
	resolver *Resolver
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewFactBuilder(store Store, resolver *Resolver, logger *slog.Logger, metrics *observability.Metrics) *FactBuilder {
	return &FactBuilder{store: store, resolver: resolver, logger: logger, metrics: metrics}
}

// BuildHotspotFacts resolves the staged detections into fact_hotspot rows.
func (b *FactBuilder) BuildHotspotFacts(ctx context.Context, staged []StagingHotspotRow) ([]FactHotspotRow, error) {
	coords := make([][2]string, 0, len(staged))
	for _, h := range staged {
		coords = append(coords, [2]string{h.Latitude, h.Longitude})
	}
	locations, err := b.lookupLocations(ctx, coords)
	if err != nil {
		return nil, err
	}

	facts := make([]FactHotspotRow, 0, len(staged))
	dropped := 0
	for _, h := range staged {
		locationID, ok := locations[h.Latitude+","+h.Longitude]
		if !ok {
			dropped++
			b.metrics.RowsRejected.WithLabelValues("fact_hotspot").Inc()
			continue
		}
		facts = append(facts, FactHotspotRow{
			ID:           b.resolver.MintID(),
			SatelliteID:  domain.SatelliteID(h.Satellite, h.Instrument),
			ConfidenceID: b.resolver.ConfidenceID(h.Confidence, h.Instrument),
			PeriodID:     b.resolver.PeriodID(h.AcqDate),
			LocationID:   locationID,
			AcquiredAt:   domain.ObservationDatetime(h.AcqDate, h.AcqTime),
			FRP:          h.FRP,
			Brightness:   h.Brightness,
			BrightT31:    h.BrightT31,
			BrightTI4:    h.BrightTI4,
			BrightTI5:    h.BrightTI5,
			Latitude:     h.Latitude,
			Longitude:    h.Longitude,
			Scan:         h.Scan,
			Track:        h.Track,
		})
	}
	if dropped > 0 {
		b.logger.Warn("dropped detections with no resolvable location",
			"dropped", dropped, "kept", len(facts))
	}
	return facts, nil
}

// BuildWeatherFacts resolves the staged observations into fact_weather rows.
func (b *FactBuilder) BuildWeatherFacts(ctx context.Context, staged []StagingWeatherRow) ([]FactWeatherRow, error) {
	coords := make([][2]string, 0, len(staged))
	for _, w := range staged {
		coords = append(coords, [2]string{w.Latitude, w.Longitude})
	}
	locations, err := b.lookupLocations(ctx, coords)
	if err != nil {
		return nil, err
	}

	facts := make([]FactWeatherRow, 0, len(staged))
	dropped := 0
	for _, w := range staged {
		locationID, ok := locations[w.Latitude+","+w.Longitude]
		if !ok {
			dropped++
			b.metrics.RowsRejected.WithLabelValues("fact_weather").Inc()
			continue
		}
		date := weatherDate(w.Datetime)
		facts = append(facts, FactWeatherRow{
			ID:                 b.resolver.MintID(),
			PeriodID:           b.resolver.PeriodID(date),
			LocationID:         locationID,
			WeatherConditionID: b.resolver.WeatherConditionID(w.Conditions),
			AcquiredAt:         w.Datetime,
			Temperature:        w.Temperature,
			Humidity:           w.Humidity,
			WindSpeed:          w.WindSpeed,
			WindDegree:         w.WindDegree,
			Visibility:         w.Visibility,
			CloudCoverage:      w.CloudCoverage,
			Latitude:           w.Latitude,
			Longitude:          w.Longitude,
			Pressure:           w.Pressure,
			UVIndex:            w.UVIndex,
			Precipitation:      w.Precipitation,
			SolarRadiation:     w.SolarRadiation,
		})
	}
	if dropped > 0 {
		b.logger.Warn("dropped weather observations with no resolvable location",
			"dropped", dropped, "kept", len(facts))
	}
	return facts, nil
}

// lookupLocations maps coordinate pairs to dim_location surrogate IDs,
// querying in batches so the interpolated tuple list stays bounded.
func (b *FactBuilder) lookupLocations(ctx context.Context, coords [][2]string) (map[string]string, error) {
	unique := make([][2]string, 0, len(coords))
	seen := map[string]bool{}
	for _, c := range coords {
		key := c[0] + "," + c[1]
		if c[0] == "" || c[1] == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, c)
	}

	out := map[string]string{}
	for start := 0; start < len(unique); start += locationLookupBatch {
		end := start + locationLookupBatch
		if end > len(unique) {
			end = len(unique)
		}
		if err := b.lookupLocationBatch(ctx, unique[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (b *FactBuilder) lookupLocationBatch(ctx context.Context, coords [][2]string, out map[string]string) error {
	tuples := make([]string, 0, len(coords))
	for _, c := range coords {
		tuples = append(tuples, "('"+escapeString(c[0])+"', '"+escapeString(c[1])+"')")
	}
	query := "SELECT latitude, longitude, id FROM " + DimLocationTable.Name +
		" WHERE (latitude, longitude) IN (" + strings.Join(tuples, ", ") + ")"
	result, err := b.store.ExecuteQuery(ctx, query)
	if err != nil {
		return err
	}
	for _, row := range parseTabSeparated(result) {
		if len(row) != 3 {
			continue
		}
		out[row[0]+","+row[1]] = row[2]
	}
	return nil
}
