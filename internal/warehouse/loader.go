package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/zsbahtiar/hotspot-etl/internal/observability"
)

// Loader writes staged and dimensional records into the warehouse, applying
// each table's load policy so replays of a date do not duplicate rows.
type Loader struct {
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewLoader(store Store, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{store: store, logger: logger, metrics: metrics}
}

// LoadStaging appends a batch to a staging table in chunks of batchSize,
// forces the engine's background merge so replaced rows collapse, and returns
// how many rows of the batch survived.
func (l *Loader) LoadStaging(ctx context.Context, spec TableSpec, batchID string, rows [][]string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = len(rows)
	}
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := l.store.BulkInsert(ctx, spec.Name, spec.Columns, true, rows[start:end]); err != nil {
			l.metrics.StoreErrors.Inc()
			return 0, fmt.Errorf("load %s: %w", spec.Name, err)
		}
	}
	if _, err := l.store.ExecuteQuery(ctx, "OPTIMIZE TABLE "+spec.Name+" FINAL"); err != nil {
		l.logger.Warn("optimize after staging load failed", "table", spec.Name, "error", err)
	}
	count, err := l.queryCount(ctx,
		"SELECT count() FROM "+spec.Name+" WHERE batch_id = '"+escapeString(batchID)+"'")
	if err != nil {
		return 0, fmt.Errorf("count %s batch: %w", spec.Name, err)
	}
	l.metrics.RowsLoaded.WithLabelValues(spec.Name).Add(float64(count))
	l.logger.Info("staged batch loaded", "table", spec.Name, "rows", count)
	return count, nil
}

// LoadDimension reconciles dimension records against the warehouse according
// to the table's policy and returns the number of rows actually inserted.
func (l *Loader) LoadDimension(ctx context.Context, spec TableSpec, records [][]string) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var (
		inserted int
		err      error
	)
	switch spec.Policy {
	case PolicyInsertOnly, PolicyUpsertByCompositeKey:
		inserted, err = l.insertMissing(ctx, spec, records, false)
	case PolicyUpsertByKey:
		inserted, err = l.insertMissing(ctx, spec, records, true)
	default:
		err = l.store.BulkInsert(ctx, spec.Name, spec.Columns, false, records)
		inserted = len(records)
	}
	if err != nil {
		l.metrics.StoreErrors.Inc()
		return 0, fmt.Errorf("load %s: %w", spec.Name, err)
	}

	l.metrics.RowsLoaded.WithLabelValues(spec.Name).Add(float64(inserted))
	l.logger.Info("dimension loaded",
		"table", spec.Name, "incoming", len(records), "inserted", inserted)
	return inserted, nil
}

// insertMissing inserts only records whose key (single or composite) is not
// already present, so existing rows keep their surrogate IDs. When degrade is
// set a failed existing-key query falls back to inserting everything; the
// store's key constraints catch duplicates.
func (l *Loader) insertMissing(ctx context.Context, spec TableSpec, records [][]string, degrade bool) (int, error) {
	indexes := make([]int, 0, len(spec.Key))
	for _, key := range spec.Key {
		i := spec.columnIndex(key)
		if i < 0 {
			return 0, fmt.Errorf("table %s has no key column %q", spec.Name, key)
		}
		indexes = append(indexes, i)
	}

	existing := map[string]bool{}
	result, err := l.store.ExecuteQuery(ctx,
		"SELECT "+joinColumns(spec.Key)+" FROM "+spec.Name)
	if err != nil {
		if !degrade {
			return 0, err
		}
		l.logger.Warn("existing key query failed, inserting all records",
			"table", spec.Name, "error", err)
	} else {
		for _, row := range parseTabSeparated(result) {
			if len(row) != len(spec.Key) {
				continue
			}
			existing[compositeKey(row)] = true
		}
	}

	missing := make([][]string, 0, len(records))
	for _, rec := range records {
		parts := make([]string, 0, len(indexes))
		for _, i := range indexes {
			parts = append(parts, rec[i])
		}
		if !existing[compositeKey(parts)] {
			missing = append(missing, rec)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if err := l.store.BulkInsert(ctx, spec.Name, spec.Columns, false, missing); err != nil {
		return 0, err
	}
	return len(missing), nil
}

// LoadDimensions loads every dimension derived from a batch in dependency
// order and returns per-table inserted counts.
func (l *Loader) LoadDimensions(ctx context.Context, dims DimensionRows) (map[string]int, error) {
	counts := map[string]int{}

	load := func(spec TableSpec, records [][]string) error {
		n, err := l.LoadDimension(ctx, spec, records)
		if err != nil {
			return err
		}
		counts[spec.Name] = n
		return nil
	}

	if err := load(DimPeriodTable, periodRecords(dims.Periods)); err != nil {
		return counts, err
	}
	if err := load(DimSatelliteTable, satelliteRecords(dims.Satellites)); err != nil {
		return counts, err
	}
	if err := load(DimConfidenceTable, confidenceRecords(dims.Confidences)); err != nil {
		return counts, err
	}
	if err := load(DimWeatherConditionTable, weatherConditionRecords(dims.WeatherConditions)); err != nil {
		return counts, err
	}
	return counts, nil
}

// LoadFactPartition rebuilds one acquisition date of a fact table. The new
// rows land in a shadow table first; the live date slice is then deleted and
// refilled from the shadow. The delete and refill are two statements, so a
// reader between them sees the date briefly empty.
func (l *Loader) LoadFactPartition(ctx context.Context, spec TableSpec, date string, records [][]string) (int, error) {
	shadow := spec.Name + "_swap"

	if _, err := l.store.ExecuteQuery(ctx, "DROP TABLE IF EXISTS "+shadow); err != nil {
		return 0, fmt.Errorf("drop stale shadow for %s: %w", spec.Name, err)
	}
	if _, err := l.store.ExecuteQuery(ctx, "CREATE TABLE "+shadow+" AS "+spec.Name); err != nil {
		return 0, fmt.Errorf("create shadow for %s: %w", spec.Name, err)
	}
	defer func() {
		if _, err := l.store.ExecuteQuery(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+shadow); err != nil {
			l.logger.Warn("failed to drop shadow table", "table", shadow, "error", err)
		}
	}()

	if len(records) > 0 {
		if err := l.store.BulkInsert(ctx, shadow, spec.Columns, false, records); err != nil {
			l.metrics.StoreErrors.Inc()
			return 0, fmt.Errorf("fill shadow for %s: %w", spec.Name, err)
		}
	}

	_, err := l.store.ExecuteQuery(ctx,
		"ALTER TABLE "+spec.Name+" DELETE WHERE period_id IN "+
			"(SELECT id FROM "+DimPeriodTable.Name+" WHERE date_value = '"+escapeString(date)+"')")
	if err != nil {
		l.metrics.StoreErrors.Inc()
		return 0, fmt.Errorf("clear %s for %s: %w", spec.Name, date, err)
	}

	if _, err := l.store.ExecuteQuery(ctx, "INSERT INTO "+spec.Name+" SELECT * FROM "+shadow); err != nil {
		l.metrics.StoreErrors.Inc()
		return 0, fmt.Errorf("swap in %s for %s: %w", spec.Name, date, err)
	}

	l.metrics.RowsLoaded.WithLabelValues(spec.Name).Add(float64(len(records)))
	l.logger.Info("fact partition rebuilt",
		"table", spec.Name, "date", date, "rows", len(records))
	return len(records), nil
}

// ReadStagingHotspots reads one batch of staged detections back for
// transformation.
func (l *Loader) ReadStagingHotspots(ctx context.Context, batchID string) ([]StagingHotspotRow, error) {
	query := "SELECT " + joinColumns(StagingHotspotTable.Columns) +
		" FROM " + StagingHotspotTable.Name +
		" WHERE batch_id = '" + escapeString(batchID) + "' FORMAT CSVWithNames"
	result, err := l.store.ExecuteQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read staging hotspots: %w", err)
	}
	header, rows, err := parseCSVWithNames(result)
	if err != nil {
		return nil, fmt.Errorf("read staging hotspots: %w", err)
	}
	col := columnLookup(header)
	out := make([]StagingHotspotRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, StagingHotspotRow{
			BatchID:    col.value(row, "batch_id"),
			IngestedAt: col.value(row, "ingested_at"),
			CountryID:  col.value(row, "country_id"),
			Latitude:   col.value(row, "latitude"),
			Longitude:  col.value(row, "longitude"),
			AcqDate:    col.value(row, "acq_date"),
			AcqTime:    col.value(row, "acq_time"),
			Satellite:  col.value(row, "satellite"),
			Instrument: col.value(row, "instrument"),
			Confidence: col.value(row, "confidence"),
			Version:    col.value(row, "version"),
			FRP:        col.value(row, "frp"),
			DayNight:   col.value(row, "daynight"),
			Brightness: col.value(row, "brightness"),
			BrightT31:  col.value(row, "bright_t31"),
			Scan:       col.value(row, "scan"),
			Track:      col.value(row, "track"),
			BrightTI4:  col.value(row, "bright_ti4"),
			BrightTI5:  col.value(row, "bright_ti5"),
		})
	}
	return out, nil
}

// ReadStagingWeather reads one batch of staged weather observations back for
// transformation.
func (l *Loader) ReadStagingWeather(ctx context.Context, batchID string) ([]StagingWeatherRow, error) {
	query := "SELECT " + joinColumns(StagingWeatherTable.Columns) +
		" FROM " + StagingWeatherTable.Name +
		" WHERE batch_id = '" + escapeString(batchID) + "' FORMAT CSVWithNames"
	result, err := l.store.ExecuteQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read staging weather: %w", err)
	}
	header, rows, err := parseCSVWithNames(result)
	if err != nil {
		return nil, fmt.Errorf("read staging weather: %w", err)
	}
	col := columnLookup(header)
	out := make([]StagingWeatherRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, StagingWeatherRow{
			BatchID:        col.value(row, "batch_id"),
			IngestedAt:     col.value(row, "ingested_at"),
			Latitude:       col.value(row, "latitude"),
			Longitude:      col.value(row, "longitude"),
			Datetime:       col.value(row, "datetime"),
			Temperature:    col.value(row, "temperature"),
			FeelsLike:      col.value(row, "feels_like"),
			Humidity:       col.value(row, "humidity"),
			Precipitation:  col.value(row, "precipitation"),
			PrecipProb:     col.value(row, "precip_prob"),
			WindSpeed:      col.value(row, "wind_speed"),
			WindDegree:     col.value(row, "wind_degree"),
			WindGust:       col.value(row, "wind_gust"),
			Pressure:       col.value(row, "pressure"),
			Visibility:     col.value(row, "visibility"),
			CloudCoverage:  col.value(row, "cloud_coverage"),
			SolarRadiation: col.value(row, "solar_radiation"),
			SolarEnergy:    col.value(row, "solar_energy"),
			UVIndex:        col.value(row, "uv_index"),
			SevereRisk:     col.value(row, "severe_risk"),
			Conditions:     col.value(row, "conditions"),
			Icon:           col.value(row, "icon"),
		})
	}
	return out, nil
}

// TableCount returns the number of rows in a table.
func (l *Loader) TableCount(ctx context.Context, table string) (int, error) {
	return l.queryCount(ctx, "SELECT count() FROM "+table)
}

func (l *Loader) queryCount(ctx context.Context, query string) (int, error) {
	result, err := l.store.ExecuteQuery(ctx, query)
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(result))
	if err != nil {
		return 0, fmt.Errorf("parse count result %q: %w", result, err)
	}
	return count, nil
}

type columnLookup []string

func (c columnLookup) value(row []string, name string) string {
	for i, col := range c {
		if col == name && i < len(row) {
			return row[i]
		}
	}
	return ""
}

func periodRecords(rows []PeriodRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}

func satelliteRecords(rows []SatelliteRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}

func confidenceRecords(rows []ConfidenceRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}

func weatherConditionRecords(rows []WeatherConditionRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}

// LocationRecords converts geocoded location rows for loading.
func LocationRecords(rows []LocationRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}

// FactHotspotRecords converts hotspot fact rows for loading.
func FactHotspotRecords(rows []FactHotspotRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}

// FactWeatherRecords converts weather fact rows for loading.
func FactWeatherRecords(rows []FactWeatherRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}
