package pipeline

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
	"github.com/zsbahtiar/hotspot-etl/internal/warehouse"
)

// StagingWriter converts enriched detections and weather observations into
// staging records and loads them tagged with the batch.
type StagingWriter struct {
	loader    *warehouse.Loader
	batchSize int
	logger    *slog.Logger
}

func NewStagingWriter(loader *warehouse.Loader, batchSize int, logger *slog.Logger) *StagingWriter {
	return &StagingWriter{loader: loader, batchSize: batchSize, logger: logger}
}

// StageDetections writes the detection set into staging_hotspot.
func (w *StagingWriter) StageDetections(ctx context.Context, batch domain.BatchMetadata, set domain.DetectionSet) (int, error) {
	rows := make([][]string, 0, len(set.Detections))
	for _, d := range set.Detections {
		rows = append(rows, []string{
			batch.BatchID,
			batch.IngestedAtValue(),
			optional(d.CountryID),
			d.Latitude,
			d.Longitude,
			d.AcqDate,
			d.AcqTime,
			d.Satellite,
			d.Instrument,
			d.Confidence,
			d.Version,
			d.FRP,
			d.DayNight,
			optional(d.Brightness),
			optional(d.BrightT31),
			optional(d.Scan),
			optional(d.Track),
			optional(d.BrightTI4),
			optional(d.BrightTI5),
		})
	}
	return w.loader.LoadStaging(ctx, warehouse.StagingHotspotTable, batch.BatchID, rows, w.batchSize)
}

// StageWeather writes the weather observations into staging_weather.
func (w *StagingWriter) StageWeather(ctx context.Context, batch domain.BatchMetadata, observations []domain.WeatherObservation) (int, error) {
	rows := make([][]string, 0, len(observations))
	for _, o := range observations {
		rows = append(rows, []string{
			batch.BatchID,
			batch.IngestedAtValue(),
			o.Latitude,
			o.Longitude,
			o.Datetime,
			strconv.Itoa(o.Temperature),
			formatFloat(o.FeelsLike),
			formatFloat(o.Humidity),
			formatFloat(o.Precipitation),
			strconv.Itoa(o.PrecipProb),
			formatFloat(o.WindSpeed),
			formatFloat(o.WindDegree),
			formatFloat(o.WindGust),
			strconv.Itoa(o.Pressure),
			strconv.Itoa(o.Visibility),
			strconv.Itoa(o.CloudCoverage),
			formatFloat(o.SolarRadiation),
			formatFloat(o.SolarEnergy),
			strconv.Itoa(o.UVIndex),
			strconv.Itoa(o.SevereRisk),
			o.Conditions,
			o.Icon,
		})
	}
	return w.loader.LoadStaging(ctx, warehouse.StagingWeatherTable, batch.BatchID, rows, w.batchSize)
}

func optional(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
