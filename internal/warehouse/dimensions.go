package warehouse

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
)

// DimensionRows holds the dimension records derived from one staged batch,
// ready for policy-driven loading.
type DimensionRows struct {
	Periods           []PeriodRow
	Satellites        []SatelliteRow
	Confidences       []ConfidenceRow
	WeatherConditions []WeatherConditionRow
}

// BuildDimensions derives dimension rows from the staged batch. Locations are
// not built here: dim_location rows come straight from geocoding, before the
// detections are staged. Surrogate IDs come from the resolver so a date or
// confidence value already in the warehouse keeps its existing ID.
func BuildDimensions(hotspots []StagingHotspotRow, weather []StagingWeatherRow, resolver *Resolver) (DimensionRows, error) {
	var out DimensionRows

	seenDates := map[string]bool{}
	seenSatellites := map[string]bool{}
	seenConfidences := map[string]bool{}
	seenConditions := map[string]bool{}

	for _, h := range hotspots {
		if !seenDates[h.AcqDate] {
			seenDates[h.AcqDate] = true
			row, err := buildPeriodRow(h.AcqDate, resolver)
			if err != nil {
				return DimensionRows{}, err
			}
			out.Periods = append(out.Periods, row)
		}

		satID := domain.SatelliteID(h.Satellite, h.Instrument)
		if !seenSatellites[satID] {
			seenSatellites[satID] = true
			info := domain.InstrumentInfo(h.Instrument)
			out.Satellites = append(out.Satellites, SatelliteRow{
				ID:                      satID,
				Satellite:               h.Satellite,
				Instrument:              h.Instrument,
				SpatialResolutionM:      info.SpatialResolutionM,
				TemporalResolutionHours: info.TemporalResolutionHours,
				Description:             info.Description,
			})
		}

		confKey := h.Confidence + "_" + h.Instrument
		if !seenConfidences[confKey] {
			seenConfidences[confKey] = true
			out.Confidences = append(out.Confidences, ConfidenceRow{
				ID:          resolver.ConfidenceID(h.Confidence, h.Instrument),
				RawValue:    h.Confidence,
				Instrument:  h.Instrument,
				Class:       string(domain.ClassifyConfidence(h.Confidence, h.Instrument)),
				Score:       domain.ConfidenceNumeric(h.Confidence, h.Instrument),
				Description: domain.ConfidenceDescription(h.Instrument),
			})
		}
	}

	for _, w := range weather {
		date := weatherDate(w.Datetime)
		if date != "" && !seenDates[date] {
			seenDates[date] = true
			row, err := buildPeriodRow(date, resolver)
			if err != nil {
				return DimensionRows{}, err
			}
			out.Periods = append(out.Periods, row)
		}

		if w.Conditions != "" && !seenConditions[w.Conditions] {
			seenConditions[w.Conditions] = true
			out.WeatherConditions = append(out.WeatherConditions, WeatherConditionRow{
				ID:         resolver.WeatherConditionID(w.Conditions),
				Conditions: w.Conditions,
				Icon:       w.Icon,
			})
		}
	}

	sort.Slice(out.Periods, func(i, j int) bool {
		return out.Periods[i].DateValue < out.Periods[j].DateValue
	})

	return out, nil
}

func buildPeriodRow(dateValue string, resolver *Resolver) (PeriodRow, error) {
	date, err := time.ParseInLocation("2006-01-02", dateValue, time.UTC)
	if err != nil {
		return PeriodRow{}, fmt.Errorf("parse acquisition date %q: %w", dateValue, err)
	}
	attrs := domain.DerivePeriod(date)
	return PeriodRow{
		ID:        resolver.PeriodID(dateValue),
		DateValue: dateValue,
		Year:      attrs.Year,
		Semester:  attrs.Semester,
		Quarter:   attrs.Quarter,
		Month:     attrs.Month,
		MonthName: attrs.MonthName,
		Week:      attrs.Week,
	}, nil
}

// weatherDate extracts the calendar date from a staged observation datetime
// of the form "2006-01-02 15:04:05".
func weatherDate(datetime string) string {
	if i := strings.IndexByte(datetime, ' '); i > 0 {
		return datetime[:i]
	}
	if len(datetime) == len("2006-01-02") {
		return datetime
	}
	return ""
}
