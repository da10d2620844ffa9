package domain

import (
	"fmt"
	"strings"
	"time"
)

// KeyColumns are the business-key columns used for detection deduplication.
var KeyColumns = []string{"latitude", "longitude", "acq_date", "acq_time", "satellite", "instrument"}

// Detection is one satellite-detected fire pixel. All values are text to
// preserve the source's precision; pointer fields are instrument-specific
// columns that may be absent from a given feed.
type Detection struct {
	CountryID  *string
	Latitude   string
	Longitude  string
	AcqDate    string // YYYY-MM-DD
	AcqTime    string // HHMM local sensor time, possibly unpadded
	Satellite  string
	Instrument string
	Confidence string
	Version    string
	FRP        string
	DayNight   string
	Brightness *string // MODIS
	BrightT31  *string // MODIS
	Scan       *string
	Track      *string
	BrightTI4  *string // VIIRS
	BrightTI5  *string // VIIRS
	SourceAPI  string
}

// DetectionSet is a batch of detections plus the union of source CSV columns,
// tracked so downstream stages can tell an absent column from an empty value.
type DetectionSet struct {
	Columns    []string
	Detections []Detection
}

// Empty reports whether the set holds no detections.
func (s DetectionSet) Empty() bool {
	return len(s.Detections) == 0
}

// HasColumn reports whether the named column was present in any source feed.
func (s DetectionSet) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// keyField returns the detection's value for a business-key column name.
func (d Detection) keyField(column string) string {
	switch column {
	case "latitude":
		return d.Latitude
	case "longitude":
		return d.Longitude
	case "acq_date":
		return d.AcqDate
	case "acq_time":
		return d.AcqTime
	case "satellite":
		return d.Satellite
	case "instrument":
		return d.Instrument
	}
	return ""
}

// Key builds the deduplication key over the given business-key columns.
func (d Detection) Key(columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = d.keyField(c)
	}
	return strings.Join(parts, "|")
}

// PadAcqTime zero-pads an HHMM time string to four digits ("930" -> "0930").
func PadAcqTime(t string) string {
	t = strings.TrimSpace(t)
	for len(t) < 4 {
		t = "0" + t
	}
	return t
}

// AcquiredAt combines acq_date and HHMM acq_time into a UTC timestamp.
func AcquiredAt(acqDate, acqTime string) (time.Time, error) {
	padded := PadAcqTime(acqTime)
	ts, err := time.Parse("2006-01-02 1504", acqDate+" "+padded)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse acquisition time %q %q: %w", acqDate, acqTime, err)
	}
	return ts.UTC(), nil
}

// LocalDatetime formats acq_date + acq_time for the weather timeline API.
func LocalDatetime(acqDate, acqTime string) string {
	padded := PadAcqTime(acqTime)
	return fmt.Sprintf("%sT%s:%s:00", acqDate, padded[0:2], padded[2:4])
}

// ObservationDatetime formats acq_date + acq_time as the staging datetime column.
func ObservationDatetime(acqDate, acqTime string) string {
	padded := PadAcqTime(acqTime)
	return fmt.Sprintf("%s %s:%s:00", acqDate, padded[0:2], padded[2:4])
}
