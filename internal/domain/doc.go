// Package domain models NASA FIRMS wildfire hotspot detections for Indonesia
// and the rules that turn them into a dimensional schema.
//
// # Data Source
//
// Detections come from the NASA FIRMS area API as CSV, one product per
// request (MODIS and VIIRS near-real-time and standard-processing feeds).
// Column sets differ by instrument: MODIS rows carry brightness and
// bright_t31, VIIRS rows carry bright_ti4 and bright_ti5. All values are kept
// as strings end to end so the sensor-reported latitude/longitude precision
// survives staging; the analytical store applies types on ingest.
//
// # Business Key
//
// A physical detection is identified by
// (latitude, longitude, acq_date, acq_time, satellite, instrument).
// acq_time is local sensor time in HHMM 24-hour notation, zero-padded to four
// digits; combined with acq_date it yields the acquisition timestamp, which
// the pipeline interprets as UTC.
//
// # Confidence Classification
//
// The raw confidence format varies by instrument and is bucketed into
// HIGH / NOMINAL / LOW (UNKNOWN for unrecognized instruments):
//
//	MODIS: numeric 0-100. >=80 HIGH, >=30 NOMINAL, else LOW
//	       (non-numeric values fall through to LOW).
//	VIIRS: categorical token. h/high HIGH, n/nominal NOMINAL, else LOW.
//
// The same rules drive the numeric projection (VIIRS h=85, n=50, else 15)
// and the 0-1 score used by the confidence dimension.
//
// # Administrative Locations
//
// Coordinates resolve through the BMKG geocoding API to four administrative
// levels (province, city/regency, district, subdistrict), each a code+name
// pair. A null kecamatan (district) or a desa (subdistrict) of
// "Area Tidak Terdefinisi" marks a coordinate outside Indonesia; such
// detections are dropped from the pipeline, never null-keyed.
//
// # Calendar Periods
//
// One dim_period row per distinct acquisition date, with year, semester
// (Jan-Jun = 1, Jul-Dec = 2), quarter, month, English month name, and ISO
// week derived deterministically from the date.
package domain
