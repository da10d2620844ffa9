package warehouse

import "strconv"

// PeriodRow is one calendar date in dim_period.
type PeriodRow struct {
	ID        string
	DateValue string
	Year      int
	Semester  int
	Quarter   int
	Month     int
	MonthName string
	Week      int
}

func (r PeriodRow) Record() []string {
	return []string{
		r.ID, r.DateValue,
		strconv.Itoa(r.Year), strconv.Itoa(r.Semester), strconv.Itoa(r.Quarter),
		strconv.Itoa(r.Month), r.MonthName, strconv.Itoa(r.Week),
	}
}

// LocationRow is one geocoded coordinate in dim_location. Coordinates stay in
// their original string form so joins against staging are exact.
type LocationRow struct {
	ID              string
	Latitude        string
	Longitude       string
	ProvinceCode    string
	ProvinceName    string
	CityCode        string
	CityName        string
	DistrictCode    string
	DistrictName    string
	SubdistrictCode string
	SubdistrictName string
}

func (r LocationRow) Record() []string {
	return []string{
		r.ID, r.Latitude, r.Longitude,
		r.ProvinceCode, r.ProvinceName,
		r.CityCode, r.CityName,
		r.DistrictCode, r.DistrictName,
		r.SubdistrictCode, r.SubdistrictName,
	}
}

// SatelliteRow is one satellite/instrument pairing in dim_satellite.
type SatelliteRow struct {
	ID                      string
	Satellite               string
	Instrument              string
	SpatialResolutionM      int
	TemporalResolutionHours int
	Description             string
}

func (r SatelliteRow) Record() []string {
	return []string{
		r.ID, r.Satellite, r.Instrument,
		strconv.Itoa(r.SpatialResolutionM),
		strconv.Itoa(r.TemporalResolutionHours),
		r.Description,
	}
}

// ConfidenceRow is one raw-value/instrument classification in dim_confidence.
type ConfidenceRow struct {
	ID          string
	RawValue    string
	Instrument  string
	Class       string
	Score       int
	Description string
}

func (r ConfidenceRow) Record() []string {
	return []string{
		r.ID, r.RawValue, r.Instrument, r.Class,
		strconv.Itoa(r.Score), r.Description,
	}
}

// WeatherConditionRow is one conditions/icon pairing in dim_weather_condition.
type WeatherConditionRow struct {
	ID         string
	Conditions string
	Icon       string
}

func (r WeatherConditionRow) Record() []string {
	return []string{r.ID, r.Conditions, r.Icon}
}

// FactHotspotRow is one detection with every dimension key resolved.
type FactHotspotRow struct {
	ID           string
	SatelliteID  string
	ConfidenceID string
	PeriodID     string
	LocationID   string
	AcquiredAt   string
	FRP          string
	Brightness   string
	BrightT31    string
	BrightTI4    string
	BrightTI5    string
	Latitude     string
	Longitude    string
	Scan         string
	Track        string
}

func (r FactHotspotRow) Record() []string {
	return []string{
		r.ID, r.SatelliteID, r.ConfidenceID, r.PeriodID, r.LocationID,
		r.AcquiredAt, r.FRP, r.Brightness, r.BrightT31,
		r.BrightTI4, r.BrightTI5, r.Latitude, r.Longitude,
		r.Scan, r.Track,
	}
}

// FactWeatherRow is one weather observation with dimension keys resolved.
type FactWeatherRow struct {
	ID                 string
	PeriodID           string
	LocationID         string
	WeatherConditionID string
	AcquiredAt         string
	Temperature        string
	Humidity           string
	WindSpeed          string
	WindDegree         string
	Visibility         string
	CloudCoverage      string
	Latitude           string
	Longitude          string
	Pressure           string
	UVIndex            string
	Precipitation      string
	SolarRadiation     string
}

func (r FactWeatherRow) Record() []string {
	return []string{
		r.ID, r.PeriodID, r.LocationID, r.WeatherConditionID,
		r.AcquiredAt, r.Temperature, r.Humidity, r.WindSpeed,
		r.WindDegree, r.Visibility, r.CloudCoverage,
		r.Latitude, r.Longitude, r.Pressure, r.UVIndex,
		r.Precipitation, r.SolarRadiation,
	}
}

// StagingHotspotRow is one staged detection read back during transformation.
type StagingHotspotRow struct {
	BatchID    string
	IngestedAt string
	CountryID  string
	Latitude   string
	Longitude  string
	AcqDate    string
	AcqTime    string
	Satellite  string
	Instrument string
	Confidence string
	Version    string
	FRP        string
	DayNight   string
	Brightness string
	BrightT31  string
	Scan       string
	Track      string
	BrightTI4  string
	BrightTI5  string
}

// StagingWeatherRow is one staged weather observation read back during
// transformation.
type StagingWeatherRow struct {
	BatchID        string
	IngestedAt     string
	Latitude       string
	Longitude      string
	Datetime       string
	Temperature    string
	FeelsLike      string
	Humidity       string
	Precipitation  string
	PrecipProb     string
	WindSpeed      string
	WindDegree     string
	WindGust       string
	Pressure       string
	Visibility     string
	CloudCoverage  string
	SolarRadiation string
	SolarEnergy    string
	UVIndex        string
	SevereRisk     string
	Conditions     string
	Icon           string
}
