package domain

import "context"

// AdminArea is the four-level administrative resolution of a coordinate.
type AdminArea struct {
	ProvinceCode    string `json:"province_code"`
	ProvinceName    string `json:"province_name"`
	CityCode        string `json:"city_code"`
	CityName        string `json:"city_name"`
	DistrictCode    string `json:"district_code"`
	DistrictName    string `json:"district_name"`
	SubdistrictCode string `json:"subdistrict_code"`
	SubdistrictName string `json:"subdistrict_name"`
}

// Geocoder resolves coordinates to administrative areas.
// ok=false signals a coordinate that does not resolve to a valid area
// (outside the country of interest); this is not an error.
type Geocoder interface {
	ResolveLocation(ctx context.Context, lon, lat string) (area AdminArea, ok bool, err error)
}

// WeatherProvider resolves historical weather for a coordinate and local datetime.
// ok=false signals no conditions available for that point in time.
type WeatherProvider interface {
	ResolveWeather(ctx context.Context, lon, lat, localDatetime string) (obs WeatherObservation, ok bool, err error)
}
