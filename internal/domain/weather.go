package domain

// WeatherObservation is one weather reading co-located with a detection.
// Latitude/longitude stay text so they join exactly against detections.
type WeatherObservation struct {
	Latitude       string  `json:"latitude"`
	Longitude      string  `json:"longitude"`
	Datetime       string  `json:"datetime"` // "YYYY-MM-DD HH:MM:SS" local acquisition time
	Conditions     string  `json:"conditions"`
	Icon           string  `json:"icon"`
	Temperature    int     `json:"temperature"`
	FeelsLike      float64 `json:"feels_like"`
	Humidity       float64 `json:"humidity"`
	Precipitation  float64 `json:"precipitation"`
	PrecipProb     int     `json:"precip_prob"`
	WindSpeed      float64 `json:"wind_speed"`
	WindDegree     float64 `json:"wind_degree"`
	WindGust       float64 `json:"wind_gust"`
	Pressure       int     `json:"pressure"`
	Visibility     int     `json:"visibility"`
	CloudCoverage  int     `json:"cloud_coverage"`
	SolarRadiation float64 `json:"solar_radiation"`
	SolarEnergy    float64 `json:"solar_energy"`
	UVIndex        int     `json:"uv_index"`
	SevereRisk     int     `json:"severe_risk"`
}
