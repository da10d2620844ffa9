// Package visualcrossing fetches historical weather from the Visual Crossing
// timeline API, one coordinate and local datetime at a time.
package visualcrossing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
)

// Client implements domain.WeatherProvider against the timeline API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type timelineResponse struct {
	CurrentConditions *currentConditions `json:"currentConditions"`
}

type currentConditions struct {
	Datetime       string  `json:"datetime"`
	Temp           float64 `json:"temp"`
	FeelsLike      float64 `json:"feelslike"`
	Humidity       float64 `json:"humidity"`
	Precip         float64 `json:"precip"`
	PrecipProb     float64 `json:"precipprob"`
	WindSpeed      float64 `json:"windspeed"`
	WindDir        float64 `json:"winddir"`
	WindGust       float64 `json:"windgust"`
	Pressure       float64 `json:"pressure"`
	Visibility     float64 `json:"visibility"`
	CloudCover     float64 `json:"cloudcover"`
	SolarRadiation float64 `json:"solarradiation"`
	SolarEnergy    float64 `json:"solarenergy"`
	UVIndex        float64 `json:"uvindex"`
	SevereRisk     float64 `json:"severerisk"`
	Conditions     string  `json:"conditions"`
	Icon           string  `json:"icon"`
}

// ResolveWeather fetches the conditions nearest to the local acquisition
// datetime ("YYYY-MM-DDTHH:MM:SS"). ok=false means the API answered without
// conditions for that point in time.
func (c *Client) ResolveWeather(ctx context.Context, lon, lat, localDatetime string) (domain.WeatherObservation, bool, error) {
	u := fmt.Sprintf("%s/%s,%s/%s", c.baseURL, lat, lon, localDatetime)
	params := url.Values{
		"key":       {c.apiKey},
		"unitGroup": {"metric"},
		"include":   {"current"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherObservation{}, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherObservation{}, false, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WeatherObservation{}, false, fmt.Errorf("read weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.WeatherObservation{}, false, fmt.Errorf("visual crossing API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload timelineResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.WeatherObservation{}, false, fmt.Errorf("decode weather response: %w", err)
	}
	if payload.CurrentConditions == nil {
		return domain.WeatherObservation{}, false, nil
	}

	cc := payload.CurrentConditions
	return domain.WeatherObservation{
		Latitude:       lat,
		Longitude:      lon,
		Datetime:       cc.Datetime,
		Conditions:     cc.Conditions,
		Icon:           cc.Icon,
		Temperature:    roundInt(cc.Temp),
		FeelsLike:      cc.FeelsLike,
		Humidity:       cc.Humidity,
		Precipitation:  cc.Precip,
		PrecipProb:     roundInt(cc.PrecipProb),
		WindSpeed:      cc.WindSpeed,
		WindDegree:     cc.WindDir,
		WindGust:       cc.WindGust,
		Pressure:       roundInt(cc.Pressure),
		Visibility:     roundInt(cc.Visibility),
		CloudCoverage:  roundInt(cc.CloudCover),
		SolarRadiation: cc.SolarRadiation,
		SolarEnergy:    cc.SolarEnergy,
		UVIndex:        roundInt(cc.UVIndex),
		SevereRisk:     roundInt(cc.SevereRisk),
	}, true, nil
}

func roundInt(f float64) int {
	return int(math.Round(f))
}
