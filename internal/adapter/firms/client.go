// Package firms pulls active-fire detections from the NASA FIRMS area API.
package firms

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
)

// indonesiaBBox bounds the area query to the Indonesian archipelago
// (west,south,east,north).
const indonesiaBBox = "95,-11,141,6"

// Client fetches detection CSVs from FIRMS, metering requests against the
// API's transaction quota.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rateLimiter
	logger     *slog.Logger
}

// NewClient creates a FIRMS client. rateLimit requests are allowed per window;
// further requests block until the window rolls over.
func NewClient(apiKey, baseURL string, timeout time.Duration, rateLimit int, window time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: newRateLimiter(rateLimit, window),
		logger:  logger,
	}
}

// FetchDetections pulls one source product for the window. startDate is empty
// for a window ending today, or "YYYY-MM-DD" for a historical window.
func (c *Client) FetchDetections(ctx context.Context, source string, dayRange int, startDate string) (domain.DetectionSet, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return domain.DetectionSet{}, err
	}

	u := fmt.Sprintf("%s/area/csv/%s/%s/%s/%d", c.baseURL, c.apiKey, source, indonesiaBBox, dayRange)
	if startDate != "" {
		u += "/" + startDate
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.DetectionSet{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.DetectionSet{}, fmt.Errorf("firms request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.DetectionSet{}, fmt.Errorf("read firms response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.DetectionSet{}, fmt.Errorf("firms API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	set, err := parseDetectionCSV(string(body), source)
	if err != nil {
		return domain.DetectionSet{}, fmt.Errorf("source %s: %w", source, err)
	}
	return set, nil
}

// parseDetectionCSV decodes a FIRMS CSV payload. FIRMS reports quota and key
// errors as a 200 with a plain-text message, so anything without a detection
// header is treated as an API error.
func parseDetectionCSV(body, source string) (domain.DetectionSet, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || strings.EqualFold(trimmed, "No data found") {
		return domain.DetectionSet{}, nil
	}

	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return domain.DetectionSet{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return domain.DetectionSet{}, nil
	}

	columns := make([]string, len(records[0]))
	for i, c := range records[0] {
		columns[i] = strings.ToLower(strings.TrimSpace(c))
	}
	if !containsColumn(columns, "latitude") || !containsColumn(columns, "longitude") {
		return domain.DetectionSet{}, fmt.Errorf("firms API error: %s", firstLine(trimmed))
	}

	detections := make([]domain.Detection, 0, len(records)-1)
	for _, record := range records[1:] {
		d := domain.Detection{SourceAPI: source}
		for i, col := range columns {
			if i >= len(record) {
				break
			}
			setField(&d, col, record[i])
		}
		detections = append(detections, d)
	}

	return domain.DetectionSet{Columns: columns, Detections: detections}, nil
}

func setField(d *domain.Detection, column, value string) {
	switch column {
	case "country_id":
		d.CountryID = &value
	case "latitude":
		d.Latitude = value
	case "longitude":
		d.Longitude = value
	case "acq_date":
		d.AcqDate = value
	case "acq_time":
		d.AcqTime = value
	case "satellite":
		d.Satellite = value
	case "instrument":
		d.Instrument = value
	case "confidence":
		d.Confidence = value
	case "version":
		d.Version = value
	case "frp":
		d.FRP = value
	case "daynight":
		d.DayNight = value
	case "brightness":
		d.Brightness = &value
	case "bright_t31":
		d.BrightT31 = &value
	case "scan":
		d.Scan = &value
	case "track":
		d.Track = &value
	case "bright_ti4":
		d.BrightTI4 = &value
	case "bright_ti5":
		d.BrightTI5 = &value
	}
}

func containsColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
