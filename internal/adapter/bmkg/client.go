// Package bmkg resolves coordinates to Indonesian administrative areas using
// the BMKG public weather API's location lookup.
package bmkg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
)

// undefinedArea is BMKG's sentinel for a coordinate with no village-level
// resolution, which marks a point outside Indonesian administration.
const undefinedArea = "Area Tidak Terdefinisi"

// Client implements domain.Geocoder against the BMKG location endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// locationResponse is the four-level administrative payload. The adm fields
// are dotted area codes, the named fields their labels.
type locationResponse struct {
	Lokasi struct {
		Adm1      string `json:"adm1"`
		Adm2      string `json:"adm2"`
		Adm3      string `json:"adm3"`
		Adm4      string `json:"adm4"`
		Provinsi  string `json:"provinsi"`
		Kotkab    string `json:"kotkab"`
		Kecamatan string `json:"kecamatan"`
		Desa      string `json:"desa"`
	} `json:"lokasi"`
}

// ResolveLocation resolves a coordinate. ok=false means BMKG answered but the
// point has no defined administrative area, i.e. it is not in Indonesia.
func (c *Client) ResolveLocation(ctx context.Context, lon, lat string) (domain.AdminArea, bool, error) {
	params := url.Values{
		"lon": {lon},
		"lat": {lat},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.AdminArea{}, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AdminArea{}, false, fmt.Errorf("bmkg request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.AdminArea{}, false, fmt.Errorf("read bmkg response: %w", err)
	}
	// BMKG answers coordinates outside its coverage with a client error.
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return domain.AdminArea{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return domain.AdminArea{}, false, fmt.Errorf("bmkg API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload locationResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.AdminArea{}, false, fmt.Errorf("decode bmkg response: %w", err)
	}

	loc := payload.Lokasi
	if loc.Kecamatan == "" || loc.Desa == undefinedArea {
		return domain.AdminArea{}, false, nil
	}

	return domain.AdminArea{
		ProvinceCode:    loc.Adm1,
		ProvinceName:    loc.Provinsi,
		CityCode:        loc.Adm2,
		CityName:        loc.Kotkab,
		DistrictCode:    loc.Adm3,
		DistrictName:    loc.Kecamatan,
		SubdistrictCode: loc.Adm4,
		SubdistrictName: loc.Desa,
	}, true, nil
}
