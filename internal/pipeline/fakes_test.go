package pipeline_test

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
	"github.com/zsbahtiar/hotspot-etl/internal/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

var errUpstream = fmt.Errorf("upstream unavailable")

// fakeFetcher serves a scripted detection set per source.
type fakeFetcher struct {
	mu      sync.Mutex
	sets    map[string]domain.DetectionSet
	errs    map[string]error
	fetched []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{sets: map[string]domain.DetectionSet{}, errs: map[string]error{}}
}

func (f *fakeFetcher) FetchDetections(_ context.Context, source string, _ int, _ string) (domain.DetectionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, source)
	if err, ok := f.errs[source]; ok {
		return domain.DetectionSet{}, err
	}
	return f.sets[source], nil
}

// fakeGeocoder resolves scripted coordinates; everything else is rejected.
type fakeGeocoder struct {
	mu    sync.Mutex
	areas map[string]domain.AdminArea
	err   error
	calls int
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{areas: map[string]domain.AdminArea{}}
}

func (g *fakeGeocoder) resolve(lat, lon string, area domain.AdminArea) {
	g.areas[lat+","+lon] = area
}

func (g *fakeGeocoder) ResolveLocation(_ context.Context, lon, lat string) (domain.AdminArea, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return domain.AdminArea{}, false, g.err
	}
	area, ok := g.areas[lat+","+lon]
	return area, ok, nil
}

// fakeWeather serves one fixed observation for every coordinate.
type fakeWeather struct {
	mu    sync.Mutex
	obs   domain.WeatherObservation
	ok    bool
	err   error
	calls int
}

func (w *fakeWeather) ResolveWeather(_ context.Context, _, _, _ string) (domain.WeatherObservation, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return domain.WeatherObservation{}, false, w.err
	}
	return w.obs, w.ok, nil
}

// memCache is a map-backed cache; TTLs are recorded but never expire.
type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

// fakeStore mirrors the warehouse test double: scripted prefix responses,
// recorded statements and inserts.
type fakeStore struct {
	mu        sync.Mutex
	queries   []string
	inserts   map[string][][]string
	responses map[string]string
	errors    map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		inserts:   map[string][][]string{},
		responses: map[string]string{},
		errors:    map[string]error{},
	}
}

func (s *fakeStore) respond(queryPrefix, result string) {
	s.responses[queryPrefix] = result
}

func (s *fakeStore) fail(queryPrefix string, err error) {
	s.errors[queryPrefix] = err
}

func (s *fakeStore) ExecuteQuery(_ context.Context, query string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	for prefix, err := range s.errors {
		if strings.HasPrefix(query, prefix) {
			return "", err
		}
	}
	for prefix, result := range s.responses {
		if strings.HasPrefix(query, prefix) {
			return result, nil
		}
	}
	return "", nil
}

func (s *fakeStore) BulkInsert(_ context.Context, table string, _ []string, _ bool, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errors["INSERT "+table]; ok {
		return err
	}
	s.inserts[table] = append(s.inserts[table], rows...)
	return nil
}

func (s *fakeStore) rowsFor(table string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts[table]
}

// fakePublisher records run summaries.
type fakePublisher struct {
	mu        sync.Mutex
	summaries []pipeline.RunSummary
	err       error
}

func (p *fakePublisher) PublishRun(_ context.Context, summary pipeline.RunSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.summaries = append(p.summaries, summary)
	return nil
}

func (p *fakePublisher) published() []pipeline.RunSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pipeline.RunSummary(nil), p.summaries...)
}

func detection(lat, lon, date, tm, sat, instr, conf string) domain.Detection {
	return domain.Detection{
		Latitude:   lat,
		Longitude:  lon,
		AcqDate:    date,
		AcqTime:    tm,
		Satellite:  sat,
		Instrument: instr,
		Confidence: conf,
		Version:    "6.03",
		FRP:        "12.5",
		DayNight:   "D",
		SourceAPI:  "MODIS_NRT",
	}
}

var allColumns = []string{
	"country_id", "latitude", "longitude", "acq_date", "acq_time",
	"satellite", "instrument", "confidence", "version", "frp", "daynight",
}
