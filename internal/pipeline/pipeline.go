package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
	"github.com/zsbahtiar/hotspot-etl/internal/observability"
	"github.com/zsbahtiar/hotspot-etl/internal/warehouse"
)

// EventPublisher emits a run summary after each pipeline run. A nil publisher
// disables run events.
type EventPublisher interface {
	PublishRun(ctx context.Context, summary RunSummary) error
}

// RunSummary describes one completed pipeline run.
type RunSummary struct {
	BatchID      string         `json:"batch_id"`
	Status       string         `json:"status"`
	Verdict      string         `json:"verdict,omitempty"`
	Detections   int            `json:"detections"`
	StagedRows   int            `json:"staged_rows"`
	WeatherRows  int            `json:"weather_rows"`
	FactHotspots int            `json:"fact_hotspots"`
	FactWeather  int            `json:"fact_weather"`
	TableCounts  map[string]int `json:"table_counts,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
}

// Pipeline orchestrates one acquisition cycle: fetch and normalize the source
// feeds, geocode and weather-enrich, stage, then transform the staged batch
// into the dimensional model.
type Pipeline struct {
	normalizer *Normalizer
	enricher   *Enricher
	staging    *StagingWriter
	store      warehouse.Store
	loader     *warehouse.Loader
	publisher  EventPublisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	interval   time.Duration
	ready      atomic.Bool
}

func New(normalizer *Normalizer, enricher *Enricher, staging *StagingWriter, store warehouse.Store, loader *warehouse.Loader, publisher EventPublisher, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		enricher:   enricher,
		staging:    staging,
		store:      store,
		loader:     loader,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
		interval:   interval,
	}
}

// CheckReadiness returns nil once at least one run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no pipeline run has completed yet")
	}
	return nil
}

// Run executes acquisition cycles on the configured interval until the
// context is cancelled. A failed run is logged and the next cycle proceeds.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for {
		summary, err := p.RunOnce(ctx, 1, "")
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("pipeline run failed", "error", err)
		} else {
			p.logger.Info("pipeline run complete",
				"batch_id", summary.BatchID, "status", summary.Status, "verdict", summary.Verdict)
		}

		if !sleepWithContext(ctx, p.interval) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce executes a single acquisition cycle over the given FIRMS window.
// startDate is empty for a rolling window ending today.
func (p *Pipeline) RunOnce(ctx context.Context, dayRange int, startDate string) (RunSummary, error) {
	start := domain.Now()
	resolver := warehouse.NewResolver(p.store, p.logger)

	batch := domain.BatchMetadata{
		BatchID:    resolver.MintID(),
		IngestedAt: start,
		Status:     domain.BatchStatusExtracted,
	}
	summary := RunSummary{BatchID: batch.BatchID, StartedAt: start}
	p.logger.Info("run started",
		"batch_id", batch.BatchID, "day_range", dayRange, "start_date", startDate)

	defer func() {
		p.metrics.RunDuration.Observe(domain.Now().Sub(start).Seconds())
	}()

	set, err := p.normalizer.Normalize(ctx, dayRange, startDate)
	if err != nil {
		p.failRun(ctx, &summary)
		return summary, fmt.Errorf("normalize: %w", err)
	}
	summary.Detections = len(set.Detections)
	if set.Empty() {
		p.logger.Info("no detections in window", "batch_id", batch.BatchID)
		p.noDataRun(ctx, &summary)
		return summary, nil
	}

	resolver.Preload(ctx)

	enriched, err := p.enricher.Enrich(ctx, set, resolver)
	if err != nil {
		p.failRun(ctx, &summary)
		return summary, fmt.Errorf("enrich: %w", err)
	}

	// Locations load before staging so the transform phase can already
	// resolve every surviving coordinate.
	if _, err := p.loader.LoadDimension(ctx, warehouse.DimLocationTable, warehouse.LocationRecords(enriched.Locations)); err != nil {
		p.failRun(ctx, &summary)
		return summary, err
	}

	if enriched.Detections.Empty() {
		p.logger.Info("no detections inside coverage", "batch_id", batch.BatchID)
		p.noDataRun(ctx, &summary)
		return summary, nil
	}

	staged, err := p.staging.StageDetections(ctx, batch, enriched.Detections)
	if err != nil {
		p.failRun(ctx, &summary)
		return summary, err
	}
	summary.StagedRows = staged

	weatherStaged, err := p.staging.StageWeather(ctx, batch, enriched.Weather)
	if err != nil {
		p.failRun(ctx, &summary)
		return summary, err
	}
	summary.WeatherRows = weatherStaged
	batch.Status = domain.BatchStatusStaged
	summary.Status = batch.Status

	if err := p.transform(ctx, batch, resolver, &summary); err != nil {
		p.failRun(ctx, &summary)
		return summary, err
	}
	summary.Status = domain.BatchStatusLoaded

	report := warehouse.CheckQuality(ctx, p.loader, p.logger)
	summary.Verdict = string(report.Verdict)
	summary.TableCounts = report.Counts
	p.metrics.RunsTotal.WithLabelValues(summary.Verdict).Inc()

	p.ready.Store(true)
	p.finishRun(ctx, &summary)
	return summary, nil
}

// transform reads the staged batch back and rebuilds dimensions and facts.
func (p *Pipeline) transform(ctx context.Context, batch domain.BatchMetadata, resolver *warehouse.Resolver, summary *RunSummary) error {
	hotspots, err := p.loader.ReadStagingHotspots(ctx, batch.BatchID)
	if err != nil {
		return err
	}
	weather, err := p.loader.ReadStagingWeather(ctx, batch.BatchID)
	if err != nil {
		return err
	}

	dims, err := warehouse.BuildDimensions(hotspots, weather, resolver)
	if err != nil {
		return err
	}
	if _, err := p.loader.LoadDimensions(ctx, dims); err != nil {
		return err
	}

	builder := warehouse.NewFactBuilder(p.store, resolver, p.logger, p.metrics)

	hotspotFacts, err := builder.BuildHotspotFacts(ctx, hotspots)
	if err != nil {
		return err
	}
	summary.FactHotspots = len(hotspotFacts)
	for date, records := range groupHotspotFactsByDate(hotspotFacts) {
		if _, err := p.loader.LoadFactPartition(ctx, warehouse.FactHotspotTable, date, records); err != nil {
			return err
		}
	}

	weatherFacts, err := builder.BuildWeatherFacts(ctx, weather)
	if err != nil {
		return err
	}
	summary.FactWeather = len(weatherFacts)
	for date, records := range groupWeatherFactsByDate(weatherFacts) {
		if _, err := p.loader.LoadFactPartition(ctx, warehouse.FactWeatherTable, date, records); err != nil {
			return err
		}
	}
	return nil
}

// failRun marks the summary failed, counts the run and emits the event.
func (p *Pipeline) failRun(ctx context.Context, summary *RunSummary) {
	summary.Status = domain.BatchStatusFailed
	p.metrics.RunsTotal.WithLabelValues("ERROR").Inc()
	p.finishRun(ctx, summary)
}

// noDataRun closes out a run whose window produced nothing to load.
func (p *Pipeline) noDataRun(ctx context.Context, summary *RunSummary) {
	summary.Status = domain.BatchStatusNoData
	p.metrics.RunsTotal.WithLabelValues("NO_DATA").Inc()
	p.finishRun(ctx, summary)
}

// finishRun emits the run event. Publishing is best-effort: a broker outage
// never fails a run that already loaded.
func (p *Pipeline) finishRun(ctx context.Context, summary *RunSummary) {
	summary.FinishedAt = domain.Now()
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishRun(context.WithoutCancel(ctx), *summary); err != nil {
		p.logger.Warn("failed to publish run event",
			"batch_id", summary.BatchID, "error", err)
	}
}

func groupHotspotFactsByDate(facts []warehouse.FactHotspotRow) map[string][][]string {
	out := map[string][][]string{}
	for _, f := range facts {
		date := factDate(f.AcquiredAt)
		out[date] = append(out[date], f.Record())
	}
	return out
}

func groupWeatherFactsByDate(facts []warehouse.FactWeatherRow) map[string][][]string {
	out := map[string][][]string{}
	for _, f := range facts {
		date := factDate(f.AcquiredAt)
		out[date] = append(out[date], f.Record())
	}
	return out
}

func factDate(acquiredAt string) string {
	if len(acquiredAt) >= len("2006-01-02") {
		return acquiredAt[:len("2006-01-02")]
	}
	return acquiredAt
}

// sleepWithContext sleeps for d or until the context is cancelled. Returns
// false if the context ended first.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
