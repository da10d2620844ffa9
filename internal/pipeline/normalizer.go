package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
	"github.com/zsbahtiar/hotspot-etl/internal/observability"
)

// DetectionFetcher pulls raw detections for one satellite product. startDate
// is empty for a rolling "last dayRange days" fetch.
type DetectionFetcher interface {
	FetchDetections(ctx context.Context, source string, dayRange int, startDate string) (domain.DetectionSet, error)
}

// Normalizer fetches every configured source feed, merges the results into
// one detection set, and deduplicates on the business key. A failing source
// is logged and skipped; the run only fails when no source yields data.
type Normalizer struct {
	fetcher DetectionFetcher
	sources []string
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewNormalizer(fetcher DetectionFetcher, sources []string, logger *slog.Logger, metrics *observability.Metrics) *Normalizer {
	return &Normalizer{fetcher: fetcher, sources: sources, logger: logger, metrics: metrics}
}

// Normalize fetches and merges all sources for the window, then deduplicates.
func (n *Normalizer) Normalize(ctx context.Context, dayRange int, startDate string) (domain.DetectionSet, error) {
	var merged domain.DetectionSet
	failures := 0

	for _, source := range n.sources {
		set, err := n.fetcher.FetchDetections(ctx, source, dayRange, startDate)
		if err != nil {
			if ctx.Err() != nil {
				return domain.DetectionSet{}, ctx.Err()
			}
			failures++
			n.logger.Warn("source fetch failed, skipping", "source", source, "error", err)
			continue
		}
		n.metrics.DetectionsFetched.WithLabelValues(source).Add(float64(len(set.Detections)))
		n.logger.Info("source fetched", "source", source, "detections", len(set.Detections))
		merged = mergeSets(merged, set)
	}

	if failures == len(n.sources) && len(n.sources) > 0 {
		return domain.DetectionSet{}, errors.New("all detection sources failed")
	}

	return n.deduplicate(n.filterWindow(merged, dayRange, startDate)), nil
}

// filterWindow drops detections acquired outside the requested window. The
// upstream feeds occasionally return rows bleeding past the requested day
// range; only the dates this run asked for may reach staging.
func (n *Normalizer) filterWindow(set domain.DetectionSet, dayRange int, startDate string) domain.DetectionSet {
	if set.Empty() || dayRange <= 0 {
		return set
	}

	start := domain.Now().UTC().AddDate(0, 0, -(dayRange - 1))
	if startDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", startDate, time.UTC)
		if err != nil {
			n.logger.Warn("unparseable window start, keeping all rows",
				"start_date", startDate, "error", err)
			return set
		}
		start = parsed
	}
	allowed := make(map[string]bool, dayRange)
	for i := 0; i < dayRange; i++ {
		allowed[start.AddDate(0, 0, i).Format("2006-01-02")] = true
	}

	kept := make([]domain.Detection, 0, len(set.Detections))
	for _, d := range set.Detections {
		if !allowed[d.AcqDate] {
			n.metrics.RowsRejected.WithLabelValues("normalize").Inc()
			continue
		}
		kept = append(kept, d)
	}
	if dropped := len(set.Detections) - len(kept); dropped > 0 {
		n.logger.Info("detections outside acquisition window removed",
			"dropped", dropped, "kept", len(kept))
	}
	return domain.DetectionSet{Columns: set.Columns, Detections: kept}
}

// deduplicate keeps the first detection seen for each business key. When the
// merged feeds carry fewer than four of the six key columns the key is too
// weak to trust, so the set passes through unchanged.
func (n *Normalizer) deduplicate(set domain.DetectionSet) domain.DetectionSet {
	if set.Empty() {
		return set
	}

	keyCols := make([]string, 0, len(domain.KeyColumns))
	for _, col := range domain.KeyColumns {
		if set.HasColumn(col) {
			keyCols = append(keyCols, col)
		}
	}
	if len(keyCols) < 4 {
		n.logger.Warn("too few key columns for deduplication, keeping all rows",
			"present", len(keyCols), "required", 4)
		return set
	}

	seen := make(map[string]bool, len(set.Detections))
	kept := make([]domain.Detection, 0, len(set.Detections))
	for _, d := range set.Detections {
		key := d.Key(keyCols)
		if seen[key] {
			n.metrics.RowsRejected.WithLabelValues("normalize").Inc()
			continue
		}
		seen[key] = true
		kept = append(kept, d)
	}

	if dropped := len(set.Detections) - len(kept); dropped > 0 {
		n.logger.Info("duplicate detections removed", "dropped", dropped, "kept", len(kept))
	}
	return domain.DetectionSet{Columns: set.Columns, Detections: kept}
}

func mergeSets(a, b domain.DetectionSet) domain.DetectionSet {
	columns := append([]string(nil), a.Columns...)
	for _, c := range b.Columns {
		if !contains(columns, c) {
			columns = append(columns, c)
		}
	}
	return domain.DetectionSet{
		Columns:    columns,
		Detections: append(append([]domain.Detection(nil), a.Detections...), b.Detections...),
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
