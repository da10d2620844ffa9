package warehouse

import (
	"context"
	"log/slog"
)

// Verdict summarizes how much of the warehouse a run left populated.
type Verdict string

const (
	VerdictSuccess Verdict = "SUCCESS"
	VerdictPartial Verdict = "PARTIAL"
	VerdictFailed  Verdict = "FAILED"
)

// QualityReport is the result of the post-load table census.
type QualityReport struct {
	Verdict Verdict
	Counts  map[string]int
}

// CheckQuality counts every warehouse table and grades the run by how many
// are populated. A count that fails or comes back zero marks the table
// unpopulated rather than failing the check.
func CheckQuality(ctx context.Context, loader *Loader, logger *slog.Logger) QualityReport {
	counts := make(map[string]int, len(QualityTables))
	populated := 0
	for _, table := range QualityTables {
		count, err := loader.TableCount(ctx, table)
		if err != nil {
			logger.Warn("quality check count failed", "table", table, "error", err)
			counts[table] = 0
			continue
		}
		counts[table] = count
		if count > 0 {
			populated++
		}
	}

	verdict := VerdictFailed
	switch {
	case populated >= 8:
		verdict = VerdictSuccess
	case populated >= 5:
		verdict = VerdictPartial
	}

	logger.Info("quality check complete",
		"verdict", verdict, "populated", populated, "tables", len(QualityTables))
	return QualityReport{Verdict: verdict, Counts: counts}
}
