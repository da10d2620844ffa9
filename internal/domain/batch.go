package domain

import (
	"context"
	"time"
)

// Batch lifecycle statuses.
const (
	BatchStatusExtracted = "extracted"
	BatchStatusStaged    = "staged"
	BatchStatusLoaded    = "hotspot_loaded"
	BatchStatusNoData    = "no_data"
	BatchStatusFailed    = "failed"
)

// BatchMetadata identifies one extraction run. Every staged row carries the
// batch ID so the transform phase can select exactly this run's data.
type BatchMetadata struct {
	BatchID    string    `json:"batch_id"`
	IngestedAt time.Time `json:"ingested_at"`
	Status     string    `json:"status"`
}

// IngestedAtValue formats the ingestion timestamp for staging columns
// (millisecond precision, matching the staging DateTime64(3) type).
func (b BatchMetadata) IngestedAtValue() string {
	return b.IngestedAt.UTC().Format("2006-01-02 15:04:05.000")
}

// Cache is a TTL key-value store for enrichment lookups. Get returns
// ok=false on a miss; an expired entry is a miss.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
