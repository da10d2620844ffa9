package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsbahtiar/hotspot-etl/internal/pipeline"
)

func TestSerializeToMessage(t *testing.T) {
	finished := time.Date(2025, 8, 1, 6, 20, 0, 0, time.UTC)
	summary := pipeline.RunSummary{
		BatchID:      "01K1W2X3Y4Z5A6B7C8D9E0F1G2",
		Status:       "hotspot_loaded",
		Verdict:      "SUCCESS",
		Detections:   42,
		FactHotspots: 38,
		StartedAt:    finished.Add(-5 * time.Minute),
		FinishedAt:   finished,
	}

	msg, err := serializeToMessage(summary)
	require.NoError(t, err)

	assert.Equal(t, []byte("01K1W2X3Y4Z5A6B7C8D9E0F1G2"), msg.Key)
	assert.Contains(t, string(msg.Value), `"verdict":"SUCCESS"`)
	assert.Contains(t, string(msg.Value), `"fact_hotspots":38`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "status", msg.Headers[0].Key)
	assert.Equal(t, []byte("hotspot_loaded"), msg.Headers[0].Value)
	assert.Equal(t, "finished_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(finished.Format(time.RFC3339)), msg.Headers[1].Value)
}
