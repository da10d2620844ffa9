package warehouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zsbahtiar/hotspot-etl/internal/warehouse"
)

func TestCheckQualityVerdicts(t *testing.T) {
	tests := []struct {
		name      string
		populated int
		want      warehouse.Verdict
	}{
		{"all populated", 9, warehouse.VerdictSuccess},
		{"one empty", 8, warehouse.VerdictSuccess},
		{"weather disabled", 5, warehouse.VerdictPartial},
		{"half empty", 4, warehouse.VerdictFailed},
		{"nothing loaded", 0, warehouse.VerdictFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			for i, table := range warehouse.QualityTables {
				count := "0\n"
				if i < tt.populated {
					count = "100\n"
				}
				store.respond("SELECT count() FROM "+table, count)
			}

			report := warehouse.CheckQuality(context.Background(), newLoader(store), discardLogger())
			assert.Equal(t, tt.want, report.Verdict)
			assert.Len(t, report.Counts, len(warehouse.QualityTables))
		})
	}
}

func TestCheckQualityTreatsCountErrorAsUnpopulated(t *testing.T) {
	store := newFakeStore()
	for _, table := range warehouse.QualityTables {
		store.respond("SELECT count() FROM "+table, "50\n")
	}
	store.fail("SELECT count() FROM fact_weather", errStoreDown)
	store.fail("SELECT count() FROM staging_weather", errStoreDown)

	report := warehouse.CheckQuality(context.Background(), newLoader(store), discardLogger())
	assert.Equal(t, warehouse.VerdictPartial, report.Verdict)
	assert.Zero(t, report.Counts["fact_weather"])
}
