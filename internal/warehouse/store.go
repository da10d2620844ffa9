package warehouse

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
)

// Store is the analytical store as the warehouse needs it: raw-text query
// results and bulk text-format ingestion. The ClickHouse HTTP adapter is the
// production implementation; tests use an in-memory fake.
type Store interface {
	// ExecuteQuery runs a statement and returns the raw response body.
	// Plain SELECTs come back TabSeparated; append "FORMAT CSVWithNames"
	// for framed results.
	ExecuteQuery(ctx context.Context, query string) (string, error)

	// BulkInsert streams rows through the store's CSV ingestion path.
	// With withNames set the header row is sent and the column list is
	// omitted from the INSERT statement.
	BulkInsert(ctx context.Context, table string, columns []string, withNames bool, rows [][]string) error
}

// parseTabSeparated splits a TabSeparated query result into fields.
// ClickHouse renders NULL as \N; those become empty strings.
func parseTabSeparated(result string) [][]string {
	result = strings.TrimRight(result, "\n")
	if result == "" {
		return nil
	}
	lines := strings.Split(result, "\n")
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		for i, f := range fields {
			if f == `\N` {
				fields[i] = ""
			}
		}
		rows = append(rows, fields)
	}
	return rows
}

// parseCSVWithNames parses a "FORMAT CSVWithNames" result into a header and rows.
func parseCSVWithNames(result string) ([]string, [][]string, error) {
	if strings.TrimSpace(result) == "" {
		return nil, nil, nil
	}
	r := csv.NewReader(strings.NewReader(result))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv result: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	header := records[0]
	rows := records[1:]
	for _, row := range rows {
		for i, f := range row {
			if f == `\N` {
				row[i] = ""
			}
		}
	}
	return header, rows, nil
}

// escapeString escapes a value for interpolation into a single-quoted literal.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
