// Package clickhouse talks to ClickHouse over its HTTP interface: statements
// go up as request bodies, results come back as raw text, and bulk loads
// stream CSV through the FORMAT clause.
package clickhouse

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client implements warehouse.Store against a ClickHouse HTTP endpoint.
type Client struct {
	baseURL    string
	database   string
	user       string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a ClickHouse HTTP client. baseURL is the scheme://host:port
// of the HTTP interface (default port 8123).
func NewClient(baseURL, database, user, password string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		database: database,
		user:     user,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ExecuteQuery runs a statement and returns the raw response body. SELECTs
// without an explicit FORMAT clause come back TabSeparated.
func (c *Client) ExecuteQuery(ctx context.Context, query string) (string, error) {
	body, err := c.post(ctx, c.endpoint(nil), strings.NewReader(query), "")
	if err != nil {
		return "", err
	}
	return body, nil
}

// BulkInsert streams rows as CSV through an INSERT ... FORMAT clause. With
// withNames set, the header row is sent and ClickHouse maps columns by name;
// otherwise the column list is part of the statement.
func (c *Client) BulkInsert(ctx context.Context, table string, columns []string, withNames bool, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	var statement string
	if withNames {
		statement = fmt.Sprintf("INSERT INTO %s FORMAT CSVWithNames", table)
	} else {
		statement = fmt.Sprintf("INSERT INTO %s (%s) FORMAT CSV", table, strings.Join(columns, ", "))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if withNames {
		if err := w.Write(columns); err != nil {
			return fmt.Errorf("encode csv header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("encode csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}

	params := url.Values{"query": {statement}}
	if _, err := c.post(ctx, c.endpoint(params), &buf, "text/csv"); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	c.logger.Debug("bulk insert complete", "table", table, "rows", len(rows))
	return nil
}

// Ping verifies the endpoint answers queries.
func (c *Client) Ping(ctx context.Context) error {
	result, err := c.ExecuteQuery(ctx, "SELECT 1")
	if err != nil {
		return err
	}
	if strings.TrimSpace(result) != "1" {
		return fmt.Errorf("unexpected ping result %q", result)
	}
	return nil
}

func (c *Client) endpoint(params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("database", c.database)
	return c.baseURL + "/?" + params.Encode()
}

func (c *Client) post(ctx context.Context, fullURL string, body io.Reader, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.user != "" {
		req.Header.Set("X-ClickHouse-User", c.user)
		req.Header.Set("X-ClickHouse-Key", c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("clickhouse request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read clickhouse response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// ClickHouse reports the failing statement's error as plain text.
		return "", fmt.Errorf("clickhouse error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return string(respBody), nil
}
