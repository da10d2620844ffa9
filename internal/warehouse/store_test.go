package warehouse_test

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// fakeStore scripts query responses and records every statement and bulk
// insert it receives.
type fakeStore struct {
	mu        sync.Mutex
	queries   []string
	inserts   []insertCall
	responses map[string]string
	errors    map[string]error
}

type insertCall struct {
	table     string
	columns   []string
	withNames bool
	rows      [][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
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

func (s *fakeStore) BulkInsert(_ context.Context, table string, columns []string, withNames bool, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errors["INSERT "+table]; ok {
		return err
	}
	s.inserts = append(s.inserts, insertCall{
		table:     table,
		columns:   columns,
		withNames: withNames,
		rows:      rows,
	})
	return nil
}

func (s *fakeStore) insertsFor(table string) []insertCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []insertCall
	for _, call := range s.inserts {
		if call.table == table {
			out = append(out, call)
		}
	}
	return out
}

func (s *fakeStore) queryLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

var errStoreDown = fmt.Errorf("store unavailable")
