package warehouse

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
)

// Resolver maps dimension natural keys to surrogate IDs. Existing IDs are
// preloaded from the warehouse so re-running a day reuses them; unknown keys
// get a freshly minted ULID that is remembered for the rest of the run.
type Resolver struct {
	store  Store
	logger *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy

	periods    map[string]string // date_value -> id
	locations  map[string]string // subdistrict_code -> id
	confidence map[string]string // raw_value + "_" + instrument -> id
	conditions map[string]string // conditions -> id
}

func NewResolver(store Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:      store,
		logger:     logger,
		entropy:    ulid.Monotonic(rand.New(rand.NewSource(domain.Now().UnixNano())), 0),
		periods:    map[string]string{},
		locations:  map[string]string{},
		confidence: map[string]string{},
		conditions: map[string]string{},
	}
}

// MintID returns a new lexically sortable surrogate ID.
func (r *Resolver) MintID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(domain.Now()), r.entropy).String()
}

// Preload fetches existing surrogate IDs for every keyed dimension. A failed
// lookup degrades to an empty map for that dimension: the run mints fresh IDs
// and the load policies reconcile on the natural keys.
func (r *Resolver) Preload(ctx context.Context) {
	r.periods = r.loadIDMap(ctx, DimPeriodTable.Name, "date_value")
	r.locations = r.loadIDMap(ctx, DimLocationTable.Name, "subdistrict_code")
	r.conditions = r.loadIDMap(ctx, DimWeatherConditionTable.Name, "conditions")
	r.confidence = r.loadIDMap(ctx, DimConfidenceTable.Name, "raw_value", "instrument")
}

func (r *Resolver) loadIDMap(ctx context.Context, table string, keyColumns ...string) map[string]string {
	query := "SELECT " + joinColumns(keyColumns) + ", id FROM " + table
	result, err := r.store.ExecuteQuery(ctx, query)
	if err != nil {
		r.logger.Warn("failed to preload dimension ids, minting fresh",
			"table", table, "error", err)
		return map[string]string{}
	}
	ids := map[string]string{}
	for _, row := range parseTabSeparated(result) {
		if len(row) != len(keyColumns)+1 {
			continue
		}
		ids[compositeKey(row[:len(keyColumns)])] = row[len(keyColumns)]
	}
	return ids
}

// PeriodID returns the surrogate ID for a calendar date, minting one if the
// date has never been seen.
func (r *Resolver) PeriodID(dateValue string) string {
	return r.resolve(r.periods, dateValue)
}

// LocationID returns the surrogate ID for a subdistrict code.
func (r *Resolver) LocationID(subdistrictCode string) string {
	return r.resolve(r.locations, subdistrictCode)
}

// ConfidenceID returns the surrogate ID for a raw confidence value as reported
// by a particular instrument.
func (r *Resolver) ConfidenceID(rawValue, instrument string) string {
	return r.resolve(r.confidence, rawValue+"_"+instrument)
}

// WeatherConditionID returns the surrogate ID for a conditions string.
func (r *Resolver) WeatherConditionID(conditions string) string {
	return r.resolve(r.conditions, conditions)
}

func (r *Resolver) resolve(ids map[string]string, key string) string {
	if id, ok := ids[key]; ok {
		return id
	}
	id := r.MintID()
	ids[key] = id
	return id
}

func joinColumns(columns []string) string {
	out := columns[0]
	for _, c := range columns[1:] {
		out += ", " + c
	}
	return out
}

func compositeKey(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "_" + p
	}
	return out
}
