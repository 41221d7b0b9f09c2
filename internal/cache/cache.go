// Package cache provides the session-scoped observation cache.
//
// Fetched observations are cached per (kpi, municipalities, years) key with
// a bounded TTL so repeated analysis calls within a session do not hit the
// Kolada API again. A singleflight group guarantees at most one in-flight
// upstream fetch per key under concurrent requests; latecomers share the
// result. Entries are never persisted across process restarts.
package cache

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/ekdahl/kolada-mcp/internal/kolada"
	"github.com/ekdahl/kolada-mcp/internal/log"
)

// Fetcher is the upstream collaborator the cache fills misses from.
// *kolada.Client implements it; tests supply fakes.
type Fetcher interface {
	FetchObservations(ctx context.Context, kpiID string, municipalityIDs []string, years []int) ([]kolada.Observation, error)
}

// Observations is a TTL cache over a Fetcher. Safe for concurrent use.
type Observations struct {
	fetcher Fetcher
	store   *gocache.Cache
	group   singleflight.Group
	logger  log.Logger
}

// New creates an observation cache with the given entry lifetime.
func New(fetcher Fetcher, ttl time.Duration, logger log.Logger) *Observations {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Observations{
		fetcher: fetcher,
		store:   gocache.New(ttl, 2*ttl),
		logger:  logger,
	}
}

// Get returns the observations for the key, fetching on miss. Concurrent
// calls for the same key collapse into a single upstream fetch.
func (o *Observations) Get(ctx context.Context, kpiID string, municipalityIDs []string, years []int) ([]kolada.Observation, error) {
	key := cacheKey(kpiID, municipalityIDs, years)

	if cached, ok := o.store.Get(key); ok {
		o.logger.Debug("observation cache hit", "key", key)
		return cached.([]kolada.Observation), nil
	}

	v, err, shared := o.group.Do(key, func() (any, error) {
		// Re-check after winning the flight: another goroutine may have
		// filled the entry while this one waited.
		if cached, ok := o.store.Get(key); ok {
			return cached, nil
		}

		obs, err := o.fetcher.FetchObservations(ctx, kpiID, municipalityIDs, years)
		if err != nil {
			return nil, err
		}
		o.store.SetDefault(key, obs)
		return obs, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		o.logger.Debug("observation fetch shared", "key", key)
	}
	return v.([]kolada.Observation), nil
}

// Flush drops all entries. Test helper and session reset.
func (o *Observations) Flush() {
	o.store.Flush()
}

// ItemCount reports the number of live cache entries.
func (o *Observations) ItemCount() int {
	return o.store.ItemCount()
}

// cacheKey builds a deterministic key: municipality ids and years are
// sorted so argument order does not fragment the cache.
func cacheKey(kpiID string, municipalityIDs []string, years []int) string {
	muns := make([]string, len(municipalityIDs))
	copy(muns, municipalityIDs)
	sort.Strings(muns)

	sortedYears := append([]int(nil), years...)
	sort.Ints(sortedYears)
	ys := make([]string, len(sortedYears))
	for i, y := range sortedYears {
		ys[i] = strconv.Itoa(y)
	}

	var b strings.Builder
	b.WriteString(kpiID)
	b.WriteByte('|')
	b.WriteString(strings.Join(muns, ","))
	b.WriteByte('|')
	b.WriteString(strings.Join(ys, ","))
	return b.String()
}
