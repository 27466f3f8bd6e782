package resolver

import (
	"context"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/VenCasMet/finboard/internal/provider"
	"github.com/VenCasMet/finboard/internal/provider/cache"
)

// Series resolves chart data through a write-once cache keyed by
// (symbol, interval). Entries never expire and a failed fetch never touches
// them. Resolve never fails: callers tell "loading", "has data" and
// "unavailable" apart from their own state and the length of the result.
type Series struct {
	Provider provider.SeriesProvider
	Cache    cache.Store[provider.Series]

	// coalesce concurrent misses per key
	sf singleflight.Group
}

func NewSeries(p provider.SeriesProvider, c cache.Store[provider.Series]) *Series {
	if c == nil {
		c = cache.NewMemory[provider.Series]()
	}
	return &Series{Provider: p, Cache: c}
}

// Key is the cache key of a (symbol, interval) pair.
func Key(symbol string, interval provider.Interval) string {
	return provider.NormalizeSymbol(symbol) + "_" + string(interval)
}

// Cached probes the cache without touching the network.
func (r *Series) Cached(ctx context.Context, symbol string, interval provider.Interval) (provider.Series, bool) {
	s, ok := r.Cache.Get(ctx, Key(symbol, interval))
	if !ok || len(s) == 0 {
		return nil, false
	}
	return s, true
}

// Resolve returns the cached series for the key, or fetches it once from the
// provider. On failure it returns whatever is cached for the key (possibly nothing).
func (r *Series) Resolve(ctx context.Context, symbol string, interval provider.Interval) provider.Series {
	if s, ok := r.Cached(ctx, symbol, interval); ok {
		return s
	}

	key := Key(symbol, interval)
	// the shared call serves every caller queued on the key, so no single
	// caller's cancellation may end it
	shared := context.WithoutCancel(ctx)
	v, err, _ := r.sf.Do(key, func() (any, error) {
		// another caller may have filled the key while we queued
		if s, ok := r.Cached(shared, symbol, interval); ok {
			return s, nil
		}
		s, err := r.Provider.Series(shared, provider.NormalizeSymbol(symbol), interval)
		if err != nil {
			return nil, err
		}
		if len(s) == 0 {
			return nil, &provider.NoDataError{Provider: r.Provider.Name(), Symbol: symbol, Field: "series"}
		}
		r.Cache.Put(shared, key, s)
		return s, nil
	})
	if err != nil {
		log.Printf("[WARN] series %s: %s failed: %v", key, r.Provider.Name(), err)
		s, _ := r.Cached(ctx, symbol, interval)
		return s
	}
	return v.(provider.Series)
}
