package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/VenCasMet/finboard/internal/httpx"
	"github.com/VenCasMet/finboard/internal/provider"
	"github.com/VenCasMet/finboard/internal/provider/alphavantage"
	"github.com/VenCasMet/finboard/internal/provider/cache"
	"github.com/VenCasMet/finboard/internal/provider/finnhub"
	"github.com/VenCasMet/finboard/internal/provider/ratelimit"
	"github.com/VenCasMet/finboard/internal/provider/twelvedata"
	"github.com/VenCasMet/finboard/internal/resolver"
	"github.com/VenCasMet/finboard/internal/widget"
)

// SQLiteFile is the database file name inside Store.Path.
const SQLiteFile = "finboard.db"

// Services is everything the binaries need, wired from a Config.
type Services struct {
	Quotes   *resolver.Quotes
	Series   *resolver.Series
	Snapshot widget.Snapshotter

	closers []func() error
}

// Close releases the snapshot database and the redis connection.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// Build wires providers (rate limited), caches, resolvers and the snapshot
// backend from cfg.
func Build(cfg Config) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	s := &Services{}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	var (
		memo   cache.Store[string]          = cache.NewMemory[string]()
		series cache.Store[provider.Series] = cache.NewMemory[provider.Series]()
	)
	if cfg.Cache.Backend == CacheRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		s.closers = append(s.closers, rdb.Close)
		memo = cache.NewRedis[string](rdb, cfg.Cache.Prefix+"price:")
		series = cache.NewRedis[provider.Series](rdb, cfg.Cache.Prefix+"series:")
		log.Printf("[INFO] redis cache at %s", cfg.Cache.RedisAddr)
	}

	p := cfg.Providers
	warnMissingKey(AlphaVantage, p.AlphaVantage)
	warnMissingKey(Finnhub, p.Finnhub)
	warnMissingKey(TwelveData, p.TwelveData)

	av := alphavantage.New(p.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(p.AlphaVantage.Endpoint),
		alphavantage.WithHTTPClient(httpClient),
		alphavantage.WithLimiter(limiter(p.AlphaVantage)),
		alphavantage.WithPriceMemo(memo),
	)
	fh := finnhub.New(p.Finnhub.APIKey,
		finnhub.WithBaseURL(p.Finnhub.Endpoint),
		finnhub.WithHTTPClient(httpClient),
		finnhub.WithLimiter(limiter(p.Finnhub)),
	)
	td := twelvedata.New(p.TwelveData.APIKey,
		twelvedata.WithBaseURL(p.TwelveData.Endpoint),
		twelvedata.WithHTTPClient(httpClient),
		twelvedata.WithLimiter(limiter(p.TwelveData)),
	)

	quoteProviders := map[string]provider.QuoteProvider{AlphaVantage: av, Finnhub: fh}
	chain := make([]provider.QuoteProvider, 0, len(p.Quotes))
	for _, name := range p.Quotes {
		chain = append(chain, quoteProviders[name])
	}
	s.Quotes = resolver.NewQuotes(chain...)

	seriesProviders := map[string]provider.SeriesProvider{AlphaVantage: av, Finnhub: fh, TwelveData: td}
	s.Series = resolver.NewSeries(seriesProviders[p.Chart], series)

	switch cfg.Store.Backend {
	case StoreSQLite:
		if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		snap, err := widget.OpenSQLite(filepath.Join(cfg.Store.Path, SQLiteFile), cfg.Store.Name)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.closers = append(s.closers, snap.Close)
		s.Snapshot = snap
	default:
		s.Snapshot = widget.NewFileSnapshot(cfg.Store.Path, cfg.Store.Name)
	}
	return s, nil
}

func limiter(p Provider) ratelimit.Limiter {
	return ratelimit.New(p.MaxRequestsPerMinute, p.Burst, time.Duration(p.MinRequestIntervalSec)*time.Second)
}

func warnMissingKey(name string, p Provider) {
	if p.APIKey == "" {
		log.Printf("[WARN] %s api key not set; requests will be rejected upstream", name)
	}
}
