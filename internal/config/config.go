package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	AlphaVantage = "alphavantage"
	Finnhub      = "finnhub"
	TwelveData   = "twelvedata"

	StoreFile   = "file"
	StoreSQLite = "sqlite"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Server struct {
	Port              string `yaml:"port"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

// Provider is the credential, endpoint and quota of one upstream.
type Provider struct {
	APIKey                string `yaml:"api_key"`
	Endpoint              string `yaml:"endpoint"`
	MaxRequestsPerMinute  int    `yaml:"max_requests_per_minute"`
	Burst                 int    `yaml:"burst"`
	MinRequestIntervalSec int    `yaml:"min_request_interval_sec"`
}

type Providers struct {
	AlphaVantage Provider `yaml:"alphavantage"`
	Finnhub      Provider `yaml:"finnhub"`
	TwelveData   Provider `yaml:"twelvedata"`
	// Quotes is the fallback order for card and table widgets.
	Quotes []string `yaml:"quotes"`
	// Chart names the provider behind chart widgets.
	Chart string `yaml:"chart"`
}

// Store selects where the widget collection is persisted. Path is the data
// directory holding the JSON snapshot or the SQLite database.
type Store struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Name    string `yaml:"name"`
}

type Cache struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Prefix        string `yaml:"prefix"`
}

type Config struct {
	Server    Server    `yaml:"server"`
	Providers Providers `yaml:"providers"`
	Store     Store     `yaml:"store"`
	Cache     Cache     `yaml:"cache"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		Providers: Providers{
			AlphaVantage: Provider{
				Endpoint:             "https://www.alphavantage.co",
				MaxRequestsPerMinute: 5,
				Burst:                1,
			},
			Finnhub: Provider{
				Endpoint:             "https://finnhub.io/api/v1",
				MaxRequestsPerMinute: 60,
				Burst:                5,
			},
			TwelveData: Provider{
				Endpoint:             "https://api.twelvedata.com",
				MaxRequestsPerMinute: 8,
				Burst:                2,
			},
			Quotes: []string{AlphaVantage, Finnhub},
			Chart:  TwelveData,
		},
		Store: Store{Backend: StoreFile, Path: "data", Name: "finboard-dashboard"},
		Cache: Cache{Backend: CacheMemory, RedisAddr: "localhost:6379", Prefix: "finboard:"},
	}
}

// Load reads YAML config from path. If path is empty, config.yaml is used when
// present; a missing file yields defaults. Environment variables are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// Validate checks enumerations and limits.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Server.RequestTimeoutSec <= 0 {
		return errors.New("server.request_timeout_sec must be positive")
	}
	for name, p := range map[string]Provider{
		AlphaVantage: c.Providers.AlphaVantage,
		Finnhub:      c.Providers.Finnhub,
		TwelveData:   c.Providers.TwelveData,
	} {
		if p.Endpoint == "" {
			return fmt.Errorf("providers.%s.endpoint is required", name)
		}
	}
	if len(c.Providers.Quotes) == 0 {
		return errors.New("providers.quotes must name at least one provider")
	}
	for _, name := range c.Providers.Quotes {
		if name != AlphaVantage && name != Finnhub {
			return fmt.Errorf("providers.quotes: %q has no quote endpoint", name)
		}
	}
	if !slices.Contains([]string{AlphaVantage, Finnhub, TwelveData}, c.Providers.Chart) {
		return fmt.Errorf("providers.chart: unknown provider %q", c.Providers.Chart)
	}
	if c.Store.Backend != StoreFile && c.Store.Backend != StoreSQLite {
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	if c.Cache.Backend != CacheMemory && c.Cache.Backend != CacheRedis {
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errors.New("cache.redis_addr is required for the redis backend")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	envInt("REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec, 1)

	applyProviderEnv("ALPHA_VANTAGE", &cfg.Providers.AlphaVantage)
	applyProviderEnv("FINNHUB", &cfg.Providers.Finnhub)
	applyProviderEnv("TWELVE_DATA", &cfg.Providers.TwelveData)
	if v := os.Getenv("QUOTE_PROVIDERS"); v != "" {
		cfg.Providers.Quotes = splitCSV(strings.ToLower(v))
	}
	if v := os.Getenv("CHART_PROVIDER"); v != "" {
		cfg.Providers.Chart = strings.ToLower(v)
	}

	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("STORE_NAME"); v != "" {
		cfg.Store.Name = v
	}

	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	envInt("REDIS_DB", &cfg.Cache.RedisDB, 0)
}

// applyProviderEnv reads <PREFIX>_KEY, _ENDPOINT, _MAX_RPM, _BURST and _MIN_INTERVAL_SEC.
func applyProviderEnv(prefix string, p *Provider) {
	if v := os.Getenv(prefix + "_KEY"); v != "" {
		p.APIKey = v
	}
	if v := os.Getenv(prefix + "_ENDPOINT"); v != "" {
		p.Endpoint = v
	}
	envInt(prefix+"_MAX_RPM", &p.MaxRequestsPerMinute, 0)
	envInt(prefix+"_BURST", &p.Burst, 1)
	envInt(prefix+"_MIN_INTERVAL_SEC", &p.MinRequestIntervalSec, 0)
}

// envInt overwrites dst with the integer in key when it parses and is >= floor.
func envInt(key string, dst *int, floor int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err == nil && x >= floor {
		*dst = x
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
