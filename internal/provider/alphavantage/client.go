package alphavantage

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/VenCasMet/finboard/internal/provider"
	"github.com/VenCasMet/finboard/internal/provider/cache"
	"github.com/VenCasMet/finboard/internal/provider/ratelimit"
)

const (
	// Name identifies the provider in quotes and errors.
	Name = "alphavantage"

	baseURL = "https://www.alphavantage.co"
)

// Client is the primary quote provider. It memoizes the last good price per
// symbol; a memo hit is answered without a network call and without OHLC detail.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// key is the apikey query parameter.
	key        string
	httpClient provider.HTTPClient
	limiter    ratelimit.Limiter
	memo       cache.Store[string]
	now        func() time.Time
}

// Option is a configuration option for the Alpha Vantage client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(hc provider.HTTPClient) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter gates every network call. Memo hits are not gated.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithPriceMemo replaces the default in-memory price memo.
func WithPriceMemo(s cache.Store[string]) Option {
	return func(c *Client) { c.memo = s }
}

// New creates a new Alpha Vantage client.
func New(key string, options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		key:        key,
		httpClient: http.DefaultClient,
		memo:       cache.NewMemory[string](),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return Name }

// apiMessages are the fields Alpha Vantage fills instead of data when it
// rejects a call with a 200 (rate limit, bad key, unknown symbol).
type apiMessages struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (m apiMessages) detail() string {
	for _, s := range []string{m.ErrorMessage, m.Note, m.Information} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) wait(ctx context.Context, op string) error {
	if err := ratelimit.Wait(ctx, c.limiter); err != nil {
		return &provider.NetworkError{Provider: Name, Op: op, Err: err}
	}
	return nil
}
