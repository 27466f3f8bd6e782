package finnhub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/VenCasMet/finboard/internal/provider"
	"github.com/VenCasMet/finboard/internal/provider/ratelimit"
)

const (
	// Name identifies the provider in quotes and errors.
	Name = "finnhub"

	baseURL = "https://finnhub.io/api/v1"

	// candleWindow is the lookback of the daily candle request.
	candleWindow = 30 * 24 * time.Hour
)

// Client is the fallback quote provider.
type Client struct {
	baseURL    string
	token      string
	httpClient provider.HTTPClient
	limiter    ratelimit.Limiter
	now        func() time.Time
}

// Option is a configuration option for the Finnhub client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(hc provider.HTTPClient) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter gates every network call.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithClock overrides the clock used for candle windows and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a new Finnhub client authenticated with token.
func New(token string, options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return Name }

// quoteResponse: c = current, o = open, h = high, l = low.
type quoteResponse struct {
	C *float64 `json:"c"`
	O *float64 `json:"o"`
	H *float64 `json:"h"`
	L *float64 `json:"l"`
}

// Quote returns current/open/high/low for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	sym := provider.NormalizeSymbol(symbol)
	if sym == "" {
		return provider.Quote{}, &provider.NoDataError{Provider: Name, Field: "price", Detail: "empty symbol"}
	}
	if err := ratelimit.Wait(ctx, c.limiter); err != nil {
		return provider.Quote{}, &provider.NetworkError{Provider: Name, Op: "quote", Err: err}
	}

	query := url.Values{}
	query.Set("symbol", sym)
	query.Set("token", c.token)

	var body quoteResponse
	u := fmt.Sprintf("%s/quote?%s", c.baseURL, query.Encode())
	if err := provider.GetJSON(ctx, c.httpClient, Name, "quote", u, &body); err != nil {
		return provider.Quote{}, err
	}
	// Unknown symbols come back as all zeros.
	if body.C == nil || *body.C == 0 {
		return provider.Quote{}, &provider.NoDataError{Provider: Name, Symbol: sym, Field: "price"}
	}

	price := provider.FormatFloat(*body.C)
	return provider.Quote{
		Symbol: sym,
		Price:  price,
		OHLC: &provider.OHLC{
			Open:  formatOptional(body.O),
			High:  formatOptional(body.H),
			Low:   formatOptional(body.L),
			Price: price,
		},
		Source:     Name,
		ReceivedAt: c.now().UTC(),
	}, nil
}

type candleResponse struct {
	S string    `json:"s"`
	T []int64   `json:"t"`
	O []float64 `json:"o"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	C []float64 `json:"c"`
}

// Series returns the last 30 days of daily candles. Only Day is supported.
func (c *Client) Series(ctx context.Context, symbol string, interval provider.Interval) (provider.Series, error) {
	if interval != provider.Day {
		return nil, fmt.Errorf("%s series %s: %w", Name, interval, provider.ErrUnsupportedInterval)
	}
	sym := provider.NormalizeSymbol(symbol)
	if err := ratelimit.Wait(ctx, c.limiter); err != nil {
		return nil, &provider.NetworkError{Provider: Name, Op: "series", Err: err}
	}

	to := c.now()
	from := to.Add(-candleWindow)

	query := url.Values{}
	query.Set("symbol", sym)
	query.Set("resolution", "D")
	query.Set("from", strconv.FormatInt(from.Unix(), 10))
	query.Set("to", strconv.FormatInt(to.Unix(), 10))
	query.Set("token", c.token)

	var body candleResponse
	u := fmt.Sprintf("%s/stock/candle?%s", c.baseURL, query.Encode())
	if err := provider.GetJSON(ctx, c.httpClient, Name, "series", u, &body); err != nil {
		return nil, err
	}
	if body.S != "ok" {
		return nil, &provider.NoDataError{Provider: Name, Symbol: sym, Field: "candles", Detail: "status " + strconv.Quote(body.S)}
	}

	n := len(body.T)
	if len(body.O) < n || len(body.H) < n || len(body.L) < n || len(body.C) < n {
		return nil, &provider.NoDataError{Provider: Name, Symbol: sym, Field: "candles", Detail: "ragged arrays"}
	}
	out := make(provider.Series, 0, n)
	for i, ts := range body.T {
		out = append(out, provider.Point{
			Date:  time.Unix(ts, 0).UTC().Format(time.DateOnly),
			Open:  body.O[i],
			High:  body.H[i],
			Low:   body.L[i],
			Close: body.C[i],
		})
	}
	if len(out) == 0 {
		return nil, &provider.NoDataError{Provider: Name, Symbol: sym, Field: "candles"}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return provider.FormatFloat(*v)
}
