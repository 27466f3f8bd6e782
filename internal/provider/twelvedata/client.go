package twelvedata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/VenCasMet/finboard/internal/provider"
	"github.com/VenCasMet/finboard/internal/provider/ratelimit"
)

const (
	// Name identifies the provider in errors and logs.
	Name = "twelvedata"

	baseURL = "https://api.twelvedata.com"
)

// Client is the series-only provider backing chart widgets.
type Client struct {
	baseURL    string
	key        string
	httpClient provider.HTTPClient
	limiter    ratelimit.Limiter
}

// Option is a configuration option for the Twelve Data client.
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

// New creates a new Twelve Data client.
func New(key string, options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		key:        key,
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return Name }

type value struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
}

type timeSeriesResponse struct {
	Status  string  `json:"status"`
	Code    int     `json:"code"`
	Message string  `json:"message"`
	Values  []value `json:"values"`
}

// Series returns the interval's OutputSize most recent points, ascending.
func (c *Client) Series(ctx context.Context, symbol string, interval provider.Interval) (provider.Series, error) {
	if !interval.Valid() {
		return nil, fmt.Errorf("%s series %q: %w", Name, interval, provider.ErrUnsupportedInterval)
	}
	sym := provider.NormalizeSymbol(symbol)
	size := interval.OutputSize()

	if err := ratelimit.Wait(ctx, c.limiter); err != nil {
		return nil, &provider.NetworkError{Provider: Name, Op: "series", Err: err}
	}

	query := url.Values{}
	query.Set("symbol", sym)
	query.Set("interval", string(interval))
	query.Set("outputsize", strconv.Itoa(size))
	query.Set("apikey", c.key)

	var body timeSeriesResponse
	u := fmt.Sprintf("%s/time_series?%s", c.baseURL, query.Encode())
	if err := provider.GetJSON(ctx, c.httpClient, Name, "series", u, &body); err != nil {
		return nil, err
	}
	if body.Status == "error" || len(body.Values) == 0 {
		detail := body.Message
		if body.Code != 0 {
			detail = fmt.Sprintf("code %d: %s", body.Code, body.Message)
		}
		return nil, &provider.NoDataError{Provider: Name, Symbol: sym, Field: "values", Detail: detail}
	}

	out := make(provider.Series, 0, len(body.Values))
	for _, v := range body.Values {
		p, ok := v.point()
		if !ok {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, &provider.NoDataError{Provider: Name, Symbol: sym, Field: "values", Detail: "no parsable points"}
	}

	// Upstream serves newest first; don't rely on it.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if len(out) > size {
		out = out[len(out)-size:]
	}
	return out, nil
}

func (v value) point() (provider.Point, bool) {
	var vals [4]float64
	for i, s := range []string{v.Open, v.High, v.Low, v.Close} {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return provider.Point{}, false
		}
		vals[i] = f
	}
	if v.Datetime == "" {
		return provider.Point{}, false
	}
	return provider.Point{Date: v.Datetime, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}, true
}
