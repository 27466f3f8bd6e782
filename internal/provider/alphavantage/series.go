package alphavantage

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/VenCasMet/finboard/internal/provider"
)

// dailyPoints is how many of the most recent daily points are kept.
const dailyPoints = 30

type dailyBar struct {
	Open  string `json:"1. open"`
	High  string `json:"2. high"`
	Low   string `json:"3. low"`
	Close string `json:"4. close"`
}

type dailyResponse struct {
	apiMessages
	Series map[string]dailyBar `json:"Time Series (Daily)"`
}

// Series returns up to 30 most recent daily points, ascending. Only Day is supported.
func (c *Client) Series(ctx context.Context, symbol string, interval provider.Interval) (provider.Series, error) {
	if interval != provider.Day {
		return nil, fmt.Errorf("%s series %s: %w", Name, interval, provider.ErrUnsupportedInterval)
	}
	sym := provider.NormalizeSymbol(symbol)

	if err := c.wait(ctx, "series"); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("function", "TIME_SERIES_DAILY")
	query.Set("symbol", sym)
	query.Set("apikey", c.key)

	var body dailyResponse
	u := fmt.Sprintf("%s/query?%s", c.baseURL, query.Encode())
	if err := provider.GetJSON(ctx, c.httpClient, Name, "series", u, &body); err != nil {
		return nil, err
	}
	if len(body.Series) == 0 {
		return nil, &provider.NoDataError{Provider: Name, Symbol: sym, Field: "time series", Detail: body.detail()}
	}

	dates := make([]string, 0, len(body.Series))
	for d := range body.Series {
		dates = append(dates, d)
	}
	// ISO dates sort lexically.
	sort.Strings(dates)
	if len(dates) > dailyPoints {
		dates = dates[len(dates)-dailyPoints:]
	}

	out := make(provider.Series, 0, len(dates))
	for _, d := range dates {
		bar := body.Series[d]
		p, ok := bar.point(d)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, &provider.NoDataError{Provider: Name, Symbol: sym, Field: "time series", Detail: "no parsable points"}
	}
	return out, nil
}

func (b dailyBar) point(date string) (provider.Point, bool) {
	var vals [4]float64
	for i, s := range []string{b.Open, b.High, b.Low, b.Close} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return provider.Point{}, false
		}
		vals[i] = v
	}
	return provider.Point{Date: date, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}, true
}
