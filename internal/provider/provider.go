package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// OHLC is the open/high/low detail of a quote. Price is the current (close) value.
// Values are kept as decimal strings to avoid float rounding.
type OHLC struct {
	Open  string `json:"open"`
	High  string `json:"high"`
	Low   string `json:"low"`
	Price string `json:"price"`
}

// Quote is the normalized shape returned by all quote providers.
// A nil OHLC means the price is valid but the detail is unknown,
// which happens when a provider answers from its price memo.
type Quote struct {
	Symbol     string    `json:"symbol"`
	Price      string    `json:"price"`
	OHLC       *OHLC     `json:"ohlc"`
	Cached     bool      `json:"cached"`
	Source     string    `json:"source"`
	ReceivedAt time.Time `json:"received_at"`
}

// Point is a single OHLC time bucket.
type Point struct {
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Series is a chronological ascending sequence of points.
type Series []Point

// Interval is the bucket size of a chart series.
type Interval string

const (
	Day   Interval = "1day"
	Week  Interval = "1week"
	Month Interval = "1month"
)

// Intervals lists the supported intervals in display order.
var Intervals = []Interval{Day, Week, Month}

var outputSizes = map[Interval]int{
	Day:   60,
	Week:  52,
	Month: 24,
}

// OutputSize is the number of most recent points kept for an interval.
func (iv Interval) OutputSize() int { return outputSizes[iv] }

func (iv Interval) Valid() bool {
	_, ok := outputSizes[iv]
	return ok
}

// ParseInterval accepts "1day", "1week" or "1month" (case-insensitive).
func ParseInterval(s string) (Interval, error) {
	iv := Interval(strings.ToLower(strings.TrimSpace(s)))
	if !iv.Valid() {
		return "", fmt.Errorf("interval %q: %w", s, ErrUnsupportedInterval)
	}
	return iv, nil
}

// NormalizeSymbol trims and upper-cases a ticker before it goes on the wire.
func NormalizeSymbol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// QuoteProvider returns the current quote for a symbol.
//
//go:generate mockgen -package=mocks -destination=../mocks/mock_provider.go -source=provider.go
type QuoteProvider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// SeriesProvider returns a bounded OHLC series for a symbol.
type SeriesProvider interface {
	Name() string
	Series(ctx context.Context, symbol string, interval Interval) (Series, error)
}
