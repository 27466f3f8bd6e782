package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/VenCasMet/finboard/internal/provider"
	"github.com/VenCasMet/finboard/internal/resolver"
	"github.com/VenCasMet/finboard/internal/widget"
)

// ErrInvalidSelection is returned for an interval or chart style the widget can't take.
var ErrInvalidSelection = errors.New("invalid selection")

// QuoteResolver is the quote side consumed by card and table widgets.
type QuoteResolver interface {
	Resolve(ctx context.Context, symbol string) (provider.Quote, error)
}

// SeriesResolver is the series side consumed by chart widgets.
type SeriesResolver interface {
	Cached(ctx context.Context, symbol string, interval provider.Interval) (provider.Series, bool)
	Resolve(ctx context.Context, symbol string, interval provider.Interval) provider.Series
}

// Remover deletes a widget from the collection.
type Remover interface {
	Remove(id string) error
}

// ChartStyle is how a chart widget draws its series.
type ChartStyle string

const (
	Line   ChartStyle = "line"
	Candle ChartStyle = "candle"
)

// ParseChartStyle accepts "line" or "candle".
func ParseChartStyle(s string) (ChartStyle, error) {
	switch st := ChartStyle(strings.ToLower(strings.TrimSpace(s))); st {
	case Line, Candle:
		return st, nil
	}
	return "", fmt.Errorf("%w: chart style %q", ErrInvalidSelection, s)
}

// Status summarizes what a widget can display right now.
type Status string

const (
	StatusLoading     Status = "loading"
	StatusReady       Status = "ready"
	StatusNoData      Status = "no_data"
	StatusUnavailable Status = "unavailable"
)

// Loading holds one flag per data concern.
type Loading struct {
	Price  bool `json:"price"`
	OHLC   bool `json:"ohlc"`
	Series bool `json:"series"`
}

// State is a read-only snapshot of a widget for display.
type State struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Kind        widget.Kind       `json:"type"`
	Symbol      string            `json:"symbol"`
	Loading     Loading           `json:"loading"`
	Price       *string           `json:"price"`
	PriceCached bool              `json:"price_cached"`
	OHLC        *provider.OHLC    `json:"ohlc"`
	Series      provider.Series   `json:"series"`
	Interval    provider.Interval `json:"interval"`
	ChartStyle  ChartStyle        `json:"chart_style"`
	Status      Status            `json:"status"`
}

// Widget drives data loading for one descriptor.
//
// Every fetch runs in its own goroutine and remembers the key it was started
// for: quotes are keyed by kind and symbol, series by symbol and interval.
// A result is applied only while the widget's current key still matches;
// results for superseded keys are dropped. Overlapping fetches for the same
// key are last-write-wins.
type Widget struct {
	quotes  QuoteResolver
	series  SeriesResolver
	remover Remover

	mu        sync.Mutex
	desc      widget.Descriptor
	interval  provider.Interval
	style     ChartStyle
	loading   Loading
	price     *string
	cached    bool
	ohlc      *provider.OHLC
	points    provider.Series
	pointsKey string // key the displayed points belong to

	wg sync.WaitGroup
}

// NewWidget creates an unmounted view-model with the default interval and style.
func NewWidget(d widget.Descriptor, quotes QuoteResolver, series SeriesResolver, remover Remover) *Widget {
	return &Widget{
		quotes:   quotes,
		series:   series,
		remover:  remover,
		desc:     d,
		interval: provider.Day,
		style:    Line,
	}
}

func (w *Widget) ID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.desc.ID
}

// Mount starts the fetch the widget kind needs.
func (w *Widget) Mount(ctx context.Context) {
	w.mu.Lock()
	kind := w.desc.Kind
	w.mu.Unlock()

	switch kind {
	case widget.Card, widget.Table:
		w.loadQuote(ctx)
	case widget.Chart:
		w.loadSeries(ctx)
	}
}

// Sync adopts a new descriptor and re-fetches if its kind or symbol changed.
// Data shown for the previous symbol is discarded.
func (w *Widget) Sync(ctx context.Context, d widget.Descriptor) {
	w.mu.Lock()
	changed := d.Kind != w.desc.Kind || d.Symbol != w.desc.Symbol
	if d.Symbol != w.desc.Symbol {
		w.price, w.cached, w.ohlc = nil, false, nil
		w.points, w.pointsKey = nil, ""
	}
	w.desc = d
	if changed {
		w.loading = Loading{}
	}
	w.mu.Unlock()

	if changed {
		w.Mount(ctx)
	}
}

// SetInterval selects a chart interval and loads it. A cached series is shown
// at once; otherwise the current points stay visible until the fetch for the
// new interval completes.
func (w *Widget) SetInterval(ctx context.Context, iv provider.Interval) error {
	if !iv.Valid() {
		return fmt.Errorf("%w: interval %q", ErrInvalidSelection, iv)
	}
	w.mu.Lock()
	if w.desc.Kind != widget.Chart {
		kind := w.desc.Kind
		w.mu.Unlock()
		return fmt.Errorf("%w: interval on a %s widget", ErrInvalidSelection, kind)
	}
	w.interval = iv
	w.mu.Unlock()

	w.loadSeries(ctx)
	return nil
}

func (w *Widget) SetChartStyle(style ChartStyle) error {
	if style != Line && style != Candle {
		return fmt.Errorf("%w: chart style %q", ErrInvalidSelection, style)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.style = style
	return nil
}

// Remove deletes the widget from the collection.
func (w *Widget) Remove() error {
	return w.remover.Remove(w.ID())
}

// Wait blocks until every fetch started so far has finished.
func (w *Widget) Wait() {
	w.wg.Wait()
}

func (w *Widget) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := State{
		ID:          w.desc.ID,
		Title:       w.desc.Title,
		Kind:        w.desc.Kind,
		Symbol:      w.desc.Symbol,
		Loading:     w.loading,
		PriceCached: w.cached,
		Series:      slices.Clone(w.points),
		Interval:    w.interval,
		ChartStyle:  w.style,
	}
	if w.price != nil {
		p := *w.price
		s.Price = &p
	}
	if w.ohlc != nil {
		o := *w.ohlc
		s.OHLC = &o
	}
	if s.Series == nil {
		s.Series = provider.Series{}
	}
	s.Status = w.status()
	return s
}

// status must be called with mu held.
func (w *Widget) status() Status {
	switch w.desc.Kind {
	case widget.Card:
		switch {
		case w.loading.Price:
			return StatusLoading
		case w.price != nil:
			return StatusReady
		}
		return StatusNoData
	case widget.Table:
		// known OHLC stays on screen through a reload
		switch {
		case w.ohlc != nil:
			return StatusReady
		case w.loading.OHLC:
			return StatusLoading
		case w.price != nil:
			return StatusReady
		}
		return StatusNoData
	case widget.Chart:
		switch {
		case w.loading.Series:
			return StatusLoading
		case len(w.points) > 0:
			return StatusReady
		}
		return StatusUnavailable
	}
	return StatusNoData
}

func quoteKey(d widget.Descriptor) string {
	return string(d.Kind) + ":" + d.Symbol
}

// seriesKey must be called with mu held.
func (w *Widget) seriesKey() string {
	if w.desc.Kind != widget.Chart {
		return ""
	}
	return resolver.Key(w.desc.Symbol, w.interval)
}

func (w *Widget) loadQuote(ctx context.Context) {
	w.mu.Lock()
	d := w.desc
	key := quoteKey(d)
	if d.Kind == widget.Card {
		w.loading.Price = true
	} else {
		w.loading.OHLC = true
	}
	w.mu.Unlock()

	// The fetch outlives the call that triggered it.
	ctx = context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		q, err := w.quotes.Resolve(ctx, d.Symbol)
		w.applyQuote(key, q, err)
	}()
}

func (w *Widget) applyQuote(key string, q provider.Quote, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if quoteKey(w.desc) != key {
		return
	}

	switch w.desc.Kind {
	case widget.Card:
		w.loading.Price = false
		if err != nil {
			w.price, w.cached = nil, false
			return
		}
		price := q.Price
		w.price, w.cached = &price, q.Cached
	case widget.Table:
		w.loading.OHLC = false
		if err != nil {
			return
		}
		price := q.Price
		w.price, w.cached = &price, q.Cached
		if q.OHLC != nil {
			ohlc := *q.OHLC
			w.ohlc = &ohlc
		}
	}
}

func (w *Widget) loadSeries(ctx context.Context) {
	w.mu.Lock()
	sym, iv := w.desc.Symbol, w.interval
	key := w.seriesKey()
	w.mu.Unlock()

	if s, ok := w.series.Cached(ctx, sym, iv); ok {
		w.applySeries(key, s)
		return
	}

	w.mu.Lock()
	if w.seriesKey() != key {
		w.mu.Unlock()
		return
	}
	w.loading.Series = true
	w.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.applySeries(key, w.series.Resolve(ctx, sym, iv))
	}()
}

func (w *Widget) applySeries(key string, s provider.Series) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seriesKey() != key {
		return
	}
	w.loading.Series = false
	// an empty result never hides points already shown for the same key
	if len(s) == 0 && w.pointsKey == key {
		return
	}
	w.points, w.pointsKey = s, key
}
