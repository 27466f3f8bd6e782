package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/VenCasMet/finboard/internal/dashboard"
	"github.com/VenCasMet/finboard/internal/mocks"
	"github.com/VenCasMet/finboard/internal/provider"
	"github.com/VenCasMet/finboard/internal/resolver"
	"github.com/VenCasMet/finboard/internal/widget"
)

type fixture struct {
	api     *api
	handler http.Handler
	quotes  *mocks.MockQuoteProvider
	series  *mocks.MockSeriesProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	qp := mocks.NewMockQuoteProvider(ctrl)
	qp.EXPECT().Name().Return("alphavantage").AnyTimes()
	sp := mocks.NewMockSeriesProvider(ctrl)
	sp.EXPECT().Name().Return("twelvedata").AnyTimes()

	quotes := resolver.NewQuotes(qp)
	series := resolver.NewSeries(sp, nil)
	store := widget.Open(widget.NewFileSnapshot(t.TempDir(), ""))
	a := &api{
		dash:    dashboard.Open(store, quotes, series),
		quotes:  quotes,
		series:  series,
		timeout: time.Second,
	}
	return &fixture{
		api:     a,
		handler: withJSONHeaders(withGzip(recoverPanic(limitBody(a.routes())))),
		quotes:  qp,
		series:  sp,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, httptest.NewRequest(method, path, r))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func points(n int) provider.Series {
	s := make(provider.Series, 0, n)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s = append(s, provider.Point{Date: start.AddDate(0, 0, i).Format(time.DateOnly), Close: float64(i)})
	}
	return s
}

func TestWidgets_Lifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.quotes.EXPECT().Quote(gomock.Any(), "AAPL").Return(provider.Quote{Symbol: "AAPL", Price: "190.42"}, nil).AnyTimes()
	f.series.EXPECT().Series(gomock.Any(), "TSLA", provider.Day).Return(points(10), nil).Times(1)
	f.series.EXPECT().Series(gomock.Any(), "TSLA", provider.Month).Return(points(24), nil).Times(1)

	// Act: add a card and a chart
	rr := f.do(t, http.MethodPost, "/api/widgets", addBody{Title: "Apple", Type: "card", Symbol: "aapl"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	card := decode[dashboard.State](t, rr)
	require.Equal(t, "AAPL", card.Symbol)
	require.Equal(t, widget.Card, card.Kind)

	rr = f.do(t, http.MethodPost, "/api/widgets", addBody{Title: "Tesla", Type: "chart", Symbol: "TSLA"})
	require.Equal(t, http.StatusCreated, rr.Code)
	chart := decode[dashboard.State](t, rr)
	f.api.dash.Wait()

	// Assert: both listed in order
	rr = f.do(t, http.MethodGet, "/api/widgets", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[widgetsResponse](t, rr)
	require.Len(t, list.Widgets, 2)
	require.Equal(t, card.ID, list.Widgets[0].ID)

	// Assert: the card has its price
	rr = f.do(t, http.MethodGet, "/api/widgets/"+card.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decode[dashboard.State](t, rr)
	require.Equal(t, dashboard.StatusReady, st.Status)
	require.Equal(t, "190.42", *st.Price)

	// Act: switch the chart interval and style
	rr = f.do(t, http.MethodPost, "/api/widgets/"+chart.ID+"/interval", intervalBody{Interval: "1month"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = f.do(t, http.MethodPost, "/api/widgets/"+chart.ID+"/style", styleBody{Style: "candle"})
	require.Equal(t, http.StatusOK, rr.Code)
	f.api.dash.Wait()

	rr = f.do(t, http.MethodGet, "/api/widgets/"+chart.ID, nil)
	st = decode[dashboard.State](t, rr)
	require.Equal(t, provider.Month, st.Interval)
	require.Equal(t, dashboard.Candle, st.ChartStyle)
	require.Len(t, st.Series, 24)

	// Act: reorder then remove
	rr = f.do(t, http.MethodPost, "/api/widgets/reorder", map[string]int{"old_index": 1, "new_index": 0})
	require.Equal(t, http.StatusOK, rr.Code)
	list = decode[widgetsResponse](t, rr)
	require.Equal(t, chart.ID, list.Widgets[0].ID)

	rr = f.do(t, http.MethodDelete, "/api/widgets/"+card.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/widgets/"+card.ID, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Len(t, f.api.dash.Widgets(), 1)
}

func TestWidgets_BadRequests(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.quotes.EXPECT().Quote(gomock.Any(), gomock.Any()).Return(provider.Quote{Price: "1"}, nil).AnyTimes()

	rr := f.do(t, http.MethodPost, "/api/widgets", addBody{Title: "Apple", Type: "gauge", Symbol: "AAPL"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/widgets", addBody{Title: "", Type: "card", Symbol: "AAPL"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/widgets", map[string]string{"unknown": "field"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/widgets/reorder", map[string]int{"old_index": 0})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/widgets/nope/interval", intervalBody{Interval: "1week"})
	require.Equal(t, http.StatusNotFound, rr.Code)

	// Act: interval on a card
	rr = f.do(t, http.MethodPost, "/api/widgets", addBody{Title: "Apple", Type: "card", Symbol: "AAPL"})
	require.Equal(t, http.StatusCreated, rr.Code)
	card := decode[dashboard.State](t, rr)
	f.api.dash.Wait()

	rr = f.do(t, http.MethodPost, "/api/widgets/"+card.ID+"/interval", intervalBody{Interval: "1week"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(t, http.MethodPost, "/api/widgets/"+card.ID+"/interval", intervalBody{Interval: "1hour"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(t, http.MethodPost, "/api/widgets/"+card.ID+"/style", styleBody{Style: "area"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestQuote(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	gomock.InOrder(
		f.quotes.EXPECT().Quote(gomock.Any(), "MSFT").Return(provider.Quote{Symbol: "MSFT", Price: "415.1", Source: "alphavantage"}, nil),
		f.quotes.EXPECT().Quote(gomock.Any(), "MSFT").Return(provider.Quote{}, &provider.NoDataError{Provider: "alphavantage", Symbol: "MSFT", Field: "price"}),
	)

	rr := f.do(t, http.MethodGet, "/api/quotes/msft", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	q := decode[provider.Quote](t, rr)
	require.Equal(t, "415.1", q.Price)

	rr = f.do(t, http.MethodGet, "/api/quotes/MSFT", nil)
	require.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestSeries(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.series.EXPECT().Series(gomock.Any(), "AAPL", provider.Week).Return(points(52), nil).Times(1)
	f.series.EXPECT().Series(gomock.Any(), "AAPL", provider.Day).Return(nil, &provider.NetworkError{Provider: "twelvedata", Op: "series", StatusCode: 500}).Times(1)

	rr := f.do(t, http.MethodGet, "/api/series/aapl?interval=1week", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[seriesResponse](t, rr)
	require.Equal(t, "AAPL", resp.Symbol)
	require.Len(t, resp.Series, 52)

	// Assert: second call is a cache hit
	rr = f.do(t, http.MethodGet, "/api/series/AAPL?interval=1week", nil)
	require.Len(t, decode[seriesResponse](t, rr).Series, 52)

	// Assert: a failed fetch is an empty series, not an error
	rr = f.do(t, http.MethodGet, "/api/series/AAPL", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"symbol":"AAPL","interval":"1day","series":[]}`, rr.Body.String())

	rr = f.do(t, http.MethodGet, "/api/series/AAPL?interval=5min", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	// Act: preflight
	rr := f.do(t, http.MethodOptions, "/api/widgets", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	// Act: gzip
	req := httptest.NewRequest(http.MethodGet, "/api/widgets", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr = httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.JSONEq(t, `{"widgets":[]}`, string(body))

	// Act: a 204 through the gzip layer
	req = httptest.NewRequest(http.MethodDelete, "/api/widgets/whatever", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr = httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, rr.Header().Get("Content-Encoding"))
	require.Zero(t, rr.Body.Len())

	// Act: panics become 500
	h := recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
