package provider_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VenCasMet/finboard/internal/provider"
)

func TestParseInterval(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		in   string
		want provider.Interval
		size int
	}{
		{"1day", provider.Day, 60},
		{"1WEEK", provider.Week, 52},
		{" 1month ", provider.Month, 24},
	} {
		iv, err := provider.ParseInterval(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, iv)
		require.Equal(t, tc.size, iv.OutputSize())
	}

	_, err := provider.ParseInterval("1hour")
	require.ErrorIs(t, err, provider.ErrUnsupportedInterval)
}

func TestNormalizeDecimal(t *testing.T) {
	t.Parallel()

	s, ok := provider.NormalizeDecimal("189.8400")
	require.True(t, ok)
	require.Equal(t, "189.84", s)

	_, ok = provider.NormalizeDecimal("")
	require.False(t, ok)
	_, ok = provider.NormalizeDecimal("n/a")
	require.False(t, ok)

	require.Equal(t, "172.5", provider.FormatFloat(172.5))
}

func TestAllProvidersFailedError_Unwrap(t *testing.T) {
	t.Parallel()

	netErr := &provider.NetworkError{Provider: "alphavantage", Op: "quote", StatusCode: http.StatusTooManyRequests}
	noData := &provider.NoDataError{Provider: "finnhub", Symbol: "AAPL", Field: "price"}
	err := fmt.Errorf("resolve: %w", &provider.AllProvidersFailedError{Symbol: "AAPL", Errs: []error{netErr, noData}})

	var all *provider.AllProvidersFailedError
	require.True(t, errors.As(err, &all))
	require.Len(t, all.Errs, 2)

	var gotNet *provider.NetworkError
	require.True(t, errors.As(err, &gotNet))
	require.Equal(t, http.StatusTooManyRequests, gotNet.StatusCode)

	var gotNoData *provider.NoDataError
	require.True(t, errors.As(err, &gotNoData))
	require.Contains(t, err.Error(), "finnhub: no price for AAPL")
}

func TestGetJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"value":"42"}`))
		case "/garbage":
			_, _ = w.Write([]byte(`<html>`))
		default:
			http.Error(w, "nope", http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	// Act: successful decode.
	var out struct {
		Value string `json:"value"`
	}
	require.NoError(t, provider.GetJSON(t.Context(), srv.Client(), "test", "op", srv.URL+"/ok", &out))
	require.Equal(t, "42", out.Value)

	// Assert: a bad status is a network error carrying the code.
	err := provider.GetJSON(t.Context(), srv.Client(), "test", "op", srv.URL+"/down", &out)
	var netErr *provider.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)

	// Assert: an undecodable body is a network error too.
	err = provider.GetJSON(t.Context(), srv.Client(), "test", "op", srv.URL+"/garbage", &out)
	require.ErrorAs(t, err, &netErr)

	// Assert: a malformed URL never reaches the client.
	err = provider.GetJSON(t.Context(), srv.Client(), "test", "op", string([]rune{0x7f}), &out)
	require.ErrorAs(t, err, &netErr)
}
