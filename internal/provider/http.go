package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=mocks -destination=../mocks/mock_http_client.go -source=http.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// GetJSON performs a GET against url and decodes the JSON body into v.
// Every failure before a decoded body is reported as a *NetworkError.
func GetJSON(ctx context.Context, client HTTPClient, name, op, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return &NetworkError{Provider: name, Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return &NetworkError{Provider: name, Op: op, Err: fmt.Errorf("performing request: %w", err)}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 2<<10))
		return &NetworkError{Provider: name, Op: op, StatusCode: res.StatusCode}
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return &NetworkError{Provider: name, Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// NormalizeDecimal validates a decimal string and returns its canonical form
// ("189.8400" -> "189.84"). ok is false for empty or malformed input.
func NormalizeDecimal(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", false
	}
	return d.String(), true
}

// FormatFloat renders an upstream float as the shortest exact decimal string.
func FormatFloat(v float64) string {
	return decimal.NewFromFloat(v).String()
}
