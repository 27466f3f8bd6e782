package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedInterval is returned for intervals a provider cannot serve.
var ErrUnsupportedInterval = errors.New("unsupported interval")

// NetworkError reports a transport failure or a non-2xx status.
type NetworkError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d", e.Provider, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NoDataError reports a well-formed response missing the expected payload.
type NoDataError struct {
	Provider string
	Symbol   string
	Field    string
	Detail   string
}

func (e *NoDataError) Error() string {
	msg := fmt.Sprintf("%s: no %s for %s", e.Provider, e.Field, e.Symbol)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// AllProvidersFailedError is returned once every configured quote provider failed.
type AllProvidersFailedError struct {
	Symbol string
	Errs   []error
}

func (e *AllProvidersFailedError) Error() string {
	if len(e.Errs) == 0 {
		return fmt.Sprintf("all providers failed for %s: no providers configured", e.Symbol)
	}
	parts := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("all providers failed for %s: %s", e.Symbol, strings.Join(parts, "; "))
}

func (e *AllProvidersFailedError) Unwrap() []error { return e.Errs }
