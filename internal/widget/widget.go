package widget

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind selects what a widget displays.
type Kind string

const (
	Card  Kind = "card"
	Table Kind = "table"
	Chart Kind = "chart"
)

// Kinds lists every supported widget kind.
var Kinds = []Kind{Card, Table, Chart}

// ErrInvalid is returned when a descriptor cannot be built from user input.
var ErrInvalid = errors.New("invalid widget")

func (k Kind) Valid() bool {
	switch k {
	case Card, Table, Chart:
		return true
	}
	return false
}

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalid, s)
	}
	return k, nil
}

// Descriptor is the persisted identity of a widget. ID never changes once assigned.
type Descriptor struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Kind   Kind   `json:"type"`
	Symbol string `json:"symbol"`
}

// New validates user input and assigns a fresh id.
func New(title string, kind Kind, symbol string) (Descriptor, error) {
	title = strings.TrimSpace(title)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case title == "":
		return Descriptor{}, fmt.Errorf("%w: empty title", ErrInvalid)
	case symbol == "":
		return Descriptor{}, fmt.Errorf("%w: empty symbol", ErrInvalid)
	case !kind.Valid():
		return Descriptor{}, fmt.Errorf("%w: unknown type %q", ErrInvalid, kind)
	}
	return Descriptor{
		ID:     uuid.NewString(),
		Title:  title,
		Kind:   kind,
		Symbol: symbol,
	}, nil
}
