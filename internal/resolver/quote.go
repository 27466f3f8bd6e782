package resolver

import (
	"context"
	"log"

	"github.com/VenCasMet/finboard/internal/provider"
)

// Quotes resolves a symbol against an ordered fallback chain of providers.
// Each provider is tried exactly once per resolution, first success wins.
// Quotes keeps no cache; a provider may answer from its own price memo, in
// which case the returned quote has a nil OHLC.
type Quotes struct {
	Providers []provider.QuoteProvider
}

func NewQuotes(providers ...provider.QuoteProvider) *Quotes {
	return &Quotes{Providers: providers}
}

// Resolve returns the first successful quote, or *provider.AllProvidersFailedError.
func (r *Quotes) Resolve(ctx context.Context, symbol string) (provider.Quote, error) {
	sym := provider.NormalizeSymbol(symbol)
	errs := make([]error, 0, len(r.Providers))
	for _, p := range r.Providers {
		q, err := p.Quote(ctx, sym)
		if err == nil {
			return q, nil
		}
		log.Printf("[WARN] quote %s: %s failed: %v", sym, p.Name(), err)
		errs = append(errs, err)
	}
	return provider.Quote{}, &provider.AllProvidersFailedError{Symbol: sym, Errs: errs}
}
