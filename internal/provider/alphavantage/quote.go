package alphavantage

import (
	"context"
	"fmt"
	"net/url"

	"github.com/VenCasMet/finboard/internal/provider"
)

type globalQuoteResponse struct {
	apiMessages
	// {
	//   "Global Quote": {
	//     "01. symbol": "IBM",
	//     "02. open": "189.8400",
	//     "03. high": "191.1000",
	//     "04. low": "188.6500",
	//     "05. price": "190.4200",
	//     ...
	//   }
	// }
	GlobalQuote map[string]string `json:"Global Quote"`
}

// Quote returns the GLOBAL_QUOTE for symbol, or the memoized price.
func (c *Client) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	sym := provider.NormalizeSymbol(symbol)
	if sym == "" {
		return provider.Quote{}, &provider.NoDataError{Provider: Name, Field: "price", Detail: "empty symbol"}
	}

	if price, ok := c.memo.Get(ctx, sym); ok {
		return provider.Quote{
			Symbol:     sym,
			Price:      price,
			Cached:     true,
			Source:     Name,
			ReceivedAt: c.now(),
		}, nil
	}

	if err := c.wait(ctx, "quote"); err != nil {
		return provider.Quote{}, err
	}

	query := url.Values{}
	query.Set("function", "GLOBAL_QUOTE")
	query.Set("symbol", sym)
	query.Set("apikey", c.key)

	var body globalQuoteResponse
	u := fmt.Sprintf("%s/query?%s", c.baseURL, query.Encode())
	if err := provider.GetJSON(ctx, c.httpClient, Name, "quote", u, &body); err != nil {
		return provider.Quote{}, err
	}

	price, ok := provider.NormalizeDecimal(body.GlobalQuote["05. price"])
	if !ok {
		return provider.Quote{}, &provider.NoDataError{Provider: Name, Symbol: sym, Field: "price", Detail: body.detail()}
	}

	c.memo.Put(ctx, sym, price)

	return provider.Quote{
		Symbol: sym,
		Price:  price,
		OHLC: &provider.OHLC{
			Open:  decimalOrRaw(body.GlobalQuote["02. open"]),
			High:  decimalOrRaw(body.GlobalQuote["03. high"]),
			Low:   decimalOrRaw(body.GlobalQuote["04. low"]),
			Price: price,
		},
		Source:     Name,
		ReceivedAt: c.now(),
	}, nil
}

func decimalOrRaw(s string) string {
	if d, ok := provider.NormalizeDecimal(s); ok {
		return d
	}
	return s
}
