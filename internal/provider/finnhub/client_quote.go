package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bpkennedy/greentoe-sub001/internal/quote"
)

// quoteResponse mirrors the upstream quote payload.
//
//	{
//	  "c": 261.74,
//	  "d": 2.29,
//	  "dp": 0.8792,
//	  "h": 263.31,
//	  "l": 260.68,
//	  "o": 261.07,
//	  "pc": 259.45,
//	  "t": 1582641000
//	}
type quoteResponse struct {
	Current       json.Number `json:"c"`
	Change        json.Number `json:"d"`
	PercentChange json.Number `json:"dp"`
	High          json.Number `json:"h"`
	Low           json.Number `json:"l"`
	Open          json.Number `json:"o"`
	PrevClose     json.Number `json:"pc"`
	Timestamp     int64       `json:"t"`
}

// FetchQuote retrieves the current quote for symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (quote.Quote, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	u := fmt.Sprintf("%s/quote?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return quote.Quote{}, quote.NewUpstream("creating request failed", false).WithCause(err)
	}
	req.Header = c.header

	res, err := c.httpClient.Do(req)
	if err != nil {
		return quote.Quote{}, quote.NewUpstream("performing request failed", true).WithCause(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return quote.Quote{}, statusError(res.StatusCode)
	}

	var body quoteResponse
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return quote.Quote{}, quote.NewUpstream("decoding quote response failed", false).WithCause(err)
	}

	// The upstream answers unknown symbols with 200 and an all-zero
	// payload rather than an error status.
	if body.Timestamp == 0 {
		return quote.Quote{}, quote.NewInvalidSymbol("unknown symbol: " + symbol)
	}

	out := quote.Quote{
		Symbol:    symbol,
		Timestamp: time.Unix(body.Timestamp, 0).UTC(),
	}
	fields := []struct {
		name string
		dst  *decimal.Decimal
		src  json.Number
	}{
		{"c", &out.Current, body.Current},
		{"d", &out.Change, body.Change},
		{"dp", &out.PercentChange, body.PercentChange},
		{"h", &out.High, body.High},
		{"l", &out.Low, body.Low},
		{"o", &out.Open, body.Open},
		{"pc", &out.PrevClose, body.PrevClose},
	}
	for _, f := range fields {
		d, err := parseDecimal(f.src)
		if err != nil {
			return quote.Quote{}, quote.NewUpstream(fmt.Sprintf("decoding %s failed", f.name), false).WithCause(err)
		}
		*f.dst = d
	}
	return out, nil
}

// parseDecimal converts a wire number into a decimal without going
// through float64, so the upstream digits survive verbatim. Absent and
// null fields count as zero.
func parseDecimal(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.NewFromString(n.String())
}
