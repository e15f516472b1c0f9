package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bpkennedy/greentoe-sub001/internal/quote"
)

// searchResponse mirrors the upstream symbol-search payload.
//
//	{
//	  "count": 1,
//	  "result": [
//	    {
//	      "description": "APPLE INC",
//	      "displaySymbol": "AAPL",
//	      "symbol": "AAPL",
//	      "type": "Common Stock"
//	    }
//	  ]
//	}
type searchResponse struct {
	Count  int            `json:"count"`
	Result []searchResult `json:"result"`
}

type searchResult struct {
	Symbol        string `json:"symbol"`
	DisplaySymbol string `json:"displaySymbol"`
	Description   string `json:"description"`
	Type          string `json:"type"`
}

// SearchSymbols retrieves symbol suggestions matching query.
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]quote.Suggestion, error) {
	values := url.Values{}
	values.Set("q", query)

	u := fmt.Sprintf("%s/search?%s", c.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, quote.NewUpstream("creating request failed", false).WithCause(err)
	}
	req.Header = c.header

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, quote.NewUpstream("performing request failed", true).WithCause(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, statusError(res.StatusCode)
	}

	var body searchResponse
	dec := json.NewDecoder(res.Body)
	if err := dec.Decode(&body); err != nil {
		return nil, quote.NewUpstream("decoding search response failed", false).WithCause(err)
	}

	out := make([]quote.Suggestion, 0, len(body.Result))
	for _, r := range body.Result {
		out = append(out, quote.Suggestion{
			Symbol:        r.Symbol,
			DisplaySymbol: r.DisplaySymbol,
			Description:   r.Description,
			Type:          r.Type,
		})
	}
	return out, nil
}
