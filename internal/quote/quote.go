package quote

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the normalized snapshot for a single ticker symbol.
// Prices are decimals so upstream digits survive the trip to callers
// without float rounding.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Current       decimal.Decimal `json:"current"`
	Change        decimal.Decimal `json:"change"`
	PercentChange decimal.Decimal `json:"percent_change"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Open          decimal.Decimal `json:"open"`
	PrevClose     decimal.Decimal `json:"prev_close"`
	Timestamp     time.Time       `json:"timestamp"`
	FetchedAt     time.Time       `json:"fetched_at"`
}

// Suggestion is one symbol-search match.
type Suggestion struct {
	Symbol        string `json:"symbol"`
	DisplaySymbol string `json:"display_symbol"`
	Description   string `json:"description"`
	Type          string `json:"type"`
}

// Provider is the upstream a Service fetches from. Implementations map
// their own transport failures onto *Error so callers see one taxonomy.
type Provider interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (Quote, error)
	SearchSymbols(ctx context.Context, query string) ([]Suggestion, error)
}

// NormalizeSymbol canonicalizes caller input so "  aapl " and "AAPL"
// share one cache entry and one in-flight fetch.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
