// Package suggest orders symbol-search results for presentation.
package suggest

import (
	"sort"
	"strings"

	"github.com/bpkennedy/greentoe-sub001/internal/quote"
)

// Rank de-duplicates suggestions by symbol and orders them by relevance
// to query: exact symbol match, then symbol prefix, then description
// substring, then the rest; ties break alphabetically by symbol. A
// positive limit truncates the result. Output order is deterministic
// for a given input.
func Rank(query string, in []quote.Suggestion, limit int) []quote.Suggestion {
	q := strings.ToUpper(strings.TrimSpace(query))

	// Collapse duplicate symbols, first occurrence wins.
	seen := make(map[string]struct{}, len(in))
	out := make([]quote.Suggestion, 0, len(in))
	for _, s := range in {
		sym := strings.ToUpper(strings.TrimSpace(s.Symbol))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		s.Symbol = sym
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		ri, rj := relevance(q, out[i]), relevance(q, out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i].Symbol < out[j].Symbol
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// relevance buckets a suggestion; lower sorts first.
func relevance(q string, s quote.Suggestion) int {
	if q == "" {
		return 3
	}
	switch {
	case s.Symbol == q:
		return 0
	case strings.HasPrefix(s.Symbol, q):
		return 1
	case strings.Contains(strings.ToUpper(s.Description), q):
		return 2
	default:
		return 3
	}
}
