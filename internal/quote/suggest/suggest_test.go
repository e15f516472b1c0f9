package suggest

import (
	"testing"

	"github.com/bpkennedy/greentoe-sub001/internal/quote"
)

func sgs(symbols ...string) []quote.Suggestion {
	out := make([]quote.Suggestion, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, quote.Suggestion{Symbol: s, DisplaySymbol: s})
	}
	return out
}

func TestRank_ExactBeforePrefixBeforeRest(t *testing.T) {
	in := sgs("APLE", "AAPL.SW", "AAPL", "MSFT")
	out := Rank("aapl", in, 0)
	if len(out) != 4 {
		t.Fatalf("want 4 rows, got %d: %+v", len(out), out)
	}
	if out[0].Symbol != "AAPL" {
		t.Fatalf("exact match not first: %+v", out)
	}
	if out[1].Symbol != "AAPL.SW" {
		t.Fatalf("prefix match not second: %+v", out)
	}
}

func TestRank_DescriptionMatchBeatsUnrelated(t *testing.T) {
	in := []quote.Suggestion{
		{Symbol: "ZZZZ", Description: "Zeta Holdings"},
		{Symbol: "HPQ", Description: "Apple orchard equipment"},
	}
	out := Rank("apple", in, 0)
	if out[0].Symbol != "HPQ" {
		t.Fatalf("description match should rank above unrelated: %+v", out)
	}
}

func TestRank_DedupeKeepsFirstOccurrence(t *testing.T) {
	in := []quote.Suggestion{
		{Symbol: "AAPL", Description: "Apple Inc"},
		{Symbol: "aapl", Description: "duplicate row"},
		{Symbol: " AAPL ", Description: "another duplicate"},
	}
	out := Rank("AAPL", in, 0)
	if len(out) != 1 {
		t.Fatalf("want 1 row after dedupe, got %d: %+v", len(out), out)
	}
	if out[0].Description != "Apple Inc" {
		t.Fatalf("dedupe kept the wrong row: %+v", out[0])
	}
}

func TestRank_LimitTruncates(t *testing.T) {
	in := sgs("A", "B", "C", "D", "E")
	out := Rank("", in, 3)
	if len(out) != 3 {
		t.Fatalf("want 3 rows, got %d", len(out))
	}
	// Without a query everything ties; alphabetical order decides.
	if out[0].Symbol != "A" || out[1].Symbol != "B" || out[2].Symbol != "C" {
		t.Fatalf("unexpected order: %+v", out)
	}
}

func TestRank_SkipsBlankSymbols(t *testing.T) {
	in := []quote.Suggestion{{Symbol: "  "}, {Symbol: "IBM"}}
	out := Rank("ibm", in, 0)
	if len(out) != 1 || out[0].Symbol != "IBM" {
		t.Fatalf("blank symbol survived: %+v", out)
	}
}
