// Package ratelimit wraps a provider with client-side throttles so the
// service stays inside the upstream quota.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/bpkennedy/greentoe-sub001/internal/quote"
)

// MinInterval wraps a provider and enforces a minimum time between
// upstream calls, quote fetches and searches combined. Waiting callers
// return early if their context is canceled.
type MinInterval struct {
	P        quote.Provider
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) FetchQuote(ctx context.Context, symbol string) (quote.Quote, error) {
	if err := m.pause(ctx); err != nil {
		return quote.Quote{}, err
	}
	q, err := m.P.FetchQuote(ctx, symbol)
	m.mark()
	return q, err
}

func (m *MinInterval) SearchSymbols(ctx context.Context, query string) ([]quote.Suggestion, error) {
	if err := m.pause(ctx); err != nil {
		return nil, err
	}
	res, err := m.P.SearchSymbols(ctx, query)
	m.mark()
	return res, err
}

// pause blocks until Interval has elapsed since the last upstream call.
func (m *MinInterval) pause(ctx context.Context) error {
	if m.Interval <= 0 {
		return nil
	}
	m.mu.Lock()
	wait := time.Until(m.last.Add(m.Interval))
	m.mu.Unlock()
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *MinInterval) mark() {
	if m.Interval <= 0 {
		return
	}
	m.mu.Lock()
	m.last = time.Now()
	m.mu.Unlock()
}
