package quote

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store is the quote cache the service reads through. Get must only
// report entries that are still fresh and must not mutate state.
type Store interface {
	Get(symbol string) (Quote, bool)
	Set(symbol string, q Quote)
}

// Service fronts a Provider with a freshness-bounded cache and collapses
// concurrent lookups for one symbol into a single upstream fetch. Each
// Service owns its own flight table, so independent instances never
// share coordination state.
type Service struct {
	provider     Provider
	store        Store
	fetchTimeout time.Duration
	log          *zap.Logger

	flights singleflight.Group
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithFetchTimeout bounds each upstream fetch. The timeout is the only
// thing that cancels a claimed fetch; callers hanging up does not.
func WithFetchTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(p Provider, store Store, opts ...ServiceOption) *Service {
	s := &Service{
		provider:     p,
		store:        store,
		fetchTimeout: 5 * time.Second,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the current quote for raw. The symbol is normalized
// first; a fresh cache entry is served without touching the upstream;
// otherwise one fetch runs per symbol and every concurrent caller shares
// its outcome. Failures propagate as *Error and are never cached.
func (s *Service) Lookup(ctx context.Context, raw string) (Quote, error) {
	symbol := NormalizeSymbol(raw)
	if symbol == "" {
		return Quote{}, NewInvalidSymbol("symbol is required")
	}

	if q, ok := s.store.Get(symbol); ok {
		return q, nil
	}

	v, err, shared := s.flights.Do(symbol, func() (any, error) {
		// The fetch is detached from the leader's request context: a
		// caller hanging up must not fail the callers sharing the
		// flight. The fetch timeout is the only cancellation.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		q, err := s.provider.FetchQuote(fctx, symbol)
		if err != nil {
			return nil, err
		}
		q.Symbol = symbol
		if q.FetchedAt.IsZero() {
			q.FetchedAt = time.Now().UTC()
		}
		s.store.Set(symbol, q)
		return q, nil
	})
	if err != nil {
		qerr := Normalize(err)
		s.log.Warn("quote fetch failed",
			zap.String("symbol", symbol),
			zap.String("kind", string(qerr.Kind)),
			zap.Bool("can_retry", qerr.CanRetry),
			zap.Bool("shared", shared),
			zap.Error(err),
		)
		return Quote{}, qerr
	}

	q := v.(Quote)
	s.log.Debug("quote fetched",
		zap.String("symbol", symbol),
		zap.String("provider", s.provider.Name()),
		zap.Bool("shared", shared),
	)
	return q, nil
}

// Search returns symbol suggestions for query. A blank query resolves to
// an empty result without an upstream call.
func (s *Service) Search(ctx context.Context, query string) ([]Suggestion, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []Suggestion{}, nil
	}

	res, err := s.provider.SearchSymbols(ctx, q)
	if err != nil {
		qerr := Normalize(err)
		s.log.Warn("symbol search failed",
			zap.String("query", q),
			zap.String("kind", string(qerr.Kind)),
			zap.Error(err),
		)
		return nil, qerr
	}
	if res == nil {
		res = []Suggestion{}
	}
	return res, nil
}
