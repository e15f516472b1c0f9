package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bpkennedy/greentoe-sub001/internal/config"
	"github.com/bpkennedy/greentoe-sub001/internal/httpx"
	"github.com/bpkennedy/greentoe-sub001/internal/logging"
	"github.com/bpkennedy/greentoe-sub001/internal/provider/finnhub"
	"github.com/bpkennedy/greentoe-sub001/internal/provider/ratelimit"
	"github.com/bpkennedy/greentoe-sub001/internal/quote"
	"github.com/bpkennedy/greentoe-sub001/internal/quote/cache"
	"github.com/bpkennedy/greentoe-sub001/internal/quote/suggest"
)

type lookupError struct {
	Symbol  string `json:"symbol"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type lookupOutput struct {
	Quotes []quote.Quote `json:"quotes"`
	Errors []lookupError `json:"errors,omitempty"`
}

type searchOutput struct {
	Results []quote.Suggestion `json:"results"`
}

func main() {
	var symbolsCSV string
	var search string
	var configPath string
	var timeout int
	var concurrency int

	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "AAPL"), "comma-separated ticker symbols to look up")
	flag.StringVar(&search, "search", "", "free-text symbol search instead of quote lookups")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.yaml (optional)")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 30), "overall run timeout in seconds")
	flag.IntVar(&concurrency, "concurrency", 4, "max concurrent lookups")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, "")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Finnhub.APIKey == "" {
		logger.Fatal("FINNHUB_API_KEY is required")
	}

	httpClient := httpx.New(time.Duration(cfg.Finnhub.TimeoutSec) * time.Second)
	opts := []finnhub.ClientOption{finnhub.WithHTTPClient(httpClient)}
	if cfg.Finnhub.BaseURL != "" {
		opts = append(opts, finnhub.WithBaseURL(cfg.Finnhub.BaseURL))
	}
	fh, err := finnhub.NewClient(cfg.Finnhub.APIKey, opts...)
	if err != nil {
		logger.Fatal("finnhub client", zap.Error(err))
	}

	var upstream quote.Provider = fh
	if cfg.Finnhub.MaxRequestsPerMinute > 0 {
		rate := float64(cfg.Finnhub.MaxRequestsPerMinute) / 60.0
		burst := cfg.Finnhub.Burst
		if burst <= 0 {
			burst = 1
		}
		upstream = &ratelimit.TokenBucketProvider{P: upstream, TB: ratelimit.NewTokenBucket(rate, burst)}
	} else if cfg.Finnhub.MinRequestIntervalSec > 0 {
		upstream = &ratelimit.MinInterval{P: upstream, Interval: time.Duration(cfg.Finnhub.MinRequestIntervalSec) * time.Second}
	}

	// The cache still earns its keep in a one-shot run: repeated symbols
	// on the command line cost a single upstream call.
	store := cache.New(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	svc := quote.NewService(upstream, store,
		quote.WithFetchTimeout(time.Duration(cfg.Finnhub.TimeoutSec)*time.Second),
		quote.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if search != "" {
		runSearch(ctx, logger, svc, search, cfg.Search.MaxResults)
		return
	}
	runLookups(ctx, logger, svc, splitCSV(symbolsCSV), concurrency)
}

func runSearch(ctx context.Context, logger *zap.Logger, svc *quote.Service, query string, limit int) {
	results, err := svc.Search(ctx, query)
	if err != nil {
		logger.Fatal("search failed", zap.String("query", query), zap.Error(err))
	}
	printJSON(searchOutput{Results: suggest.Rank(query, results, limit)})
}

func runLookups(ctx context.Context, logger *zap.Logger, svc *quote.Service, symbols []string, concurrency int) {
	if len(symbols) == 0 {
		logger.Fatal("no symbols provided")
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	quotes := make([]*quote.Quote, len(symbols))
	errs := make([]error, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			q, err := svc.Lookup(gctx, sym)
			if err != nil {
				// Partial results are fine; report per symbol below.
				errs[i] = err
				return nil
			}
			quotes[i] = &q
			return nil
		})
	}
	_ = g.Wait()

	out := lookupOutput{Quotes: make([]quote.Quote, 0, len(symbols))}
	for i, sym := range symbols {
		if errs[i] != nil {
			qerr := quote.Normalize(errs[i])
			logger.Warn("lookup failed",
				zap.String("symbol", sym),
				zap.String("code", string(qerr.Kind)),
			)
			out.Errors = append(out.Errors, lookupError{Symbol: sym, Code: string(qerr.Kind), Message: qerr.Message})
			continue
		}
		out.Quotes = append(out.Quotes, *quotes[i])
	}
	printJSON(out)

	if len(out.Quotes) == 0 {
		logger.Fatal("no quotes received")
	}
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encode output: %v", err)
	}
	fmt.Println(string(b))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 {
			return x
		}
	}
	return def
}
