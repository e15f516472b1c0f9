package main

import (
	"compress/gzip"
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bpkennedy/greentoe-sub001/internal/config"
	"github.com/bpkennedy/greentoe-sub001/internal/httpx"
	"github.com/bpkennedy/greentoe-sub001/internal/logging"
	"github.com/bpkennedy/greentoe-sub001/internal/provider/finnhub"
	"github.com/bpkennedy/greentoe-sub001/internal/provider/ratelimit"
	"github.com/bpkennedy/greentoe-sub001/internal/quote"
	"github.com/bpkennedy/greentoe-sub001/internal/quote/cache"
)

func main() {
	// Config
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.File)
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

	// Prefer token bucket with burst if RPM is set, otherwise min-interval
	var upstream quote.Provider = fh
	if cfg.Finnhub.MaxRequestsPerMinute > 0 {
		rate := float64(cfg.Finnhub.MaxRequestsPerMinute) / 60.0
		burst := cfg.Finnhub.Burst
		if burst <= 0 {
			burst = 1
		}
		upstream = &ratelimit.TokenBucketProvider{P: upstream, TB: ratelimit.NewTokenBucket(rate, burst)}
	} else if cfg.Finnhub.MinRequestIntervalSec > 0 {
		interval := time.Duration(cfg.Finnhub.MinRequestIntervalSec) * time.Second
		upstream = &ratelimit.MinInterval{P: upstream, Interval: interval}
	}

	store := cache.New(
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
	)
	svc := quote.NewService(upstream, store,
		quote.WithFetchTimeout(time.Duration(cfg.Finnhub.TimeoutSec)*time.Second),
		quote.WithLogger(logger),
	)

	a := &api{
		svc:            svc,
		log:            logger,
		searchMax:      cfg.Search.MaxResults,
		requestTimeout: time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
	}
	mux := http.NewServeMux()
	a.routes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withRequestID(withJSONHeaders(withGzip(recoverPanic(logger, limitBody(mux))))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	stats := store.Stats()
	logger.Info("server stopped",
		zap.Uint64("cache_hits", stats.Hits),
		zap.Uint64("cache_misses", stats.Misses),
		zap.Int("cache_entries", stats.Entries),
	)
}

type requestIDKey struct{}

// withRequestID tags every request with an X-Request-ID, honoring one
// the caller already sent, and echoes it on the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses the response when the client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		// Prefer best speed to reduce CPU usage since payloads are JSON
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		next.ServeHTTP(w, r)
	})
}

// recoverPanic protects handlers from panics. The panic value goes to
// the log; the caller sees only the generic envelope.
func recoverPanic(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("request_id", requestIDFrom(r.Context())),
				)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorDetail{
					Code:      "internal_error",
					Message:   "internal server error",
					RequestID: requestIDFrom(r.Context()),
				}})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
