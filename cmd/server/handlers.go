package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bpkennedy/greentoe-sub001/internal/quote"
	"github.com/bpkennedy/greentoe-sub001/internal/quote/suggest"
)

// maxBatchSymbols caps one POST /api/quotes request.
const maxBatchSymbols = 100

type api struct {
	svc            *quote.Service
	log            *zap.Logger
	searchMax      int
	requestTimeout time.Duration
}

func (a *api) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /api/quotes/{symbol}", a.handleGetQuote)
	mux.HandleFunc("POST /api/quotes", a.handlePostQuotes)
	mux.HandleFunc("GET /api/search", a.handleSearch)
}

func (a *api) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type quoteResponse struct {
	Quote quote.Quote `json:"quote"`
}

func (a *api) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := a.svc.Lookup(r.Context(), r.PathValue("symbol"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{Quote: q})
}

type batchRequest struct {
	Symbols []string `json:"symbols"`
}

type batchError struct {
	Symbol  string `json:"symbol"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type batchResponse struct {
	Quotes []quote.Quote `json:"quotes"`
	Errors []batchError  `json:"errors,omitempty"`
}

// handlePostQuotes looks up every requested symbol through the same
// cached, deduplicated path as the single-quote route, so duplicate
// symbols inside one batch still cost one upstream fetch. Partial
// failures are reported per symbol instead of failing the batch.
func (a *api) handlePostQuotes(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		a.writeError(w, r, quote.NewInvalidSymbol("invalid JSON body"))
		return
	}
	if len(body.Symbols) == 0 {
		a.writeError(w, r, quote.NewInvalidSymbol("symbols cannot be empty"))
		return
	}
	if len(body.Symbols) > maxBatchSymbols {
		a.writeError(w, r, quote.NewInvalidSymbol("too many symbols"))
		return
	}

	ctx := r.Context()
	if a.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.requestTimeout)
		defer cancel()
	}

	// fan out concurrently; collect results in request order
	quotes := make([]*quote.Quote, len(body.Symbols))
	errs := make([]error, len(body.Symbols))
	var wg sync.WaitGroup
	for i, raw := range body.Symbols {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			q, err := a.svc.Lookup(ctx, raw)
			if err != nil {
				errs[i] = err
				return
			}
			quotes[i] = &q
		}(i, raw)
	}
	wg.Wait()

	resp := batchResponse{Quotes: make([]quote.Quote, 0, len(body.Symbols))}
	for i := range body.Symbols {
		if errs[i] != nil {
			qerr := quote.Normalize(errs[i])
			resp.Errors = append(resp.Errors, batchError{
				Symbol:  body.Symbols[i],
				Code:    string(qerr.Kind),
				Message: qerr.Message,
			})
			continue
		}
		resp.Quotes = append(resp.Quotes, *quotes[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

type searchResponse struct {
	Results []quote.Suggestion `json:"results"`
}

func (a *api) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results, err := a.svc.Search(r.Context(), query)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Results: suggest.Rank(query, results, a.searchMax),
	})
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError renders the one error envelope every route uses. Only the
// typed kind and message go to the caller; causes stay in the logs.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	qerr := quote.Normalize(err)
	status := qerr.StatusCode()
	reqID := requestIDFrom(r.Context())

	a.log.Warn("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("code", string(qerr.Kind)),
		zap.Int("status", status),
		zap.String("request_id", reqID),
		zap.Error(err),
	)
	writeJSON(w, status, errorResponse{Error: errorDetail{
		Code:      string(qerr.Kind),
		Message:   qerr.Message,
		Retryable: qerr.CanRetry,
		RequestID: reqID,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
