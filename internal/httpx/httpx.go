// Package httpx builds http.Clients with sane transport defaults for
// talking to upstream quote APIs.
package httpx

import (
	"net"
	"net/http"
	"time"
)

const defaultUserAgent = "greentoe/1.0"

// New returns an http.Client with pooled connections and aggressive
// per-phase timeouts. The overall request deadline is the caller's
// timeout argument.
func New(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{next: transport},
	}
}

// userAgentTransport stamps a User-Agent on requests that do not carry one.
type userAgentTransport struct {
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", defaultUserAgent)
	}
	return t.next.RoundTrip(req)
}
