// Package finnhub adapts the Finnhub REST API to the quote provider
// contract. Transport and status failures are mapped onto the service
// error taxonomy here so nothing upstream-specific leaks past this
// package.
package finnhub

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bpkennedy/greentoe-sub001/internal/quote"
)

// baseURL is the default API endpoint.
const baseURL = "https://finnhub.io/api/v1"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=finnhub_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Finnhub API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains headers sent with each request, including the
	// API token.
	header http.Header
}

// ClientOption is a configuration option for the Finnhub API client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new Finnhub API client. The token is required.
func NewClient(token string, options ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, errors.New("finnhub: api token is required")
	}
	var client = &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	// This is the header that authenticates every request.
	// https://finnhub.io/docs/api/authentication
	client.header.Set("X-Finnhub-Token", token)
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// Name identifies this provider in logs.
func (c *Client) Name() string { return "finnhub" }

// statusError maps a non-2xx upstream status onto the error taxonomy.
func statusError(status int) *quote.Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return quote.NewUpstreamAuth("upstream rejected credentials")
	case status == http.StatusTooManyRequests:
		return quote.NewRateLimited("upstream quota exhausted")
	case status >= 500:
		return quote.NewUpstream(fmt.Sprintf("upstream returned status %d", status), true)
	default:
		return quote.NewUpstream(fmt.Sprintf("unexpected status code: %d", status), false)
	}
}
