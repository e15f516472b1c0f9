package finnhub_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bpkennedy/greentoe-sub001/internal/provider/finnhub"
)

// quoteBody builds a well-formed upstream quote response.
func quoteBody(t *testing.T) io.ReadCloser {
	t.Helper()
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(map[string]any{
		"c": 261.74, "d": 2.29, "dp": 0.8792,
		"h": 263.31, "l": 260.68, "o": 261.07, "pc": 259.45,
		"t": 1582641000,
	}))
	return io.NopCloser(buffer)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	// Assert: a valid token should return a client.
	client, err := finnhub.NewClient("test")
	require.NoErrorf(t, err, "unexpected error: %v", err)
	require.NotNilf(t, client, "unexpected nil client")

	// Assert: an empty token should be rejected.
	client, err = finnhub.NewClient("")
	require.Error(t, err)
	require.Nil(t, client)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       quoteBody(t),
			}, nil
		}).
		Times(1)

	// Arrange: create a new client with a custom HTTP client.
	client, err := finnhub.NewClient("test", finnhub.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call FetchQuote through the custom HTTP client.
	_, err = client.FetchQuote(t.Context(), "AAPL")
	require.NoError(t, err)
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Arrange: define a base url
	baseURL := "http://localhost:8080"

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       quoteBody(t),
			}, nil
		}).
		Times(1)

	// Arrange: create a new client.
	client, err := finnhub.NewClient("test", finnhub.WithHTTPClient(httpClient), finnhub.WithBaseURL(baseURL))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call FetchQuote against the overridden base URL.
	_, err = client.FetchQuote(t.Context(), "AAPL")
	require.NoError(t, err)
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method and check both headers arrive
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			require.Equal(t, "test", req.Header.Get("X-Finnhub-Token"))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       quoteBody(t),
			}, nil
		}).
		Times(1)

	// Arrange: create a new client with a custom header.
	client, err := finnhub.NewClient("test", finnhub.WithHTTPClient(httpClient), finnhub.WithHeader(http.Header{
		"foo": []string{"bar"},
	}))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call FetchQuote with the custom header.
	_, err = client.FetchQuote(t.Context(), "AAPL")
	require.NoError(t, err)
}
