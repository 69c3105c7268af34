package backend

import (
	"errors"
	"net/http"
	"strings"
)

const baseURL = "http://localhost:5000"

// ErrUnexpectedStatus is returned for any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=backend_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// BackendAPIClient is a client for the stock tracker backend: the user's
// watchlist collection and the account endpoints.
type BackendAPIClient struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// BackendAPIClientOption is a configuration option for the backend API client.
type BackendAPIClientOption func(*BackendAPIClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) BackendAPIClientOption {
	return func(c *BackendAPIClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) BackendAPIClientOption {
	return func(c *BackendAPIClient) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) BackendAPIClientOption {
	return func(c *BackendAPIClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewBackendAPIClient creates a new backend API client.
func NewBackendAPIClient(options ...BackendAPIClientOption) (*BackendAPIClient, error) {
	var backendAPIClient = &BackendAPIClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(backendAPIClient)
	}
	return backendAPIClient, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
