// Package graphql provides the GraphQL HTTP transport used by every
// OptiSigns manager, together with the shared error taxonomy.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the production OptiSigns GraphQL gateway.
const DefaultEndpoint = "https://graphql-gateway.optisigns.com/graphql"

// HTTPClient is the Client implementation that POSTs GraphQL documents to a
// single endpoint with a bearer token. Its configuration is immutable after
// construction, so one instance can be shared by concurrent callers.
type HTTPClient struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// Option customizes an HTTPClient at construction time.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets a per-request timeout. Zero or negative leaves requests
// bounded only by the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// NewHTTPClient validates endpoint and token and returns a ready client.
// An empty endpoint selects DefaultEndpoint. A malformed endpoint or a blank
// token yields a *ConfigurationError and no network activity.
func NewHTTPClient(endpoint, token string, opts ...Option) (*HTTPClient, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &ConfigurationError{Err: ErrMissingCredential}
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	c := &HTTPClient{
		httpClient: &http.Client{},
		endpoint:   endpoint,
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// validateEndpoint requires an absolute http(s) URL with a host.
func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ConfigurationError{Err: fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigurationError{Err: ErrInvalidEndpoint}
	}
	return nil
}

// Endpoint returns the configured endpoint exactly as it was supplied.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// request is the JSON body shape for a GraphQL HTTP request.
type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// response is the standard GraphQL envelope.
type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Execute sends one GraphQL document and returns the raw "data" bytes.
//
// Execute returns a *ResponseError when the server answers with a non-2xx
// status or with a populated "errors" array; any message the server sent is
// kept on the error. Network and decode failures are returned wrapped.
func (c *HTTPClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	bodyBytes, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("graphql: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("graphql: read response: %w", err)
	}

	var gqlResp response
	decodeErr := json.Unmarshal(raw, &gqlResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Error bodies are often GraphQL envelopes too; keep their messages
		// when they decode and fall back to the bare status otherwise.
		return nil, &ResponseError{StatusCode: resp.StatusCode, Errors: gqlResp.Errors}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("graphql: decode response: %w", decodeErr)
	}
	if len(gqlResp.Errors) > 0 {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Errors: gqlResp.Errors}
	}

	return []byte(gqlResp.Data), nil
}
