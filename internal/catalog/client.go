// Package catalog talks to the metadata catalog's GraphQL endpoint.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Executor runs one GraphQL document and returns the response "data" object.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
}

// DefaultURL is used when no server URL is configured.
const DefaultURL = "http://localhost:8080"

// Client represents the catalog GraphQL API client
type Client struct {
	URL        string
	Token      string
	HttpClient *http.Client

	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HttpClient = hc
		}
	}
}

// WithTimeout sets a per-request timeout on the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.HttpClient
			hc.Timeout = d
			c.HttpClient = &hc
		}
	}
}

// WithRateLimit caps requests per second. rps <= 0 disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates a new catalog client
func NewClient(url string, token string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}

	c := &Client{
		URL:        strings.TrimRight(url, "/"),
		Token:      token,
		HttpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is a GraphQL-level error reported by the server.
type Error struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

func (e Error) Error() string { return e.Message }

// ErrEmptyData is returned when the server answers without a data object.
var ErrEmptyData = errors.New("catalog: response has no data")

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors"`
}

// Execute posts the query to <URL>/api/graphql.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("error waiting for rate limiter: %w", err)
		}
	}

	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL+"/api/graphql", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}

	var result graphQLResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}
	if len(result.Errors) > 0 {
		errs := make([]error, 0, len(result.Errors))
		for _, e := range result.Errors {
			errs = append(errs, e)
		}
		return nil, fmt.Errorf("graphql: %w", errors.Join(errs...))
	}
	if len(result.Data) == 0 || string(result.Data) == "null" {
		return nil, ErrEmptyData
	}
	return result.Data, nil
}

// Ping runs a one-row glossary term search and returns the reported total.
func (c *Client) Ping(ctx context.Context) (int, error) {
	data, err := c.Execute(ctx, TermsQuery.Document, map[string]any{
		"input": map[string]any{
			"type":  "GLOSSARY_TERM",
			"query": "*",
			"start": 0,
			"count": 1,
		},
	})
	if err != nil {
		return 0, err
	}
	page, err := DecodePage(data, TermsQuery.ResultPath)
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

var _ Executor = (*Client)(nil)
