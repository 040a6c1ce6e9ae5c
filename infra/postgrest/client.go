package postgrest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/framez/framez/infra/auth"
)

// Client is a thin HTTP wrapper for a Supabase-style REST backend.
// It handles base URL construction, the project api key, bearer token
// injection, and client-side rate limiting.
type Client struct {
	baseURL string
	apiKey  string
	tokens  auth.TokenProvider
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a REST client. requestsPerSecond bounds outgoing
// calls; zero or negative disables the limiter.
func NewClient(baseURL, apiKey string, tokens auth.TokenProvider, requestsPerSecond float64) *Client {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), int(requestsPerSecond)+1)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		tokens:  tokens,
		http:    &http.Client{},
		limiter: limiter,
	}
}

// do performs an authenticated request and returns the response body and
// headers. Extra headers (Prefer, Content-Type overrides) come from hdr.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, hdr http.Header) ([]byte, http.Header, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	token, err := c.tokens.AccessToken()
	if err != nil {
		return nil, nil, fmt.Errorf("auth: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("API %s %s returned %d: %s", method, path, resp.StatusCode, string(data))
	}

	return data, resp.Header, nil
}
