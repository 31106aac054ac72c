package audit

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avelar/sitegauge/internal/types"
)

// DefaultEndpoint is the hosted PageSpeed Insights v5 endpoint.
const DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// DefaultTimeout bounds one hosted audit call. PageSpeed regularly takes
// 30-60s for slow pages.
const DefaultTimeout = 90 * time.Second

// categories requested on every call; the normalizer expects all four.
var categories = []string{"performance", "accessibility", "best-practices", "seo"}

// PageSpeedClient calls the hosted PageSpeed Insights API.
type PageSpeedClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// PageSpeedOption customizes a PageSpeedClient.
type PageSpeedOption func(*PageSpeedClient)

// WithEndpoint overrides the API endpoint (used in tests).
func WithEndpoint(endpoint string) PageSpeedOption {
	return func(c *PageSpeedClient) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) PageSpeedOption {
	return func(c *PageSpeedClient) { c.http = h }
}

// NewPageSpeedClient creates a hosted API client. The API key may be
// empty; Google allows a small unauthenticated quota.
func NewPageSpeedClient(apiKey string, opts ...PageSpeedOption) *PageSpeedClient {
	c := &PageSpeedClient{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the provider in logs and artifacts.
func (c *PageSpeedClient) Name() string { return "pagespeed" }

// Audit runs one hosted audit and returns the raw response body.
func (c *PageSpeedClient) Audit(ctx context.Context, target string, strategy types.Strategy) ([]byte, error) {
	q := url.Values{}
	q.Set("url", target)
	q.Set("strategy", string(strategy))
	for _, cat := range categories {
		q.Add("category", cat)
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, URL: target, Cause: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: target, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: target, Cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &Error{Kind: KindRateLimited, URL: target, Status: resp.StatusCode, Body: string(body)}
	case resp.StatusCode == http.StatusBadRequest:
		// PageSpeed reports unreachable/invalid target URLs as 400s.
		return nil, &Error{Kind: KindInvalidURL, URL: target, Status: resp.StatusCode, Body: string(body)}
	default:
		return nil, &Error{Kind: KindUpstream, URL: target, Status: resp.StatusCode, Body: string(body)}
	}
}
