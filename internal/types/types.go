// Package types defines the shared data model for audit runs and results.
package types

import (
	"net/url"
	"time"
)

// Strategy selects the device profile an audit is run with.
type Strategy string

const (
	StrategyMobile  Strategy = "mobile"
	StrategyDesktop Strategy = "desktop"
)

// Metrics holds the normalized outcome of auditing a single route.
// Category scores are 0-100 integers; timing fields are milliseconds
// except CLS, which is a unitless ratio. A field that the audit did not
// produce is zero, indistinguishable from a genuine zero score.
type Metrics struct {
	Performance   int `json:"performance"`
	Accessibility int `json:"accessibility"`
	BestPractices int `json:"bestPractices"`
	SEO           int `json:"seo"`

	FCP float64 `json:"fcp"`
	LCP float64 `json:"lcp"`
	CLS float64 `json:"cls"`
	FID float64 `json:"fid"`
	TBT float64 `json:"tbt"`
	SI  float64 `json:"si"`
}

// IsZero reports whether every field is zero, the shape recorded for a
// failed route.
func (m Metrics) IsZero() bool {
	return m == Metrics{}
}

// VitalDetail is the audit tool's own per-metric record: the raw value in
// the tool's native unit, its 0-100 rating (independent of category
// scores), and the human-formatted display string.
type VitalDetail struct {
	Value        float64 `json:"value"`
	Score        int     `json:"score"`
	DisplayValue string  `json:"displayValue"`
	Title        string  `json:"title"`
}

// CoreWebVitals maps a metric key (fcp, lcp, cls, tbt, si, fid) to its
// detail record. Only metrics the audit actually reported are present.
type CoreWebVitals map[string]VitalDetail

// AverageScores holds the per-run rounded mean of each category score
// across all audited routes.
type AverageScores struct {
	Performance   int `json:"performance"`
	Accessibility int `json:"accessibility"`
	BestPractices int `json:"bestPractices"`
	SEO           int `json:"seo"`
}

// RouteConfig describes one path audited within a run.
type RouteConfig struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Name string `json:"name"`
}

// RunResult is one complete test execution: every configured route
// audited once against a single base URL. It is immutable after
// creation; CreatedAt and UpdatedAt are assigned by the remote store.
type RunResult struct {
	ID        string        `json:"id"`
	Domain    string        `json:"domain"`
	URL       string        `json:"url"`
	Timestamp time.Time     `json:"timestamp"`
	Routes    []RouteConfig `json:"routes"`
	Results   *RouteResults `json:"results"`
	AvgScores AverageScores `json:"avg_scores"`
	CreatedAt *time.Time    `json:"created_at,omitempty"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
}

// DomainFromURL extracts the hostname from a base URL. A string that
// does not parse as a URL (or parses without a host) is returned
// unchanged so that history grouping still has a stable key.
func DomainFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
