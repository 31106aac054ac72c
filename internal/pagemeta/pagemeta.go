// Package pagemeta fetches a page and extracts the bits of metadata the
// dashboard shows next to a run: title, description, canonical URL.
package pagemeta

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the HTTP request timeout for metadata fetches.
const DefaultTimeout = 15 * time.Second

// userAgent identifies metadata fetches to the audited site.
const userAgent = "Mozilla/5.0 (compatible; sitegauge/1.0)"

// Meta is the extracted page metadata.
type Meta struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Canonical   string `json:"canonical,omitempty"`
}

// Fetcher retrieves page metadata.
type Fetcher struct {
	http *http.Client
}

// NewFetcher returns a Fetcher with the default timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{http: &http.Client{Timeout: DefaultTimeout}}
}

// Fetch downloads the page at url and extracts its metadata.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Meta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}

	return extract(url, doc), nil
}

func extract(url string, doc *goquery.Document) *Meta {
	meta := &Meta{URL: url}

	meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && meta.Title == "" {
		meta.Title = strings.TrimSpace(og)
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		meta.Description = strings.TrimSpace(desc)
	} else if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		meta.Description = strings.TrimSpace(og)
	}

	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		meta.Canonical = strings.TrimSpace(canonical)
	}

	return meta
}
