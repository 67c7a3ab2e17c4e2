// Package metadata fetches display metadata (page title, preview image)
// for proposal URLs. The engine's computations never depend on it; a
// failed fetch just leaves the display fields empty.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Fetcher resolves a URL to a page title and preview image URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (title, image string, err error)
}

var (
	titleRe   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	ogImageRe = regexp.MustCompile(`(?is)<meta[^>]+property=["']og:image["'][^>]+content=["']([^"']+)["']`)
)

// maxBodyBytes bounds how much of a page is read when scraping metadata.
const maxBodyBytes = 512 * 1024

// HTTPFetcher scrapes title and og:image from the page behind a URL.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher returns a fetcher with a bounded request timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: 10 * time.Second}}
}

// Fetch downloads the page and extracts <title> and og:image content.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to build metadata request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("metadata fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", "", fmt.Errorf("failed to read metadata body: %w", err)
	}

	var title, image string
	if m := titleRe.FindSubmatch(body); m != nil {
		title = strings.TrimSpace(string(m[1]))
	}
	if m := ogImageRe.FindSubmatch(body); m != nil {
		image = strings.TrimSpace(string(m[1]))
	}
	return title, image, nil
}
