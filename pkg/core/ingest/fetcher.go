// Package ingest handles filing retrieval, section extraction and chunking
// for the 10-K drafting pipeline.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// BrowserUserAgent is sent on filing downloads. SEC rejects requests without
// a User-Agent header.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Fetcher retrieves 10-K filings from a URL or a local path. Outbound
// requests share one politeness limiter, process-wide, regardless of which
// namespace is being processed.
type Fetcher struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	documentsDir string
}

// NewFetcher creates a fetcher that caches downloads under documentsDir and
// spaces network requests by at least requestDelay.
func NewFetcher(documentsDir string, requestDelay time.Duration) *Fetcher {
	if requestDelay <= 0 {
		requestDelay = 100 * time.Millisecond
	}
	return &Fetcher{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(rate.Every(requestDelay), 1),
		documentsDir: documentsDir,
	}
}

// Fetch returns the plain text of a filing for ticker.
//
// source may be an http(s) URL, a local file path, or empty. An empty source
// falls back to a previously downloaded copy in the documents directory, then
// to EDGAR discovery of the company's latest 10-K.
func (f *Fetcher) Fetch(ctx context.Context, ticker string, source string) (string, error) {
	var html string
	var err error

	switch {
	case source == "":
		cached := f.cachePath(ticker)
		if data, readErr := os.ReadFile(cached); readErr == nil {
			html = string(data)
			break
		}

		filing, edgarErr := f.FetchLatest10K(ctx, ticker)
		if edgarErr != nil {
			return "", fmt.Errorf("no filing source given, no cached document at %s, and EDGAR lookup failed: %w", cached, edgarErr)
		}
		log.Printf("[Fetcher] Resolved latest 10-K for %s: %s (filed %s)",
			ticker, filing.AccessionNumber, filing.FilingDate.Format("2006-01-02"))
		html, err = f.download(ctx, ticker, filing.URL)
		if err != nil {
			return "", err
		}
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		html, err = f.download(ctx, ticker, source)
		if err != nil {
			return "", err
		}
	default:
		data, readErr := os.ReadFile(source)
		if readErr != nil {
			return "", fmt.Errorf("failed to read local filing %s: %w", source, readErr)
		}
		html = string(data)
	}

	text := HTMLToText(html)
	if len(text) == 0 {
		return "", fmt.Errorf("filing for %s produced no text content", ticker)
	}
	return text, nil
}

// download fetches the filing HTML and caches it on disk.
func (f *Fetcher) download(ctx context.Context, ticker string, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download filing for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("filing download for %s returned status %d", ticker, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read filing body: %w", err)
	}

	if f.documentsDir != "" {
		path := f.cachePath(ticker)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			if writeErr := os.WriteFile(path, body, 0644); writeErr != nil {
				log.Printf("[Fetcher] Failed to cache filing for %s: %v", ticker, writeErr)
			}
		}
	}

	return string(body), nil
}

func (f *Fetcher) cachePath(ticker string) string {
	return filepath.Join(f.documentsDir, fmt.Sprintf("%s_10k.html", strings.ToUpper(ticker)))
}

// HTMLToText strips markup and returns the visible text of an HTML document.
// Script, style and noscript subtrees are dropped entirely.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Not HTML at all; treat the input as already-plain text.
		return strings.TrimSpace(html)
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Text())
}
