package ingest

// SEC EDGAR filing discovery: resolves the latest 10-K download URL from a
// bare ticker when no filing source is given.
// API documentation: https://www.sec.gov/developer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	secSubmissionsURL = "https://data.sec.gov/submissions/CIK%s.json"
	secArchivesURL    = "https://www.sec.gov/Archives/edgar/data/%s/%s"
	secTickersURL     = "https://www.sec.gov/files/company_tickers.json"

	// Declared User-Agent per SEC automated-access guidelines
	edgarUserAgent = "TenKAssistant/1.0 (contact@example.com)"
)

// Filing identifies one SEC filing and where to download it.
type Filing struct {
	AccessionNumber string    `json:"accession_number"`
	FilingDate      time.Time `json:"filing_date"`
	ReportDate      time.Time `json:"report_date"`
	FormType        string    `json:"form_type"`
	PrimaryDocument string    `json:"primary_document"`
	URL             string    `json:"url"`
}

// secSubmissions is the submissions endpoint response. Filing attributes
// arrive as parallel arrays.
type secSubmissions struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			ReportDate      []string `json:"reportDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// LookupCIKByTicker resolves a ticker symbol to a zero-padded 10-digit CIK
// using the SEC's published ticker mapping.
func (f *Fetcher) LookupCIKByTicker(ctx context.Context, ticker string) (string, error) {
	body, err := f.getJSON(ctx, secTickersURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch ticker mapping: %w", err)
	}

	// Response shape: { "0": {"cik_str": 320193, "ticker": "AAPL", ...}, ... }
	var mapping map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(body, &mapping); err != nil {
		return "", fmt.Errorf("failed to parse ticker mapping: %w", err)
	}

	ticker = strings.ToUpper(ticker)
	for _, entry := range mapping {
		if entry.Ticker == ticker {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	return "", fmt.Errorf("ticker %s not found in SEC database", ticker)
}

// FetchLatest10K finds the most recent 10-K filing for a ticker and returns
// its metadata, including a direct download URL.
func (f *Fetcher) FetchLatest10K(ctx context.Context, ticker string) (*Filing, error) {
	cik, err := f.LookupCIKByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	body, err := f.getJSON(ctx, fmt.Sprintf(secSubmissionsURL, cik))
	if err != nil {
		return nil, fmt.Errorf("SEC submissions request failed: %w", err)
	}

	var subs secSubmissions
	if err := json.Unmarshal(body, &subs); err != nil {
		return nil, fmt.Errorf("failed to parse SEC submissions: %w", err)
	}

	recent := subs.Filings.Recent
	for i := range recent.AccessionNumber {
		if recent.Form[i] != "10-K" {
			continue
		}
		filingDate, _ := time.Parse("2006-01-02", recent.FilingDate[i])
		reportDate, _ := time.Parse("2006-01-02", recent.ReportDate[i])
		accessionNoDashes := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		return &Filing{
			AccessionNumber: recent.AccessionNumber[i],
			FilingDate:      filingDate,
			ReportDate:      reportDate,
			FormType:        recent.Form[i],
			PrimaryDocument: recent.PrimaryDocument[i],
			URL:             fmt.Sprintf(secArchivesURL, subs.CIK, accessionNoDashes+"/"+recent.PrimaryDocument[i]),
		}, nil
	}

	return nil, fmt.Errorf("no 10-K filings found for %s", ticker)
}

// getJSON performs a throttled GET against an SEC JSON endpoint.
func (f *Fetcher) getJSON(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", edgarUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SEC API returned status %d for %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}
