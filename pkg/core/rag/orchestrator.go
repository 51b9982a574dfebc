// Package rag orchestrates the drafting pipeline: filing ingestion, chunk
// indexing, retrieval, and grounded section generation.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tenk_assistant/pkg/core/config"
	"tenk_assistant/pkg/core/findata"
	"tenk_assistant/pkg/core/ingest"
	"tenk_assistant/pkg/core/llm"
	"tenk_assistant/pkg/core/prompt"
	"tenk_assistant/pkg/core/utils"
	"tenk_assistant/pkg/core/vectorstore"
)

// ErrDocumentNotProcessed is returned by generation operations when the
// prior filing for the namespace has not been processed yet.
var ErrDocumentNotProcessed = errors.New("document not processed for this company and fiscal year")

// InsufficientFinancialDataError reports that MD&A generation cannot proceed
// until the user supplies more data. Questions phrase what is still needed.
type InsufficientFinancialDataError struct {
	Questions []string
}

func (e *InsufficientFinancialDataError) Error() string {
	return fmt.Sprintf("insufficient financial data: %d metric(s) still needed", len(e.Questions))
}

// ProcessResult summarizes one document processing run.
type ProcessResult struct {
	Namespace  vectorstore.Namespace `json:"namespace"`
	ChunkCount int                   `json:"chunk_count"`
	Sections   []ingest.SectionName  `json:"sections"`
}

// Orchestrator wires the pipeline stages together and owns the drafting
// workflow state.
type Orchestrator struct {
	cfg       *config.Config
	fetcher   *ingest.Fetcher
	extractor *ingest.SectionExtractor
	chunker   *ingest.Chunker
	parser    *findata.Parser
	store     vectorstore.Store
	provider  llm.Provider
	sessions  SessionStore
}

// NewOrchestrator assembles an orchestrator from its injected stages.
func NewOrchestrator(cfg *config.Config, fetcher *ingest.Fetcher, store vectorstore.Store, provider llm.Provider, sessions SessionStore) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: ingest.NewSectionExtractor(),
		chunker:   ingest.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		parser:    findata.NewParser(),
		store:     store,
		provider:  provider,
		sessions:  sessions,
	}
}

// ProcessDocument fetches a prior 10-K, extracts its sections, chunks them
// and indexes the chunks under the (ticker, fiscalYear) namespace. Rerunning
// replaces the namespace contents entirely.
func (o *Orchestrator) ProcessDocument(ctx context.Context, ticker, fiscalYear, source string) (*ProcessResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" || fiscalYear == "" {
		return nil, fmt.Errorf("ticker and fiscal year are required")
	}
	ns := vectorstore.Namespace{Ticker: ticker, FiscalYear: fiscalYear}

	log.Printf("[Orchestrator] Processing document for %s", ns)
	text, err := o.fetcher.Fetch(ctx, ticker, source)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch filing: %w", err)
	}

	sections := o.extractor.Extract(text)

	var chunks []ingest.Chunk
	var names []ingest.SectionName
	for _, sec := range sections {
		names = append(names, sec.Name)
		chunks = append(chunks, o.chunker.Split(sec.Name, sec.Text)...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("filing for %s yielded no chunks", ns)
	}

	if err := o.store.Upsert(ctx, ns, chunks); err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	sess, ok := o.sessions.Get(ns)
	if !ok {
		sess = &Session{Namespace: ns, FinancialData: make(findata.FinancialRecord)}
	}
	sess.Processed = true
	sess.ChunkCount = len(chunks)
	sess.Sections = names
	o.sessions.Put(sess)

	log.Printf("[Orchestrator] Indexed %d chunks for %s (%d sections)", len(chunks), ns, len(names))
	return &ProcessResult{Namespace: ns, ChunkCount: len(chunks), Sections: names}, nil
}

// GenerateBusiness drafts the Item 1. Business section from retrieved prior
// filing context.
func (o *Orchestrator) GenerateBusiness(ctx context.Context, ticker, fiscalYear string) (string, error) {
	ns, sess, err := o.requireProcessed(ticker, fiscalYear)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf("Item 1 Business description operations products services %s", ns.Ticker)
	contextText, err := o.retrieve(ctx, ns, query, o.cfg.TopK)
	if err != nil {
		return "", err
	}

	pt, err := prompt.Get().GetPrompt(prompt.PromptIDs.DraftBusiness)
	if err != nil {
		return "", err
	}
	userPrompt, err := pt.Render(prompt.NewContext().
		Set("Ticker", ns.Ticker).
		Set("FiscalYear", ns.FiscalYear).
		Set("Context", contextText))
	if err != nil {
		return "", err
	}

	log.Printf("[Orchestrator] Generating Business section for %s", ns)
	draft, err := o.provider.GenerateResponse(ctx, userPrompt, pt.SystemPrompt, nil)
	if err != nil {
		return "", fmt.Errorf("business generation failed: %w", err)
	}

	o.sessions.Put(sess)
	return utils.CleanMarkdown(draft), nil
}

// RecordFinancialData parses free-form financial input and merges it into
// the session's accumulated record. Later statements of the same metric
// override earlier ones. The full accumulated record is returned.
func (o *Orchestrator) RecordFinancialData(ticker, fiscalYear, input string) (findata.FinancialRecord, error) {
	_, sess, err := o.requireProcessed(ticker, fiscalYear)
	if err != nil {
		return nil, err
	}

	parsed := o.parser.Parse(input, fiscalYear)
	if sess.FinancialData == nil {
		sess.FinancialData = make(findata.FinancialRecord)
	}
	for k, v := range parsed {
		sess.FinancialData[k] = v
	}
	o.sessions.Put(sess)

	log.Printf("[Orchestrator] Recorded %d metric(s) for %s (%d total)", len(parsed), sess.Namespace, len(sess.FinancialData))
	return sess.FinancialData, nil
}

// ParseFinancialData parses input without touching any session; used by the
// standalone parse endpoint.
func (o *Orchestrator) ParseFinancialData(input, fiscalYear string) findata.FinancialRecord {
	return o.parser.Parse(input, fiscalYear)
}

// IdentifyMissingFinancialData asks the model which metrics are still needed
// for the MD&A, given the prior filing context and what the user has already
// provided. Falls back to templated questions when the model's answer cannot
// be parsed.
func (o *Orchestrator) IdentifyMissingFinancialData(ctx context.Context, ticker, fiscalYear string) ([]string, error) {
	ns, sess, err := o.requireProcessed(ticker, fiscalYear)
	if err != nil {
		return nil, err
	}

	missing := o.uncoveredMetrics(sess)
	if len(missing) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf("Item 7 MD&A financial data revenue operating income cash flow %s", ns.Ticker)
	contextText, err := o.retrieve(ctx, ns, query, 3)
	if err != nil {
		return nil, err
	}

	pt, err := prompt.Get().GetPrompt(prompt.PromptIDs.MissingMetrics)
	if err != nil {
		return nil, err
	}
	userPrompt, err := pt.Render(prompt.NewContext().
		Set("Ticker", ns.Ticker).
		Set("FiscalYear", ns.FiscalYear).
		Set("Context", contextText))
	if err != nil {
		return nil, err
	}

	options := map[string]interface{}{
		"temperature":     0.1,
		"response_format": map[string]interface{}{"type": "json_object"},
	}
	raw, err := o.provider.GenerateResponse(ctx, userPrompt, pt.SystemPrompt, options)
	if err != nil {
		log.Printf("[Orchestrator] Missing-data identification failed for %s, using fallback questions: %v", ns, err)
		return fallbackQuestions(missing, ns.FiscalYear), nil
	}

	if questions := parseQuestionList(raw); len(questions) > 0 {
		return questions, nil
	}
	return fallbackQuestions(missing, ns.FiscalYear), nil
}

// GenerateMDA drafts the Item 7. MD&A section. When the accumulated
// financial data does not cover the required metrics, it returns an
// InsufficientFinancialDataError listing the clarification questions instead
// of drafting from incomplete numbers.
func (o *Orchestrator) GenerateMDA(ctx context.Context, ticker, fiscalYear string) (string, error) {
	ns, sess, err := o.requireProcessed(ticker, fiscalYear)
	if err != nil {
		return "", err
	}

	if missing := o.uncoveredMetrics(sess); len(missing) > 0 {
		questions, qErr := o.IdentifyMissingFinancialData(ctx, ticker, fiscalYear)
		if qErr != nil || len(questions) == 0 {
			questions = fallbackQuestions(missing, ns.FiscalYear)
		}
		return "", &InsufficientFinancialDataError{Questions: questions}
	}

	return o.draftMDA(ctx, ns, sess)
}

// GenerateMDAWithAvailableData drafts the MD&A from whatever financial data
// has been collected, without the required-metrics check. The interactive
// CLI uses this after the user declines to provide more.
func (o *Orchestrator) GenerateMDAWithAvailableData(ctx context.Context, ticker, fiscalYear string) (string, error) {
	ns, sess, err := o.requireProcessed(ticker, fiscalYear)
	if err != nil {
		return "", err
	}
	return o.draftMDA(ctx, ns, sess)
}

func (o *Orchestrator) draftMDA(ctx context.Context, ns vectorstore.Namespace, sess *Session) (string, error) {
	query := fmt.Sprintf("Item 7 MD&A management discussion analysis financial results %s", ns.Ticker)
	contextText, err := o.retrieve(ctx, ns, query, o.cfg.TopK)
	if err != nil {
		return "", err
	}

	pt, err := prompt.Get().GetPrompt(prompt.PromptIDs.DraftMDA)
	if err != nil {
		return "", err
	}
	userPrompt, err := pt.Render(prompt.NewContext().
		Set("Ticker", ns.Ticker).
		Set("FiscalYear", ns.FiscalYear).
		Set("Context", contextText).
		Set("FinancialData", sess.FinancialData.Format()))
	if err != nil {
		return "", err
	}

	log.Printf("[Orchestrator] Generating MD&A section for %s with %d metric(s)", ns, len(sess.FinancialData))
	draft, err := o.provider.GenerateResponse(ctx, userPrompt, pt.SystemPrompt, nil)
	if err != nil {
		return "", fmt.Errorf("MD&A generation failed: %w", err)
	}

	return utils.CleanMarkdown(draft), nil
}

// FinancialData returns the accumulated record for the namespace, or nil if
// no session exists.
func (o *Orchestrator) FinancialData(ticker, fiscalYear string) findata.FinancialRecord {
	ns := vectorstore.Namespace{Ticker: strings.ToUpper(strings.TrimSpace(ticker)), FiscalYear: fiscalYear}
	if sess, ok := o.sessions.Get(ns); ok {
		return sess.FinancialData
	}
	return nil
}

// requireProcessed resolves the session for (ticker, fiscalYear), failing
// with ErrDocumentNotProcessed when processing has not happened yet.
func (o *Orchestrator) requireProcessed(ticker, fiscalYear string) (vectorstore.Namespace, *Session, error) {
	ns := vectorstore.Namespace{Ticker: strings.ToUpper(strings.TrimSpace(ticker)), FiscalYear: fiscalYear}
	sess, ok := o.sessions.Get(ns)
	if !ok || !sess.Processed {
		return ns, nil, fmt.Errorf("%w: %s", ErrDocumentNotProcessed, ns)
	}
	return ns, sess, nil
}

// retrieve runs a similarity query and joins the hits into one context block.
func (o *Orchestrator) retrieve(ctx context.Context, ns vectorstore.Namespace, query string, k int) (string, error) {
	hits, err := o.store.Query(ctx, ns, query, k)
	if err != nil {
		if errors.Is(err, vectorstore.ErrNamespaceNotFound) {
			return "", fmt.Errorf("%w: %s", ErrDocumentNotProcessed, ns)
		}
		return "", fmt.Errorf("retrieval failed: %w", err)
	}

	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Chunk.Text)
	}
	return strings.Join(parts, "\n\n---\n\n"), nil
}

// uncoveredMetrics returns the required metrics the session's record does
// not yet cover. Coverage is a case-insensitive containment check either
// way, so "Revenue" satisfies "Total Revenue" and vice versa.
func (o *Orchestrator) uncoveredMetrics(sess *Session) []string {
	var missing []string
	for _, required := range o.cfg.RequiredMetrics {
		if !coversMetric(sess.FinancialData, required) {
			missing = append(missing, required)
		}
	}
	return missing
}

func coversMetric(rec findata.FinancialRecord, required string) bool {
	req := strings.ToLower(required)
	for name := range rec {
		have := strings.ToLower(strings.TrimSuffix(name, " (%)"))
		if strings.Contains(have, req) || strings.Contains(req, have) {
			return true
		}
	}
	return false
}

// parseQuestionList extracts a list of question strings from model output.
// The JSON-array case is handled leniently (repair, hjson); as a last resort
// bullet or numbered lines are split out.
func parseQuestionList(raw string) []string {
	raw = utils.CleanMarkdown(raw)

	var questions []string
	if err := utils.SmartParse(raw, &questions); err == nil {
		return trimNonEmpty(questions)
	}

	// Some models wrap the array in an object.
	var wrapped map[string][]string
	if err := utils.SmartParse(raw, &wrapped); err == nil {
		for _, v := range wrapped {
			if len(v) > 0 {
				return trimNonEmpty(v)
			}
		}
	}

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789. )")
		if strings.Contains(line, "?") {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	return lines
}

func trimNonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func fallbackQuestions(missing []string, fiscalYear string) []string {
	questions := make([]string, 0, len(missing))
	for _, m := range missing {
		questions = append(questions, fmt.Sprintf("What was the %s for fiscal year %s?", m, fiscalYear))
	}
	return questions
}
