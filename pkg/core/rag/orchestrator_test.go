package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenk_assistant/pkg/core/config"
	"tenk_assistant/pkg/core/ingest"
	"tenk_assistant/pkg/core/vectorstore"
)

type stubEmbedder struct{}

func (stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	// Uniform vectors; retrieval order then follows chunk position.
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type stubProvider struct {
	respond     func(prompt, system string, options map[string]interface{}) (string, error)
	lastPrompt  string
	lastSystem  string
	lastOptions map[string]interface{}
}

func (s *stubProvider) GenerateResponse(ctx context.Context, prompt, system string, options map[string]interface{}) (string, error) {
	s.lastPrompt = prompt
	s.lastSystem = system
	s.lastOptions = options
	return s.respond(prompt, system, options)
}

func writeSampleFiling(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString("<p>Item 1. Business</p>")
	b.WriteString("<p>We build accelerated computing platforms. ")
	b.WriteString(strings.Repeat("Our segments serve data center and gaming markets. ", 10))
	b.WriteString("</p><p>Item 2. Properties</p><p>We lease offices.</p>")
	b.WriteString("<p>Item 7. Management's Discussion and Analysis</p>")
	b.WriteString("<p>Revenue grew on data center demand. ")
	b.WriteString(strings.Repeat("Margins expanded across the year. ", 10))
	b.WriteString("</p><p>Item 8. Financial Statements</p><p>Statements follow.</p>")
	b.WriteString("</body></html>")

	path := filepath.Join(t.TempDir(), "filing.html")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func newTestOrchestrator(t *testing.T, provider *stubProvider) *Orchestrator {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	fetcher := ingest.NewFetcher(filepath.Join(cfg.DataDir, "filings"), time.Millisecond)
	store := vectorstore.NewMemoryStore(stubEmbedder{})
	return NewOrchestrator(cfg, fetcher, store, provider, NewMemorySessionStore())
}

func TestGenerateBusinessRequiresProcessing(t *testing.T) {
	orc := newTestOrchestrator(t, &stubProvider{})

	_, err := orc.GenerateBusiness(context.Background(), "NVDA", "2024")
	assert.ErrorIs(t, err, ErrDocumentNotProcessed)
}

func TestRecordFinancialDataRequiresProcessing(t *testing.T) {
	orc := newTestOrchestrator(t, &stubProvider{})

	_, err := orc.RecordFinancialData("NVDA", "2024", "Revenue: $50B")
	assert.ErrorIs(t, err, ErrDocumentNotProcessed)
}

func TestProcessDocumentIndexesSections(t *testing.T) {
	orc := newTestOrchestrator(t, &stubProvider{})

	result, err := orc.ProcessDocument(context.Background(), "nvda", "2024", writeSampleFiling(t))
	require.NoError(t, err)

	assert.Equal(t, "NVDA_2024", result.Namespace.String())
	assert.Greater(t, result.ChunkCount, 0)
	assert.Contains(t, result.Sections, ingest.SectionBusiness)
	assert.Contains(t, result.Sections, ingest.SectionMDA)
	assert.Contains(t, result.Sections, ingest.SectionFullDocument)
}

func TestGenerateBusinessUsesRetrievedContext(t *testing.T) {
	provider := &stubProvider{
		respond: func(prompt, system string, options map[string]interface{}) (string, error) {
			return "```markdown\nItem 1 draft body.\n```", nil
		},
	}
	orc := newTestOrchestrator(t, provider)
	ctx := context.Background()

	_, err := orc.ProcessDocument(ctx, "NVDA", "2024", writeSampleFiling(t))
	require.NoError(t, err)

	draft, err := orc.GenerateBusiness(ctx, "NVDA", "2024")
	require.NoError(t, err)

	assert.Equal(t, "Item 1 draft body.", draft, "code fences must be stripped")
	assert.Contains(t, provider.lastPrompt, "NVDA")
	assert.Contains(t, provider.lastPrompt, "2024")
	assert.Contains(t, provider.lastPrompt, "accelerated computing", "prompt must carry retrieved context")
	assert.Contains(t, provider.lastSystem, "securities lawyer")
}

func TestGenerateMDAWithoutDataReturnsQuestions(t *testing.T) {
	provider := &stubProvider{
		respond: func(prompt, system string, options map[string]interface{}) (string, error) {
			return `["What was total revenue?", "What was net income?"]`, nil
		},
	}
	orc := newTestOrchestrator(t, provider)
	ctx := context.Background()

	_, err := orc.ProcessDocument(ctx, "NVDA", "2024", writeSampleFiling(t))
	require.NoError(t, err)

	_, err = orc.GenerateMDA(ctx, "NVDA", "2024")
	var insufficient *InsufficientFinancialDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, []string{"What was total revenue?", "What was net income?"}, insufficient.Questions)
}

func TestGenerateMDAFallsBackToTemplatedQuestions(t *testing.T) {
	provider := &stubProvider{
		respond: func(prompt, system string, options map[string]interface{}) (string, error) {
			return "", fmt.Errorf("model unavailable")
		},
	}
	orc := newTestOrchestrator(t, provider)
	ctx := context.Background()

	_, err := orc.ProcessDocument(ctx, "NVDA", "2024", writeSampleFiling(t))
	require.NoError(t, err)

	_, err = orc.GenerateMDA(ctx, "NVDA", "2024")
	var insufficient *InsufficientFinancialDataError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Questions, 3)
	assert.Contains(t, insufficient.Questions[0], "Total Revenue")
	assert.Contains(t, insufficient.Questions[0], "2024")
}

func TestGenerateMDAWithCompleteData(t *testing.T) {
	provider := &stubProvider{
		respond: func(prompt, system string, options map[string]interface{}) (string, error) {
			return "MD&A draft referencing the numbers.", nil
		},
	}
	orc := newTestOrchestrator(t, provider)
	ctx := context.Background()

	_, err := orc.ProcessDocument(ctx, "NVDA", "2024", writeSampleFiling(t))
	require.NoError(t, err)

	record, err := orc.RecordFinancialData("NVDA", "2024",
		"Total revenue: $60.9B. Net income: $29.8B. Cash flow from operations: $28B.")
	require.NoError(t, err)
	require.Len(t, record, 3)

	draft, err := orc.GenerateMDA(ctx, "NVDA", "2024")
	require.NoError(t, err)
	assert.Equal(t, "MD&A draft referencing the numbers.", draft)
	assert.Contains(t, provider.lastPrompt, "Total Revenue", "prompt must carry the financial data")
	assert.Contains(t, provider.lastPrompt, "60,900,000,000.00")
}

func TestRecordFinancialDataAccumulatesAcrossTurns(t *testing.T) {
	orc := newTestOrchestrator(t, &stubProvider{})
	ctx := context.Background()

	_, err := orc.ProcessDocument(ctx, "NVDA", "2024", writeSampleFiling(t))
	require.NoError(t, err)

	first, err := orc.RecordFinancialData("NVDA", "2024", "Total revenue: $60B")
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := orc.RecordFinancialData("NVDA", "2024", "Net income: $29B. Total revenue: $61B")
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.InDelta(t, 61e9, second["Total Revenue"], 1, "restated metric must override")
}

func TestGenerateMDAWithAvailableDataSkipsCheck(t *testing.T) {
	provider := &stubProvider{
		respond: func(prompt, system string, options map[string]interface{}) (string, error) {
			return "Context-only MD&A draft.", nil
		},
	}
	orc := newTestOrchestrator(t, provider)
	ctx := context.Background()

	_, err := orc.ProcessDocument(ctx, "NVDA", "2024", writeSampleFiling(t))
	require.NoError(t, err)

	draft, err := orc.GenerateMDAWithAvailableData(ctx, "NVDA", "2024")
	require.NoError(t, err)
	assert.Equal(t, "Context-only MD&A draft.", draft)
	assert.Contains(t, provider.lastPrompt, "No financial data provided.")
}

func TestReprocessingReplacesIndex(t *testing.T) {
	orc := newTestOrchestrator(t, &stubProvider{})
	ctx := context.Background()
	path := writeSampleFiling(t)

	first, err := orc.ProcessDocument(ctx, "NVDA", "2024", path)
	require.NoError(t, err)
	second, err := orc.ProcessDocument(ctx, "NVDA", "2024", path)
	require.NoError(t, err)

	assert.Equal(t, first.ChunkCount, second.ChunkCount, "reprocessing the same filing must be idempotent")
}

func TestParseQuestionListFallsBackToBullets(t *testing.T) {
	raw := "Here is what is needed:\n- What was total revenue?\n- What was gross margin?\nThanks."
	questions := parseQuestionList(raw)
	assert.Equal(t, []string{"What was total revenue?", "What was gross margin?"}, questions)
}

func TestParseQuestionListHandlesFencedJSON(t *testing.T) {
	raw := "```json\n[\"Q1?\", \"Q2?\"]\n```"
	assert.Equal(t, []string{"Q1?", "Q2?"}, parseQuestionList(raw))
}

func TestInsufficientFinancialDataErrorMessage(t *testing.T) {
	err := &InsufficientFinancialDataError{Questions: []string{"a", "b"}}
	assert.Contains(t, err.Error(), "2 metric(s)")
}
