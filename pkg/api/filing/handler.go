// Package filing exposes the 10-K drafting pipeline over HTTP.
package filing

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"tenk_assistant/pkg/core/rag"
)

// Handler provides HTTP handlers for document processing and drafting.
type Handler struct {
	orc *rag.Orchestrator
}

// NewHandler creates a filing handler backed by the given orchestrator.
func NewHandler(orc *rag.Orchestrator) *Handler {
	return &Handler{orc: orc}
}

// ProcessDocumentRequest identifies the filing to ingest.
type ProcessDocumentRequest struct {
	CompanyTicker string `json:"company_ticker"`
	FiscalYear    string `json:"fiscal_year"`
	// FilingURL may be a URL or a local path; empty falls back to the cached
	// copy, then to EDGAR discovery.
	FilingURL string `json:"filing_url,omitempty"`
}

// GenerateRequest identifies the namespace to draft for.
type GenerateRequest struct {
	CompanyTicker string `json:"company_ticker"`
	FiscalYear    string `json:"fiscal_year"`
}

// MDARequest carries free-form financial data alongside the namespace. The
// data is parsed and merged into the session before drafting.
type MDARequest struct {
	CompanyTicker string `json:"company_ticker"`
	FiscalYear    string `json:"fiscal_year"`
	FinancialData string `json:"financial_data,omitempty"`
}

// ParseFinancialDataRequest carries free-form financial text.
type ParseFinancialDataRequest struct {
	UserInput  string `json:"user_input"`
	FiscalYear string `json:"fiscal_year,omitempty"`
}

// HandleProcessDocument ingests and indexes a prior 10-K filing.
func (h *Handler) HandleProcessDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ProcessDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CompanyTicker == "" || req.FiscalYear == "" {
		writeError(w, http.StatusBadRequest, "company_ticker and fiscal_year are required")
		return
	}

	result, err := h.orc.ProcessDocument(r.Context(), req.CompanyTicker, req.FiscalYear, req.FilingURL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":         "success",
		"message":        fmt.Sprintf("Indexed %d chunks for %s", result.ChunkCount, result.Namespace),
		"sections_found": result.Sections,
		"chunk_count":    result.ChunkCount,
	})
}

// HandleGenerate drafts the Item 1. Business section and reports which
// financial data is still needed for the MD&A.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	draft, err := h.orc.GenerateBusiness(r.Context(), req.CompanyTicker, req.FiscalYear)
	if err != nil {
		if errors.Is(err, rag.ErrDocumentNotProcessed) {
			writeError(w, http.StatusBadRequest, "Document not processed. Please call /api/process-document first.")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	questions, err := h.orc.IdentifyMissingFinancialData(r.Context(), req.CompanyTicker, req.FiscalYear)
	if err != nil {
		questions = nil
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"business_section":       draft,
		"missing_data_questions": questions,
		"status":                 "success",
	})
}

// HandleGenerateMDA drafts the Item 7. MD&A section. When the accumulated
// financial data is insufficient the response is 422 with the clarification
// questions instead of a draft.
func (h *Handler) HandleGenerateMDA(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MDARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.FinancialData != "" {
		if _, err := h.orc.RecordFinancialData(req.CompanyTicker, req.FiscalYear, req.FinancialData); err != nil {
			if errors.Is(err, rag.ErrDocumentNotProcessed) {
				writeError(w, http.StatusBadRequest, "Document not processed. Please call /api/process-document first.")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	draft, err := h.orc.GenerateMDA(r.Context(), req.CompanyTicker, req.FiscalYear)
	if err != nil {
		var insufficient *rag.InsufficientFinancialDataError
		if errors.As(err, &insufficient) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":                 "needs_data",
				"missing_data_questions": insufficient.Questions,
			})
			return
		}
		if errors.Is(err, rag.ErrDocumentNotProcessed) {
			writeError(w, http.StatusBadRequest, "Document not processed. Please call /api/process-document first.")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"mda_section": draft,
		"status":      "success",
	})
}

// HandleParseFinancialData parses free-form financial text without touching
// any drafting session.
func (h *Handler) HandleParseFinancialData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ParseFinancialDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record := h.orc.ParseFinancialData(req.UserInput, req.FiscalYear)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"parsed_data": record,
		"metrics":     record.MetricNames(),
		"status":      "success",
	})
}

// HandleHealth reports liveness.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// HandleIndex lists the available endpoints.
func HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"service": "10-K Drafting Assistant",
		"endpoints": map[string]string{
			"POST /api/process-document":     "Download/parse a prior 10-K and index its sections",
			"POST /api/generate":             "Generate Business section and identify missing data",
			"POST /api/generate-mda":         "Generate MD&A section with financial data",
			"POST /api/parse-financial-data": "Parse free-form financial text",
			"GET /health":                    "Health check",
		},
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
