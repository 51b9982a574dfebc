// Package llm provides text-generation and embedding clients for the
// drafting pipeline. External services are treated as request/response
// capabilities behind small interfaces so the orchestrator can be tested
// with doubles.
package llm

import (
	"context"
)

// Provider is the interface for all text-generation providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// Embedder converts text into embedding vectors. Batch-oriented: one call
// embeds an entire chunk set.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
