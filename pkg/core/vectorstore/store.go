// Package vectorstore provides the namespaced chunk index backing retrieval.
// A namespace is one (ticker, fiscal year) pair; upserting a namespace
// replaces whatever it previously held.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tenk_assistant/pkg/core/ingest"
)

// ErrNamespaceNotFound is returned by Query when the namespace has never
// been upserted.
var ErrNamespaceNotFound = errors.New("namespace not found")

// Namespace scopes an indexed chunk collection to one company and year.
type Namespace struct {
	Ticker     string
	FiscalYear string
}

func (n Namespace) String() string {
	return fmt.Sprintf("%s_%s", strings.ToUpper(n.Ticker), n.FiscalYear)
}

// ScoredChunk is a retrieval hit with its similarity to the query.
type ScoredChunk struct {
	Chunk      ingest.Chunk `json:"chunk"`
	Similarity float64      `json:"similarity"`
}

// Store indexes chunks and answers similarity queries. Implementations embed
// chunk and query text themselves via an injected embedder.
type Store interface {
	// Upsert replaces the namespace's contents with the given chunks.
	Upsert(ctx context.Context, ns Namespace, chunks []ingest.Chunk) error

	// Query returns the k most similar chunks, sorted by descending
	// similarity, ties broken by ascending chunk position. Returns
	// ErrNamespaceNotFound if the namespace was never upserted.
	Query(ctx context.Context, ns Namespace, queryText string, k int) ([]ScoredChunk, error)
}
