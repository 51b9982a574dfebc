package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"tenk_assistant/pkg/core/ingest"
	"tenk_assistant/pkg/core/llm"
)

// MemoryStore is an in-process Store for development and tests. Contents do
// not survive a restart; production uses PgVectorStore.
type MemoryStore struct {
	mu         sync.RWMutex
	embedder   llm.Embedder
	namespaces map[string][]memoryEntry
}

type memoryEntry struct {
	chunk  ingest.Chunk
	vector []float32
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(embedder llm.Embedder) *MemoryStore {
	return &MemoryStore{
		embedder:   embedder,
		namespaces: make(map[string][]memoryEntry),
	}
}

// Upsert embeds the chunks and replaces the namespace contents.
func (s *MemoryStore) Upsert(ctx context.Context, ns Namespace, chunks []ingest.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks for %s: %w", ns, err)
	}

	entries := make([]memoryEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = memoryEntry{chunk: c, vector: vectors[i]}
	}

	s.mu.Lock()
	s.namespaces[ns.String()] = entries
	s.mu.Unlock()
	return nil
}

// Query returns the top-k chunks by cosine similarity, ties broken by
// original chunk position.
func (s *MemoryStore) Query(ctx context.Context, ns Namespace, queryText string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	s.mu.RLock()
	entries, ok := s.namespaces[ns.String()]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNamespaceNotFound, ns)
	}

	vectors, err := s.embedder.EmbedTexts(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	query := vectors[0]

	results := make([]ScoredChunk, 0, len(entries))
	for _, e := range entries {
		results = append(results, ScoredChunk{
			Chunk:      e.chunk,
			Similarity: cosineSimilarity(query, e.vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Chunk.Position < results[j].Chunk.Position
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len reports the number of chunks stored for a namespace.
func (s *MemoryStore) Len(ns Namespace) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[ns.String()])
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
