package vectorstore

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"tenk_assistant/pkg/core/ingest"
	"tenk_assistant/pkg/core/llm"
)

// embeddingDim matches the Gemini text-embedding-004 output size.
const embeddingDim = 768

// PgVectorStore is the durable Store implementation on Postgres + pgvector.
// Chunks survive process restarts, unlike the in-process session state.
type PgVectorStore struct {
	pool     *pgxpool.Pool
	embedder llm.Embedder
}

var _ Store = (*PgVectorStore)(nil)

// NewPgVectorStore connects to Postgres, ensures the schema, and returns a
// ready store.
func NewPgVectorStore(ctx context.Context, databaseURL string, embedder llm.Embedder) (*PgVectorStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	s := &PgVectorStore{pool: pool, embedder: embedder}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgVectorStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS filing_chunks (
			id UUID PRIMARY KEY,
			ticker TEXT NOT NULL,
			fiscal_year TEXT NOT NULL,
			section TEXT NOT NULL,
			position INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, embeddingDim),
		`CREATE INDEX IF NOT EXISTS filing_chunks_ns_idx ON filing_chunks (ticker, fiscal_year)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Upsert embeds the chunks and replaces the namespace contents in a single
// transaction, so a failed run never leaves a partially indexed namespace.
func (s *PgVectorStore) Upsert(ctx context.Context, ns Namespace, chunks []ingest.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks for %s: %w", ns, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM filing_chunks WHERE ticker = $1 AND fiscal_year = $2`,
		ns.Ticker, ns.FiscalYear,
	); err != nil {
		return fmt.Errorf("failed to clear namespace %s: %w", ns, err)
	}

	for i, c := range chunks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO filing_chunks (id, ticker, fiscal_year, section, position, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), ns.Ticker, ns.FiscalYear, string(c.Section), c.Position, c.Text,
			pgvector.NewVector(vectors[i]),
		); err != nil {
			return fmt.Errorf("failed to insert chunk %d for %s: %w", i, ns, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit upsert for %s: %w", ns, err)
	}

	log.Printf("[VectorStore] Indexed %d chunks for %s", len(chunks), ns)
	return nil
}

// Query embeds the query text and returns the top-k namespace chunks by
// cosine similarity.
func (s *PgVectorStore) Query(ctx context.Context, ns Namespace, queryText string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM filing_chunks WHERE ticker = $1 AND fiscal_year = $2)`,
		ns.Ticker, ns.FiscalYear,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check namespace %s: %w", ns, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNamespaceNotFound, ns)
	}

	vectors, err := s.embedder.EmbedTexts(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// Cosine distance: similarity = 1 - (embedding <=> query)
	rows, err := s.pool.Query(ctx,
		`SELECT section, position, content, 1 - (embedding <=> $1) AS similarity
		 FROM filing_chunks
		 WHERE ticker = $2 AND fiscal_year = $3
		 ORDER BY similarity DESC, position ASC
		 LIMIT $4`,
		pgvector.NewVector(vectors[0]), ns.Ticker, ns.FiscalYear, k,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed for %s: %w", ns, err)
	}
	defer rows.Close()

	var results []ScoredChunk
	for rows.Next() {
		var sc ScoredChunk
		var section string
		if err := rows.Scan(&section, &sc.Chunk.Position, &sc.Chunk.Text, &sc.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		sc.Chunk.Section = ingest.SectionName(section)
		results = append(results, sc)
	}
	return results, rows.Err()
}

// Close releases the connection pool.
func (s *PgVectorStore) Close() {
	s.pool.Close()
}
