package rag

import (
	"sync"
	"time"

	"tenk_assistant/pkg/core/findata"
	"tenk_assistant/pkg/core/ingest"
	"tenk_assistant/pkg/core/vectorstore"
)

// Session tracks drafting state for one (ticker, fiscal year) pair: whether
// its prior filing has been indexed, and the financial data accumulated
// across user turns.
type Session struct {
	Namespace     vectorstore.Namespace
	Processed     bool
	ChunkCount    int
	Sections      []ingest.SectionName
	FinancialData findata.FinancialRecord
	UpdatedAt     time.Time
}

// SessionStore persists drafting sessions between requests.
type SessionStore interface {
	// Get returns the session for ns, or false if none exists yet.
	Get(ns vectorstore.Namespace) (*Session, bool)

	// Put stores or replaces the session under its namespace.
	Put(s *Session)
}

// MemorySessionStore keeps sessions in process memory. Sessions do not
// survive a restart, but the vector index does, so reprocessing is only
// needed to re-establish the processed flag.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

func (m *MemorySessionStore) Get(ns vectorstore.Namespace) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[ns.String()]
	return s, ok
}

func (m *MemorySessionStore) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = time.Now()
	m.sessions[s.Namespace.String()] = s
}
