package storage

import (
	"sort"
	"sync"
)

// MockRepository is an in-memory Repository for tests and local
// development without a database file.
type MockRepository struct {
	mu           sync.RWMutex
	transactions []*Transaction
	byID         map[string]*Transaction
	runs         map[string]*DedupRun
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates an empty in-memory repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		byID: make(map[string]*Transaction),
		runs: make(map[string]*DedupRun),
	}
}

// Close is a no-op for the mock.
func (m *MockRepository) Close() error {
	return nil
}

// SaveTransaction inserts or replaces a transaction by ID.
func (m *MockRepository) SaveTransaction(tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *tx
	if existing, ok := m.byID[tx.ID]; ok {
		*existing = cp
		return nil
	}
	m.byID[tx.ID] = &cp
	m.transactions = append(m.transactions, &cp)
	return nil
}

// GetTransaction retrieves a transaction by ID; nil when absent.
func (m *MockRepository) GetTransaction(id string) (*Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

// ListTransactions returns the account's transactions within [from, to]
// in insertion order.
func (m *MockRepository) ListTransactions(accountID, from, to string) ([]*Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Transaction
	for _, tx := range m.transactions {
		if tx.AccountID != accountID {
			continue
		}
		if tx.Date < from || tx.Date > to {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	return out, nil
}

// SaveDedupRun persists one run's statistics.
func (m *MockRepository) SaveDedupRun(run *DedupRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

// GetDedupRun retrieves a run by ID; nil when absent.
func (m *MockRepository) GetDedupRun(id string) (*DedupRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	cp := *run
	return &cp, nil
}

// ListDedupRuns returns the most recent runs, newest first.
func (m *MockRepository) ListDedupRuns(limit int) ([]*DedupRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	out := make([]*DedupRun, 0, len(m.runs))
	for _, run := range m.runs {
		cp := *run
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
