package storage

// Repository defines the complete storage interface. Keeping it an
// interface allows swapping implementations and makes testing with
// the in-memory mock straightforward.
type Repository interface {
	TransactionRepository
	DedupRunRepository
	Close() error
}

// TransactionRepository stores known-side transactions, the set dedup
// runs compare incoming batches against.
type TransactionRepository interface {
	// SaveTransaction inserts or replaces a transaction by ID.
	SaveTransaction(tx *Transaction) error

	// GetTransaction retrieves a transaction by ID.
	GetTransaction(id string) (*Transaction, error)

	// ListTransactions returns an account's transactions whose primary
	// date falls within [from, to] inclusive (YYYY-MM-DD strings), in
	// insertion order. This is the pre-scoped known set for a run;
	// callers should bound the range to the incoming batch's span.
	ListTransactions(accountID, from, to string) ([]*Transaction, error)
}

// DedupRunRepository keeps an audit trail of completed dedup runs.
type DedupRunRepository interface {
	// SaveDedupRun persists one run's statistics.
	SaveDedupRun(run *DedupRun) error

	// GetDedupRun retrieves a run by ID; nil when absent.
	GetDedupRun(id string) (*DedupRun, error)

	// ListDedupRuns returns the most recent runs, newest first.
	ListDedupRuns(limit int) ([]*DedupRun, error)
}
