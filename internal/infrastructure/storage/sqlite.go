package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for known transactions and
// dedup-run history. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveTransaction inserts or replaces a known transaction.
func (s *Storage) SaveTransaction(tx *Transaction) error {
	query := `
	INSERT OR REPLACE INTO transactions
	(id, account_id, description, merchant_label, amount, date,
	 authorized_date, posted_date, source)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		tx.ID,
		tx.AccountID,
		tx.Description,
		tx.MerchantLabel,
		tx.Amount,
		tx.Date,
		tx.AuthorizedDate,
		tx.PostedDate,
		tx.Source,
	)
	return err
}

// GetTransaction retrieves a transaction by ID. Returns nil, nil when
// the row does not exist.
func (s *Storage) GetTransaction(id string) (*Transaction, error) {
	query := `
	SELECT id, account_id, description, merchant_label, amount, date,
	       authorized_date, posted_date, source, created_at
	FROM transactions WHERE id = ?
	`

	tx := &Transaction{}
	err := s.db.QueryRow(query, id).Scan(
		&tx.ID,
		&tx.AccountID,
		&tx.Description,
		&tx.MerchantLabel,
		&tx.Amount,
		&tx.Date,
		&tx.AuthorizedDate,
		&tx.PostedDate,
		&tx.Source,
		&tx.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ListTransactions returns an account's transactions within the date
// range, in insertion order. Lexicographic comparison is correct for
// YYYY-MM-DD strings.
func (s *Storage) ListTransactions(accountID, from, to string) ([]*Transaction, error) {
	query := `
	SELECT id, account_id, description, merchant_label, amount, date,
	       authorized_date, posted_date, source, created_at
	FROM transactions
	WHERE account_id = ? AND date >= ? AND date <= ?
	ORDER BY rowid
	`

	rows, err := s.db.Query(query, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*Transaction
	for rows.Next() {
		tx := &Transaction{}
		if err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.Description,
			&tx.MerchantLabel,
			&tx.Amount,
			&tx.Date,
			&tx.AuthorizedDate,
			&tx.PostedDate,
			&tx.Source,
			&tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SaveDedupRun persists one run's statistics.
func (s *Storage) SaveDedupRun(run *DedupRun) error {
	query := `
	INSERT OR REPLACE INTO dedup_runs
	(id, account_id, mode, started_at, total_incoming, unique_count,
	 duplicate_count, tier1_matches, tier2_matches, elapsed_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.ID,
		run.AccountID,
		run.Mode,
		run.StartedAt,
		run.TotalIncoming,
		run.UniqueCount,
		run.DuplicateCount,
		run.Tier1Matches,
		run.Tier2Matches,
		run.ElapsedMs,
	)
	return err
}

// GetDedupRun retrieves a run by ID. Returns nil, nil when absent.
func (s *Storage) GetDedupRun(id string) (*DedupRun, error) {
	query := `
	SELECT id, account_id, mode, started_at, total_incoming, unique_count,
	       duplicate_count, tier1_matches, tier2_matches, elapsed_ms
	FROM dedup_runs WHERE id = ?
	`

	run := &DedupRun{}
	err := s.db.QueryRow(query, id).Scan(
		&run.ID,
		&run.AccountID,
		&run.Mode,
		&run.StartedAt,
		&run.TotalIncoming,
		&run.UniqueCount,
		&run.DuplicateCount,
		&run.Tier1Matches,
		&run.Tier2Matches,
		&run.ElapsedMs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListDedupRuns returns the most recent runs, newest first.
func (s *Storage) ListDedupRuns(limit int) ([]*DedupRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, account_id, mode, started_at, total_incoming, unique_count,
	       duplicate_count, tier1_matches, tier2_matches, elapsed_ms
	FROM dedup_runs
	ORDER BY started_at DESC
	LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*DedupRun
	for rows.Next() {
		run := &DedupRun{}
		if err := rows.Scan(
			&run.ID,
			&run.AccountID,
			&run.Mode,
			&run.StartedAt,
			&run.TotalIncoming,
			&run.UniqueCount,
			&run.DuplicateCount,
			&run.Tier1Matches,
			&run.Tier2Matches,
			&run.ElapsedMs,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
