package storage

import (
	"time"

	"github.com/ledgermatch/dedup-backend/internal/domain/dedup"
)

// Transaction is a stored known-side transaction row.
type Transaction struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account_id"`
	Description    string    `json:"description"`
	MerchantLabel  string    `json:"merchant_label,omitempty"`
	Amount         float64   `json:"amount"`
	Date           string    `json:"date"`
	AuthorizedDate string    `json:"authorized_date,omitempty"`
	PostedDate     string    `json:"posted_date,omitempty"`
	Source         string    `json:"source"` // "csv_import" or "feed_sync"
	CreatedAt      time.Time `json:"created_at"`
}

// Record converts the row into the engine's record shape.
func (t *Transaction) Record() dedup.TransactionRecord {
	return dedup.TransactionRecord{
		ID:             t.ID,
		AccountID:      t.AccountID,
		Description:    t.Description,
		MerchantLabel:  t.MerchantLabel,
		Amount:         t.Amount,
		Date:           t.Date,
		AuthorizedDate: t.AuthorizedDate,
		PostedDate:     t.PostedDate,
	}
}

// Records converts a row slice for handing to the engine.
func Records(txs []*Transaction) []dedup.TransactionRecord {
	records := make([]dedup.TransactionRecord, len(txs))
	for i, t := range txs {
		records[i] = t.Record()
	}
	return records
}

// DedupRun is the audit row persisted for one completed dedup run.
type DedupRun struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account_id"`
	Mode           string    `json:"mode"` // "preview" or "full"
	StartedAt      time.Time `json:"started_at"`
	TotalIncoming  int       `json:"total_incoming"`
	UniqueCount    int       `json:"unique_count"`
	DuplicateCount int       `json:"duplicate_count"`
	Tier1Matches   int       `json:"tier1_matches"`
	Tier2Matches   int       `json:"tier2_matches"`
	ElapsedMs      int64     `json:"elapsed_ms"`
}
