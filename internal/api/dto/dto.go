// Package dto defines the HTTP request and response shapes for the
// dedup API.
package dto

import (
	"time"

	"github.com/ledgermatch/dedup-backend/internal/domain/dedup"
	"github.com/ledgermatch/dedup-backend/internal/infrastructure/storage"
)

// TransactionInput is one incoming transaction submitted for dedup.
type TransactionInput struct {
	ID             string  `json:"id"`
	Description    string  `json:"description" binding:"required"`
	MerchantLabel  string  `json:"merchant_label"`
	Amount         float64 `json:"amount"`
	Date           string  `json:"date" binding:"required"`
	AuthorizedDate string  `json:"authorized_date"`
	PostedDate     string  `json:"posted_date"`
}

// Record converts the input into the engine's record shape.
func (t TransactionInput) Record() dedup.TransactionRecord {
	return dedup.TransactionRecord{
		ID:             t.ID,
		Description:    t.Description,
		MerchantLabel:  t.MerchantLabel,
		Amount:         t.Amount,
		Date:           t.Date,
		AuthorizedDate: t.AuthorizedDate,
		PostedDate:     t.PostedDate,
	}
}

// DedupRequest is the body for both the preview and full-run
// endpoints.
type DedupRequest struct {
	AccountID    string             `json:"account_id" binding:"required"`
	Transactions []TransactionInput `json:"transactions" binding:"required"`
}

// Records converts the request's transactions for the engine.
func (r DedupRequest) Records() []dedup.TransactionRecord {
	records := make([]dedup.TransactionRecord, len(r.Transactions))
	for i, t := range r.Transactions {
		records[i] = t.Record()
	}
	return records
}

// DedupResponse wraps a pipeline result. RunID is set only for
// persisted full runs.
type DedupResponse struct {
	RunID      string                 `json:"run_id,omitempty"`
	Unique     []dedup.UniqueRecord   `json:"unique"`
	Duplicates []dedup.DuplicateMatch `json:"duplicates"`
	Stats      dedup.RunStatistics    `json:"stats"`
}

// FromResult builds the response from an engine result.
func FromResult(runID string, result *dedup.RunResult) DedupResponse {
	return DedupResponse{
		RunID:      runID,
		Unique:     result.Unique,
		Duplicates: result.Duplicates,
		Stats:      result.Stats,
	}
}

// RunSummary is one recorded run in the audit-trail endpoints.
type RunSummary struct {
	ID             string `json:"id"`
	AccountID      string `json:"account_id"`
	Mode           string `json:"mode"`
	StartedAt      string `json:"started_at"`
	TotalIncoming  int    `json:"total_incoming"`
	UniqueCount    int    `json:"unique_count"`
	DuplicateCount int    `json:"duplicate_count"`
	Tier1Matches   int    `json:"tier1_matches"`
	Tier2Matches   int    `json:"tier2_matches"`
	ElapsedMs      int64  `json:"elapsed_ms"`
}

// FromRun converts a stored run row into its API shape.
func FromRun(run *storage.DedupRun) RunSummary {
	return RunSummary{
		ID:             run.ID,
		AccountID:      run.AccountID,
		Mode:           run.Mode,
		StartedAt:      run.StartedAt.UTC().Format(time.RFC3339),
		TotalIncoming:  run.TotalIncoming,
		UniqueCount:    run.UniqueCount,
		DuplicateCount: run.DuplicateCount,
		Tier1Matches:   run.Tier1Matches,
		Tier2Matches:   run.Tier2Matches,
		ElapsedMs:      run.ElapsedMs,
	}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
