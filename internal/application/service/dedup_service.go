// Package service wires the dedup engine to storage and records an
// audit row per run. It is the entry point the API and CLI share.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgermatch/dedup-backend/internal/domain/dedup"
	"github.com/ledgermatch/dedup-backend/internal/infrastructure/config"
	"github.com/ledgermatch/dedup-backend/internal/infrastructure/storage"
	"github.com/ledgermatch/dedup-backend/internal/verifier"
)

// knownSetPadDays widens the known-set query beyond the incoming
// batch's date span so window-edge candidates are not cut off by the
// storage scope.
const knownSetPadDays = 5

const dateLayout = "2006-01-02"

// Run modes recorded in the audit trail.
const (
	ModePreview = "preview"
	ModeFull    = "full"
)

// DedupService runs dedup pipelines against the stored known set.
type DedupService struct {
	repo   storage.Repository
	engine *dedup.Engine
	logger *slog.Logger
}

// NewDedupService creates the shared dedup service. v may be nil when
// no verifier is configured; full-pipeline runs then degrade to the
// deterministic tier.
func NewDedupService(cfg *config.Config, repo storage.Repository, v verifier.Verifier, logger *slog.Logger) *DedupService {
	if logger == nil {
		logger = slog.Default()
	}

	engineCfg := dedup.Config{
		WindowDays:       cfg.Dedup.WindowDays,
		ScoreThreshold:   cfg.Dedup.ScoreThreshold,
		RelaxedThreshold: cfg.Dedup.RelaxedThreshold,
		CandidateCap:     cfg.Dedup.CandidateCap,
		BatchSize:        cfg.Dedup.BatchSize,
	}

	return &DedupService{
		repo:   repo,
		engine: dedup.NewEngine(engineCfg, v, logger),
		logger: logger,
	}
}

// Preview runs the deterministic-only pipeline against the stored
// known set. Nothing is persisted; this backs instant client-side
// preview.
func (s *DedupService) Preview(accountID string, incoming []dedup.TransactionRecord) (*dedup.RunResult, error) {
	known, err := s.knownSet(accountID, incoming)
	if err != nil {
		return nil, err
	}
	return s.engine.Preview(known, incoming), nil
}

// Run executes the full pipeline, records the run in the audit trail
// and returns the run's ID alongside the result. Engine-level failures
// do not exist (a run always completes); storage failures on the audit
// row are logged, not returned, since the match result is still valid.
func (s *DedupService) Run(ctx context.Context, accountID string, incoming []dedup.TransactionRecord) (*dedup.RunResult, string, error) {
	known, err := s.knownSet(accountID, incoming)
	if err != nil {
		return nil, "", err
	}

	startedAt := time.Now().UTC()
	result := s.engine.Run(ctx, known, incoming)

	run := &storage.DedupRun{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		Mode:           ModeFull,
		StartedAt:      startedAt,
		TotalIncoming:  result.Stats.TotalIncoming,
		UniqueCount:    result.Stats.UniqueCount,
		DuplicateCount: result.Stats.DuplicateCount,
		Tier1Matches:   result.Stats.Tier1Matches,
		Tier2Matches:   result.Stats.Tier2Matches,
		ElapsedMs:      result.Stats.Elapsed.Milliseconds(),
	}
	if err := s.repo.SaveDedupRun(run); err != nil {
		s.logger.Error("failed to record dedup run", "run_id", run.ID, "error", err)
	}

	return result, run.ID, nil
}

// GetRun retrieves one recorded run; nil when absent.
func (s *DedupService) GetRun(id string) (*storage.DedupRun, error) {
	return s.repo.GetDedupRun(id)
}

// ListRuns returns the most recent recorded runs, newest first.
func (s *DedupService) ListRuns(limit int) ([]*storage.DedupRun, error) {
	return s.repo.ListDedupRuns(limit)
}

// ImportKnown stores incoming records as known-side transactions,
// assigning IDs. Used to seed an account from a first import, when
// there is nothing to dedup against yet.
func (s *DedupService) ImportKnown(accountID, source string, records []dedup.TransactionRecord) (int, error) {
	saved := 0
	for i := range records {
		tx := &storage.Transaction{
			ID:             uuid.NewString(),
			AccountID:      accountID,
			Description:    records[i].Description,
			MerchantLabel:  records[i].MerchantLabel,
			Amount:         records[i].Amount,
			Date:           records[i].Date,
			AuthorizedDate: records[i].AuthorizedDate,
			PostedDate:     records[i].PostedDate,
			Source:         source,
		}
		if err := s.repo.SaveTransaction(tx); err != nil {
			return saved, fmt.Errorf("failed to save transaction %d: %w", i, err)
		}
		saved++
	}
	return saved, nil
}

// knownSet loads the account's transactions covering the incoming
// batch's date span padded by knownSetPadDays on both sides.
func (s *DedupService) knownSet(accountID string, incoming []dedup.TransactionRecord) ([]dedup.TransactionRecord, error) {
	from, to, ok := dateSpan(incoming)
	if !ok {
		// No datable incoming records; nothing can match anyway.
		return nil, nil
	}

	txs, err := s.repo.ListTransactions(accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load known set: %w", err)
	}
	return storage.Records(txs), nil
}

// dateSpan returns the padded [min, max] primary-date range of the
// batch. Records with unparseable dates are ignored here; the engine
// still classifies them.
func dateSpan(incoming []dedup.TransactionRecord) (string, string, bool) {
	var min, max time.Time
	found := false

	for i := range incoming {
		t, err := time.Parse(dateLayout, incoming[i].Date)
		if err != nil {
			continue
		}
		if !found || t.Before(min) {
			min = t
		}
		if !found || t.After(max) {
			max = t
		}
		found = true
	}
	if !found {
		return "", "", false
	}

	from := min.AddDate(0, 0, -knownSetPadDays).Format(dateLayout)
	to := max.AddDate(0, 0, knownSetPadDays).Format(dateLayout)
	return from, to, true
}
