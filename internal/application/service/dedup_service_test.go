package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermatch/dedup-backend/internal/domain/dedup"
	"github.com/ledgermatch/dedup-backend/internal/infrastructure/config"
	"github.com/ledgermatch/dedup-backend/internal/infrastructure/storage"
	"github.com/ledgermatch/dedup-backend/internal/verifier"
)

type acceptAllVerifier struct {
	calls int
}

func (v *acceptAllVerifier) VerifyBatch(_ context.Context, pairs []verifier.MerchantPair) ([]verifier.Verdict, error) {
	v.calls++
	verdicts := make([]verifier.Verdict, len(pairs))
	for i := range verdicts {
		verdicts[i] = verifier.Verdict{SameMerchant: true, Confidence: verifier.ConfidenceHigh}
	}
	return verdicts, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Dedup: config.DedupConfig{
			WindowDays:   2,
			CandidateCap: 5,
		},
	}
}

func seedTransactions(t *testing.T, repo storage.Repository, txs []*storage.Transaction) {
	t.Helper()
	for _, tx := range txs {
		require.NoError(t, repo.SaveTransaction(tx))
	}
}

func TestPreviewMatchesAgainstStoredKnownSet(t *testing.T) {
	repo := storage.NewMockRepository()
	seedTransactions(t, repo, []*storage.Transaction{
		{ID: "k1", AccountID: "acct-1", Description: "STARBUCKS #1234", Amount: -5.75, Date: "2024-03-10"},
		{ID: "k2", AccountID: "acct-1", Description: "WHOLE FOODS MARKET", Amount: -82.31, Date: "2024-03-11"},
	})

	svc := NewDedupService(testConfig(), repo, nil, nil)

	incoming := []dedup.TransactionRecord{
		{ID: "i1", Description: "STARBUCKS STORE 1234", Amount: -5.75, Date: "2024-03-11"},
		{ID: "i2", Description: "SHELL OIL", Amount: -40.00, Date: "2024-03-11"},
	}

	result, err := svc.Preview("acct-1", incoming)
	require.NoError(t, err)

	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, "i1", result.Duplicates[0].Incoming.ID)
	assert.Equal(t, "k1", result.Duplicates[0].Matched.ID)
	require.Len(t, result.Unique, 1)
	assert.Equal(t, "i2", result.Unique[0].Record.ID)
}

func TestPreviewScopesKnownSetToAccount(t *testing.T) {
	repo := storage.NewMockRepository()
	seedTransactions(t, repo, []*storage.Transaction{
		{ID: "other", AccountID: "acct-2", Description: "STARBUCKS #1234", Amount: -5.75, Date: "2024-03-10"},
	})

	svc := NewDedupService(testConfig(), repo, nil, nil)

	incoming := []dedup.TransactionRecord{
		{ID: "i1", Description: "STARBUCKS #1234", Amount: -5.75, Date: "2024-03-10"},
	}

	result, err := svc.Preview("acct-1", incoming)
	require.NoError(t, err)

	assert.Empty(t, result.Duplicates)
	assert.Len(t, result.Unique, 1)
}

func TestRunRecordsAuditRow(t *testing.T) {
	repo := storage.NewMockRepository()
	seedTransactions(t, repo, []*storage.Transaction{
		{ID: "k1", AccountID: "acct-1", Description: "STARBUCKS #1234", Amount: -5.75, Date: "2024-03-10"},
	})

	svc := NewDedupService(testConfig(), repo, nil, nil)

	incoming := []dedup.TransactionRecord{
		{ID: "i1", Description: "STARBUCKS STORE 1234", Amount: -5.75, Date: "2024-03-10"},
		{ID: "i2", Description: "SHELL OIL", Amount: -40.00, Date: "2024-03-10"},
	}

	result, runID, err := svc.Run(context.Background(), "acct-1", incoming)
	require.NoError(t, err)
	require.Len(t, result.Duplicates, 1)
	require.NotEmpty(t, runID)

	run, err := svc.GetRun(runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "acct-1", run.AccountID)
	assert.Equal(t, ModeFull, run.Mode)
	assert.Equal(t, 2, run.TotalIncoming)
	assert.Equal(t, 1, run.DuplicateCount)
	assert.Equal(t, 1, run.UniqueCount)

	runs, err := svc.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRunEscalatesToVerifier(t *testing.T) {
	repo := storage.NewMockRepository()
	seedTransactions(t, repo, []*storage.Transaction{
		{ID: "k1", AccountID: "acct-1", Description: "SQ *THE CORNER BAKERY LLC", Amount: -14.50, Date: "2024-03-10"},
	})

	v := &acceptAllVerifier{}
	svc := NewDedupService(testConfig(), repo, v, nil)

	// Same amount in window but textually far enough that the
	// deterministic tier cannot decide on its own.
	incoming := []dedup.TransactionRecord{
		{ID: "i1", Description: "CORNER BKRY PORTLAND", Amount: -14.50, Date: "2024-03-11"},
	}

	result, _, err := svc.Run(context.Background(), "acct-1", incoming)
	require.NoError(t, err)

	if assert.Greater(t, v.calls, 0, "expected verifier to be consulted") {
		require.Len(t, result.Duplicates, 1)
		assert.Equal(t, dedup.TierSemantic, result.Duplicates[0].Tier)
	}
}

func TestKnownSetPadsDateSpan(t *testing.T) {
	repo := storage.NewMockRepository()
	// Known record sits 2 days before the incoming span; without the
	// query pad the storage scope would exclude it.
	seedTransactions(t, repo, []*storage.Transaction{
		{ID: "k1", AccountID: "acct-1", Description: "TRADER JOES #552", Amount: -31.18, Date: "2024-03-08"},
	})

	svc := NewDedupService(testConfig(), repo, nil, nil)

	incoming := []dedup.TransactionRecord{
		{ID: "i1", Description: "TRADER JOES 552", Amount: -31.18, Date: "2024-03-10"},
	}

	result, err := svc.Preview("acct-1", incoming)
	require.NoError(t, err)

	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, "k1", result.Duplicates[0].Matched.ID)
}

func TestPreviewWithNoDatableIncoming(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := NewDedupService(testConfig(), repo, nil, nil)

	incoming := []dedup.TransactionRecord{
		{ID: "i1", Description: "SHELL OIL", Amount: -40.00, Date: "not-a-date"},
	}

	result, err := svc.Preview("acct-1", incoming)
	require.NoError(t, err)

	assert.Empty(t, result.Duplicates)
	assert.Len(t, result.Unique, 1)
}

func TestImportKnownAssignsIDs(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := NewDedupService(testConfig(), repo, nil, nil)

	records := []dedup.TransactionRecord{
		{Description: "STARBUCKS #1234", Amount: -5.75, Date: "2024-03-10"},
		{Description: "SHELL OIL", Amount: -40.00, Date: "2024-03-11"},
	}

	saved, err := svc.ImportKnown("acct-1", "csv_import", records)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	txs, err := repo.ListTransactions("acct-1", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.NotEmpty(t, tx.ID)
		assert.Equal(t, "csv_import", tx.Source)
	}
}
