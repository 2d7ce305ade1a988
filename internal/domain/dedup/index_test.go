package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knownRecord(id, desc string, amount float64, date string) TransactionRecord {
	return TransactionRecord{ID: id, Description: desc, Amount: amount, Date: date}
}

func TestIndex_ExactDateAndAmount(t *testing.T) {
	known := []TransactionRecord{
		knownRecord("k1", "BURRITO BARN", -22.77, "2025-01-15"),
		knownRecord("k2", "COFFEE SHOP", -4.50, "2025-01-15"),
	}
	ix := BuildIndex(known, 2)

	cands := ix.Lookup(TransactionRecord{Description: "X", Amount: -22.77, Date: "2025-01-15"})
	require.Len(t, cands, 1)
	assert.Equal(t, "k1", cands[0].ID)
}

func TestIndex_WindowBoundary(t *testing.T) {
	known := []TransactionRecord{
		knownRecord("k1", "BURRITO BARN", -22.77, "2025-01-15"),
	}
	ix := BuildIndex(known, 2)

	// Exactly at the +2 edge: included.
	cands := ix.Lookup(TransactionRecord{Amount: -22.77, Date: "2025-01-17"})
	require.Len(t, cands, 1)
	assert.Equal(t, "k1", cands[0].ID)

	// At the -2 edge: included.
	cands = ix.Lookup(TransactionRecord{Amount: -22.77, Date: "2025-01-13"})
	require.Len(t, cands, 1)

	// One day beyond the window: excluded.
	assert.Empty(t, ix.Lookup(TransactionRecord{Amount: -22.77, Date: "2025-01-18"}))
	assert.Empty(t, ix.Lookup(TransactionRecord{Amount: -22.77, Date: "2025-01-12"}))
}

func TestIndex_AmountIsExact(t *testing.T) {
	known := []TransactionRecord{
		knownRecord("k1", "BURRITO BARN", -22.77, "2025-01-15"),
	}
	ix := BuildIndex(known, 2)

	// Amount differs by one cent: no candidate, the amount key is exact.
	assert.Empty(t, ix.Lookup(TransactionRecord{Amount: -22.78, Date: "2025-01-15"}))

	// Sign differs but absolute amount matches: candidate found.
	cands := ix.Lookup(TransactionRecord{Amount: 22.77, Date: "2025-01-15"})
	assert.Len(t, cands, 1)
}

func TestIndex_AlternateDatesIndexed(t *testing.T) {
	known := []TransactionRecord{
		{
			ID:             "k1",
			Description:    "BURRITO BARN",
			Amount:         -22.77,
			Date:           "2025-01-15",
			AuthorizedDate: "2025-01-13",
			PostedDate:     "2025-01-16",
		},
	}
	ix := BuildIndex(known, 2)

	// 2025-01-11 is outside the primary date's window but within the
	// authorized date's, so the alternate-date bucket must hit.
	cands := ix.Lookup(TransactionRecord{Amount: -22.77, Date: "2025-01-11"})
	require.Len(t, cands, 1)
	assert.Equal(t, "k1", cands[0].ID)
}

func TestIndex_LookupDeduplicatesById(t *testing.T) {
	// One record indexed under three nearby dates must appear once per
	// lookup even when several probes hit it.
	known := []TransactionRecord{
		{
			ID:             "k1",
			Description:    "BURRITO BARN",
			Amount:         -22.77,
			Date:           "2025-01-15",
			AuthorizedDate: "2025-01-14",
			PostedDate:     "2025-01-16",
		},
	}
	ix := BuildIndex(known, 2)

	cands := ix.Lookup(TransactionRecord{Amount: -22.77, Date: "2025-01-15"})
	assert.Len(t, cands, 1)
}

func TestIndex_MalformedRecordsSkipped(t *testing.T) {
	known := []TransactionRecord{
		knownRecord("k1", "NO DATE", -10.00, ""),
		knownRecord("k2", "BAD DATE", -10.00, "01/15/2025"),
		knownRecord("k3", "ZERO AMOUNT", 0, "2025-01-15"),
		knownRecord("k4", "GOOD", -10.00, "2025-01-15"),
	}
	ix := BuildIndex(known, 2)

	cands := ix.Lookup(TransactionRecord{Amount: -10.00, Date: "2025-01-15"})
	require.Len(t, cands, 1)
	assert.Equal(t, "k4", cands[0].ID)
}

func TestIndex_MalformedIncomingFindsNothing(t *testing.T) {
	known := []TransactionRecord{
		knownRecord("k1", "GOOD", -10.00, "2025-01-15"),
	}
	ix := BuildIndex(known, 2)

	assert.Empty(t, ix.Lookup(TransactionRecord{Amount: -10.00, Date: ""}))
	assert.Empty(t, ix.Lookup(TransactionRecord{Amount: 0, Date: "2025-01-15"}))
	assert.Empty(t, ix.Lookup(TransactionRecord{Amount: -10.00, Date: "not-a-date"}))
}

func TestIndex_InsertionOrderPreserved(t *testing.T) {
	known := []TransactionRecord{
		knownRecord("k1", "FIRST", -10.00, "2025-01-15"),
		knownRecord("k2", "SECOND", -10.00, "2025-01-15"),
	}
	ix := BuildIndex(known, 2)

	cands := ix.Lookup(TransactionRecord{Amount: -10.00, Date: "2025-01-15"})
	require.Len(t, cands, 2)
	assert.Equal(t, "k1", cands[0].ID)
	assert.Equal(t, "k2", cands[1].ID)
}
