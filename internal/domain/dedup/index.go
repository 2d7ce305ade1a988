package dedup

import (
	"fmt"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// Index buckets known records by (date, absolute amount) for candidate
// lookup. A record is indexed under its primary date and every
// alternate date it carries, so an incoming record using a different
// date convention still hits the bucket. Amounts are keyed at fixed
// two-decimal precision; formatting the key avoids float equality
// surprises.
//
// An Index is built once per run and never mutated afterwards, so runs
// share no state and need no locking.
type Index struct {
	windowDays int
	buckets    map[string][]*TransactionRecord
}

// BuildIndex builds a candidate index over the known set. Records
// missing a date or carrying a zero amount cannot be keyed and are
// skipped; they simply never become candidates. windowDays is the
// symmetric lookup window in days.
func BuildIndex(known []TransactionRecord, windowDays int) *Index {
	ix := &Index{
		windowDays: windowDays,
		buckets:    make(map[string][]*TransactionRecord, len(known)),
	}

	for i := range known {
		rec := &known[i]
		if rec.Amount == 0 {
			continue
		}
		for _, d := range rec.Dates() {
			if _, err := time.Parse(dateLayout, d); err != nil {
				continue
			}
			key := bucketKey(d, rec.Amount)
			ix.buckets[key] = append(ix.buckets[key], rec)
		}
	}

	return ix
}

// Lookup returns candidates for an incoming record: every known record
// bucketed under the same absolute amount within ±windowDays of the
// incoming date, in deterministic offset order (0, -1, +1, -2, +2),
// de-duplicated by identity while preserving first-seen order.
func (ix *Index) Lookup(rec TransactionRecord) []*TransactionRecord {
	if rec.Amount == 0 || rec.Date == "" {
		return nil
	}
	base, err := time.Parse(dateLayout, rec.Date)
	if err != nil {
		return nil
	}

	var candidates []*TransactionRecord
	seen := make(map[string]bool)

	for _, offset := range ix.offsets() {
		day := base.AddDate(0, 0, offset).Format(dateLayout)
		for _, cand := range ix.buckets[bucketKey(day, rec.Amount)] {
			id := cand.ID
			if id == "" {
				id = fmt.Sprintf("%p", cand)
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			candidates = append(candidates, cand)
		}
	}

	return candidates
}

// offsets returns probe offsets nearest-first: 0, -1, +1, -2, +2, ...
func (ix *Index) offsets() []int {
	offsets := make([]int, 0, 2*ix.windowDays+1)
	offsets = append(offsets, 0)
	for d := 1; d <= ix.windowDays; d++ {
		offsets = append(offsets, -d, d)
	}
	return offsets
}

func bucketKey(date string, amount float64) string {
	return fmt.Sprintf("%s|%.2f", date, math.Abs(amount))
}
