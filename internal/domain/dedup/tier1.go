package dedup

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ledgermatch/dedup-backend/internal/domain/normalize"
	"github.com/ledgermatch/dedup-backend/internal/domain/similarity"
)

const (
	// Combined-score threshold for the primary deterministic rule.
	defaultScoreThreshold = 0.88
	// Looser Jaro-Winkler bar for the token-corroborated secondary rule.
	defaultRelaxedThreshold = 0.75
	// Absolute-amount tolerance; pairs differing by more never match.
	amountTolerance = 0.01
	// Levenshtein distance ratio under which raw descriptions are
	// treated as trivially identical.
	nearIdenticalRatio = 0.15

	amountEpsilon = 1e-7
)

// tierMatch is an accepted deterministic match against one candidate.
type tierMatch struct {
	candidate  *TransactionRecord
	confidence float64
}

// matchTier1 runs the deterministic matcher over candidates in index
// insertion order and returns the first acceptance, or nil. First
// match wins; candidates are not re-ranked by score.
func matchTier1(incoming TransactionRecord, candidates []*TransactionRecord, scoreThreshold, relaxedThreshold float64) *tierMatch {
	inDesc := normalize.Merchant(incoming.Description)
	inLabel := normalize.Merchant(incoming.MerchantLabel)
	inRaw := strings.ToUpper(strings.TrimSpace(incoming.Description))

	for _, cand := range candidates {
		if !amountsComparable(incoming.Amount, cand.Amount) {
			continue
		}

		candRaw := strings.ToUpper(strings.TrimSpace(cand.Description))

		// Near-identical raw descriptions need no merchant extraction.
		if ratio := levenshteinRatio(inRaw, candRaw); inRaw != "" && candRaw != "" && ratio < nearIdenticalRatio {
			return &tierMatch{candidate: cand, confidence: 1 - ratio}
		}

		score := similarity.BestFieldScore(
			inDesc, inLabel,
			normalize.Merchant(cand.Description), normalize.Merchant(cand.MerchantLabel),
		)
		if score >= scoreThreshold {
			return &tierMatch{candidate: cand, confidence: score}
		}

		// Merchant extraction can over-strip distinctive tokens, so a
		// lower edit-similarity bar is accepted when the raw
		// descriptions share a majority of meaningful tokens.
		rawJW := similarity.JaroWinkler(inRaw, candRaw)
		if rawJW >= relaxedThreshold && similarity.TokenOverlap(incoming.Description, cand.Description) > 0.5 {
			return &tierMatch{candidate: cand, confidence: rawJW}
		}
	}

	return nil
}

// amountsComparable reports whether two signed amounts agree in
// absolute value within the fixed tolerance. The index already buckets
// by exact two-decimal amount; this re-check keeps the invariant local
// to the matcher as well.
func amountsComparable(a, b float64) bool {
	return math.Abs(math.Abs(a)-math.Abs(b)) <= amountTolerance+amountEpsilon
}

// levenshteinRatio is the edit distance normalized by the longer
// string length; 0 means identical. Two empty strings are identical;
// one empty side is maximally distant.
func levenshteinRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 1
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longer)
}
