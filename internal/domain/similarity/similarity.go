// Package similarity scores how likely two merchant strings refer to
// the same real-world merchant.
//
// The primary signal is Jaro-Winkler edit-similarity, which rewards
// shared prefixes and tolerates the truncation and transposition noise
// typical of bank feeds. A token-overlap signal corroborates it so that
// reordered or partially shared names still score reasonably.
package similarity

import (
	"strings"

	"github.com/xrash/smetrics"
)

// Jaro-Winkler parameters: standard 0.7 boost threshold with the usual
// 4-character prefix scale.
const (
	jwBoostThreshold = 0.7
	jwPrefixSize     = 4
)

// Share of the remaining headroom that full token overlap can add on
// top of the edit-similarity signal.
const overlapWeight = 0.3

// Tokens that appear in descriptions but carry no merchant identity.
var stopTokens = map[string]bool{
	"THE": true, "OF": true, "AND": true, "INC": true, "LLC": true,
	"CO": true, "CORP": true, "LTD": true, "PURCHASE": true,
	"PAYMENT": true, "DEBIT": true, "CREDIT": true, "POS": true,
	"CARD": true, "ONLINE": true, "WEB": true, "ACH": true,
}

// JaroWinkler exposes the raw edit-similarity primitive in [0,1].
// It is symmetric in its arguments.
func JaroWinkler(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return smetrics.JaroWinkler(a, b, jwBoostThreshold, jwPrefixSize)
}

// Tokens splits s into meaningful comparison tokens: upper-cased,
// stop words dropped, single characters and pure numbers dropped.
func Tokens(s string) []string {
	fields := strings.Fields(strings.ToUpper(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "*#.,-_/")
		if len(f) < 2 || stopTokens[f] || isNumeric(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// TokenOverlap returns the share of meaningful tokens of the smaller
// set that also appear in the other, in [0,1]. Either side having no
// meaningful tokens yields 0.
func TokenOverlap(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	setA := tokenSet(ta)
	setB := tokenSet(tb)

	shared := 0
	for t := range setA {
		if setB[t] {
			shared++
		}
	}

	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(shared) / float64(smaller)
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// Score combines edit-similarity and token overlap into one [0,1]
// value for two normalized merchant strings. Jaro-Winkler is the
// primary signal; token overlap only lifts the score toward 1, so a
// misspelling never drags a strong edit match below threshold.
func Score(a, b string) float64 {
	jw := JaroWinkler(a, b)
	overlap := TokenOverlap(a, b)
	return jw + overlapWeight*overlap*(1-jw)
}

// BestFieldScore returns the maximum Score across every combination of
// the available merchant fields on each side. desc is required; label
// is an optional alternate merchant label and may be empty. The two
// sources frequently disagree on which field carries the clean
// merchant name, so the best cross-field score is what matters.
func BestFieldScore(aDesc, aLabel, bDesc, bLabel string) float64 {
	aFields := fieldList(aDesc, aLabel)
	bFields := fieldList(bDesc, bLabel)

	best := 0.0
	for _, af := range aFields {
		for _, bf := range bFields {
			if s := Score(af, bf); s > best {
				best = s
			}
		}
	}
	return best
}

func fieldList(desc, label string) []string {
	fields := []string{desc}
	if label != "" && !strings.EqualFold(label, desc) {
		fields = append(fields, label)
	}
	return fields
}
