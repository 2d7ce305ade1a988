// Package dedup implements the transaction deduplication pipeline:
// a windowed (date, amount) candidate index, a deterministic string
// matcher, and optional escalation of uncertain pairs to an external
// semantic verifier.
//
// Example usage:
//
//	engine := dedup.NewEngine(dedup.DefaultConfig(), nil, logger)
//	result := engine.Preview(known, incoming)
//	for _, d := range result.Duplicates {
//		// d.Incoming duplicates d.Matched
//	}
package dedup

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgermatch/dedup-backend/internal/verifier"
)

// reducedConfidence marks unique classifications made without semantic
// verification while candidates existed.
const reducedConfidence = 0.5

// Config holds pipeline tuning knobs.
type Config struct {
	// WindowDays is the symmetric candidate-lookup date window.
	WindowDays int
	// ScoreThreshold is the combined-score bar for the primary
	// deterministic rule.
	ScoreThreshold float64
	// RelaxedThreshold is the Jaro-Winkler bar for the
	// token-corroborated secondary rule.
	RelaxedThreshold float64
	// CandidateCap bounds how many candidates per record are escalated
	// to the semantic tier.
	CandidateCap int
	// BatchSize is the number of pairs per verifier request; it must
	// not exceed verifier.MaxPairsPerRequest.
	BatchSize int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		WindowDays:       2,
		ScoreThreshold:   defaultScoreThreshold,
		RelaxedThreshold: defaultRelaxedThreshold,
		CandidateCap:     5,
		BatchSize:        verifier.MaxPairsPerRequest,
	}
}

// Engine drives the per-record dedup pipeline. Engines are stateless
// across runs: every run builds its own index and verdict cache, so
// one Engine may serve concurrent runs without locking.
type Engine struct {
	config   Config
	verifier verifier.Verifier
	logger   *slog.Logger
}

// NewEngine creates a dedup engine. v may be nil, which disables the
// semantic tier; both pipeline modes then behave deterministically.
func NewEngine(cfg Config, v verifier.Verifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = def.WindowDays
	}
	if cfg.ScoreThreshold <= 0 {
		cfg.ScoreThreshold = def.ScoreThreshold
	}
	if cfg.RelaxedThreshold <= 0 {
		cfg.RelaxedThreshold = def.RelaxedThreshold
	}
	if cfg.CandidateCap <= 0 {
		cfg.CandidateCap = def.CandidateCap
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > verifier.MaxPairsPerRequest {
		cfg.BatchSize = def.BatchSize
	}

	return &Engine{config: cfg, verifier: v, logger: logger}
}

// Preview runs the deterministic-only pipeline. It is synchronous,
// always available, and suitable for instant client-side preview.
func (e *Engine) Preview(known, incoming []TransactionRecord) *RunResult {
	return e.run(context.Background(), known, incoming, false)
}

// Run executes the full pipeline, escalating records the deterministic
// tier left unmatched to the semantic verifier when one is configured.
// Verifier failures never fail the run; affected records are
// conservatively classified unique. Cancellation is honored at batch
// boundaries only.
func (e *Engine) Run(ctx context.Context, known, incoming []TransactionRecord) *RunResult {
	return e.run(ctx, known, incoming, e.verifier != nil)
}

// recordOutcome is the per-incoming-record classification, kept by
// index so output order follows input order regardless of which tier
// decided.
type recordOutcome struct {
	matched    *TransactionRecord
	confidence float64
	tier       Tier
}

// pendingRecord is a record the deterministic tier could not decide
// but which has candidates worth semantic verification.
type pendingRecord struct {
	index      int
	candidates []*TransactionRecord
}

func (e *Engine) run(ctx context.Context, known, incoming []TransactionRecord, escalate bool) *RunResult {
	start := time.Now()

	index := BuildIndex(known, e.config.WindowDays)
	outcomes := make([]recordOutcome, len(incoming))
	var pending []pendingRecord

	for i := range incoming {
		candidates := index.Lookup(incoming[i])

		if m := matchTier1(incoming[i], candidates, e.config.ScoreThreshold, e.config.RelaxedThreshold); m != nil {
			outcomes[i] = recordOutcome{matched: m.candidate, confidence: m.confidence, tier: TierDeterministic}
			continue
		}

		if len(candidates) == 0 {
			outcomes[i] = recordOutcome{confidence: 1}
			continue
		}

		if !escalate {
			// Candidates exist but no semantic tier is available.
			outcomes[i] = recordOutcome{confidence: reducedConfidence}
			continue
		}

		if len(candidates) > e.config.CandidateCap {
			candidates = candidates[:e.config.CandidateCap]
		}
		pending = append(pending, pendingRecord{index: i, candidates: candidates})
	}

	if len(pending) > 0 {
		e.runTier2(ctx, incoming, pending, outcomes)
	}

	result := &RunResult{
		Unique:     make([]UniqueRecord, 0, len(incoming)),
		Duplicates: make([]DuplicateMatch, 0),
	}
	for i, out := range outcomes {
		if out.matched != nil {
			result.Duplicates = append(result.Duplicates, DuplicateMatch{
				Incoming:   incoming[i],
				Matched:    *out.matched,
				Confidence: out.confidence,
				Tier:       out.tier,
			})
			if out.tier == TierDeterministic {
				result.Stats.Tier1Matches++
			} else {
				result.Stats.Tier2Matches++
			}
			continue
		}
		result.Unique = append(result.Unique, UniqueRecord{Record: incoming[i], Confidence: out.confidence})
	}

	result.Stats.TotalIncoming = len(incoming)
	result.Stats.UniqueCount = len(result.Unique)
	result.Stats.DuplicateCount = len(result.Duplicates)
	result.Stats.Elapsed = time.Since(start)

	return result
}

// pairState tracks one escalated pair through batching. verdict stays
// nil when the pair's batch failed or was never issued.
type pairState struct {
	pair    verifier.MerchantPair
	verdict *verifier.Verdict
}

// batchOutcome records how one verifier batch went. Failures are data,
// not control flow: a failed batch is logged and skipped while the
// rest of the run proceeds.
type batchOutcome struct {
	batch int
	size  int
	err   error
}

// runTier2 submits escalated pairs to the verifier in fixed-size
// sequential batches and resolves each pending record from the
// verdicts. The pair-state map doubles as the run-scoped verdict
// cache: identical description pairs are judged once and the verdict
// serves every record that needs it. The map lives and dies with this
// run, so concurrent runs share nothing.
func (e *Engine) runTier2(ctx context.Context, incoming []TransactionRecord, pending []pendingRecord, outcomes []recordOutcome) {
	// Flatten pending candidates into pair states, in record order then
	// candidate order, de-duplicating identical description pairs. Each
	// pending record keeps its candidates' keys so resolution never has
	// to re-derive them.
	states := make(map[string]*pairState)
	var order []string
	pendingKeys := make([][]string, len(pending))
	for pi, p := range pending {
		rec := incoming[p.index]
		pendingKeys[pi] = make([]string, len(p.candidates))
		for ci, cand := range p.candidates {
			pair := verifier.MerchantPair{
				IncomingDescription:  rec.Description,
				CandidateDescription: cand.Description,
				Amount:               rec.Amount,
				Date:                 rec.Date,
			}
			key := pair.CacheKey()
			pendingKeys[pi][ci] = key
			if _, ok := states[key]; ok {
				continue
			}
			states[key] = &pairState{pair: pair}
			order = append(order, key)
		}
	}

	var batchOutcomes []batchOutcome
	for batchStart, batchNum := 0, 0; batchStart < len(order); batchStart += e.config.BatchSize {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("dedup run cancelled before next verifier batch",
				"batch", batchNum, "remaining_pairs", len(order)-batchStart)
			break
		}

		end := batchStart + e.config.BatchSize
		if end > len(order) {
			end = len(order)
		}
		keys := order[batchStart:end]
		pairs := make([]verifier.MerchantPair, len(keys))
		for i, k := range keys {
			pairs[i] = states[k].pair
		}

		verdicts, err := e.verifier.VerifyBatch(ctx, pairs)
		outcome := batchOutcome{batch: batchNum, size: len(pairs), err: err}
		batchOutcomes = append(batchOutcomes, outcome)
		batchNum++

		if err != nil {
			e.logger.Error("verifier batch failed, records fall back to unique",
				"batch", outcome.batch, "pairs", outcome.size, "error", err)
			continue
		}
		for i, k := range keys {
			if i < len(verdicts) {
				v := verdicts[i]
				states[k].verdict = &v
			}
		}
	}

	failures := 0
	for _, o := range batchOutcomes {
		if o.err != nil {
			failures++
		}
	}
	if failures > 0 {
		e.logger.Warn("verifier batches failed", "failed", failures, "total", len(batchOutcomes))
	}

	// Resolve each pending record: first accepting verdict in candidate
	// order wins; an unresolved pair without an acceptance means the
	// record could not be verified and stays unique at reduced
	// confidence.
	for pi, p := range pending {
		unresolved := false
		for ci, cand := range p.candidates {
			st := states[pendingKeys[pi][ci]]
			if st == nil || st.verdict == nil {
				unresolved = true
				continue
			}
			if st.verdict.Accepted() {
				outcomes[p.index] = recordOutcome{
					matched:    cand,
					confidence: st.verdict.Confidence.Score(),
					tier:       TierSemantic,
				}
				break
			}
		}

		if outcomes[p.index].matched != nil {
			continue
		}
		if unresolved {
			outcomes[p.index] = recordOutcome{confidence: reducedConfidence}
		} else {
			outcomes[p.index] = recordOutcome{confidence: 1}
		}
	}
}
