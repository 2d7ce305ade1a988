// Package verifier escalates uncertain merchant pairs to an external
// semantic-comparison service.
//
// The deterministic matcher handles the clear cases; pairs it cannot
// decide are batched and sent to an LLM that judges whether two
// differently-formatted descriptions name the same merchant. The
// verifier is an optional capability: callers hold a nil Verifier when
// it is unconfigured and the pipeline degrades to deterministic-only.
package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxPairsPerRequest is the hard per-request item cap imposed by the
// verification service. Callers chunk their pending pairs to this size.
const MaxPairsPerRequest = 20

// Confidence is the verifier's categorical certainty for one verdict.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Score maps a categorical confidence to the numeric match confidence
// reported to consumers. Low confidence is treated as a non-match and
// scores zero.
func (c Confidence) Score() float64 {
	switch c {
	case ConfidenceHigh:
		return 0.95
	case ConfidenceMedium:
		return 0.85
	default:
		return 0
	}
}

// MerchantPair is one uncertain pair submitted for semantic comparison.
type MerchantPair struct {
	IncomingDescription  string  `json:"incoming_description"`
	CandidateDescription string  `json:"candidate_description"`
	Amount               float64 `json:"amount"`
	Date                 string  `json:"date"`
}

// CacheKey identifies a pair by its two descriptions, order-sensitive.
// Amount and date are context for the judge, not identity.
func (p MerchantPair) CacheKey() string {
	return strings.ToUpper(strings.TrimSpace(p.IncomingDescription)) +
		"\x00" + strings.ToUpper(strings.TrimSpace(p.CandidateDescription))
}

// Verdict is the verifier's judgment for one pair.
type Verdict struct {
	SameMerchant bool       `json:"same_merchant"`
	Confidence   Confidence `json:"confidence"`
}

// Accepted reports whether this verdict establishes a duplicate: the
// merchants are the same and the judge is at least medium-confident.
func (v Verdict) Accepted() bool {
	return v.SameMerchant && v.Confidence != ConfidenceLow && v.Confidence != ""
}

// Verifier judges batches of merchant pairs. Implementations must
// return exactly one verdict per submitted pair, in submission order.
type Verifier interface {
	VerifyBatch(ctx context.Context, pairs []MerchantPair) ([]Verdict, error)
}

// ChatClient is the slice of the OpenAI chat-completion API the
// verifier needs. Kept as an interface so tests can stub the service.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// OpenAIVerifier implements Verifier over the OpenAI chat API.
type OpenAIVerifier struct {
	client ChatClient
	model  string
}

// NewOpenAIVerifier creates a verifier using the given chat client.
// model defaults to gpt-4o when empty.
func NewOpenAIVerifier(client ChatClient, model string) *OpenAIVerifier {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIVerifier{client: client, model: model}
}

// batchResponse is the JSON shape the model is instructed to return.
type batchResponse struct {
	Verdicts []batchVerdict `json:"verdicts"`
}

type batchVerdict struct {
	Pair         int    `json:"pair"`
	SameMerchant bool   `json:"same_merchant"`
	Confidence   string `json:"confidence"`
}

// VerifyBatch submits one batch of pairs and returns a verdict per
// pair in submission order. Pairs the model fails to address come back
// as low-confidence non-matches rather than holes.
func (v *OpenAIVerifier) VerifyBatch(ctx context.Context, pairs []MerchantPair) ([]Verdict, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	if len(pairs) > MaxPairsPerRequest {
		return nil, fmt.Errorf("batch of %d pairs exceeds per-request cap of %d", len(pairs), MaxPairsPerRequest)
	}

	request := ChatCompletionRequest{
		Model:       v.model,
		Temperature: 0.1,
		ResponseFormat: &ResponseFormat{
			Type: "json_object",
		},
		Messages: []Message{
			{
				Role:    "system",
				Content: "You compare pairs of bank transaction descriptions and judge whether each pair refers to the same merchant. Always respond with valid JSON.",
			},
			{
				Role:    "user",
				Content: buildPrompt(pairs),
			},
		},
	}

	response, err := v.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response from verifier")
	}

	var parsed batchResponse
	if err := json.Unmarshal([]byte(response.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse verifier response: %w", err)
	}

	verdicts := make([]Verdict, len(pairs))
	for _, item := range parsed.Verdicts {
		idx := item.Pair - 1
		if idx < 0 || idx >= len(pairs) {
			continue
		}
		verdicts[idx] = Verdict{
			SameMerchant: item.SameMerchant,
			Confidence:   parseConfidence(item.Confidence),
		}
	}
	for i := range verdicts {
		if verdicts[i].Confidence == "" {
			verdicts[i] = Verdict{SameMerchant: false, Confidence: ConfidenceLow}
		}
	}

	return verdicts, nil
}

func parseConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	case "low":
		return ConfidenceLow
	default:
		return ""
	}
}

func buildPrompt(pairs []MerchantPair) string {
	var list strings.Builder
	for i, p := range pairs {
		list.WriteString(fmt.Sprintf("%d. A: %q  B: %q  (amount %.2f on %s)\n",
			i+1, p.IncomingDescription, p.CandidateDescription, p.Amount, p.Date))
	}

	return fmt.Sprintf(`For each numbered pair below, decide whether description A and description B refer to the SAME merchant. The descriptions come from two different data sources for what may be the same card transaction, so expect processor prefixes, store numbers, truncation, and location suffixes.

Pairs:
%s
Instructions:
1. Same merchant means the same business, not the same category. "STARBUCKS" and "DUNKIN DONUTS" are different merchants even with identical amounts.
2. Ignore formatting noise: "SQ *BURRITO BARN #0042" and "Burrito Barn" are the same merchant.
3. Report confidence as "high", "medium", or "low". Use "low" when you are guessing.

Return a JSON object with this structure:
{
  "verdicts": [
    {"pair": 1, "same_merchant": true, "confidence": "high"}
  ]
}
Include one verdict for every pair.`, list.String())
}
