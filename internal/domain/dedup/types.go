package dedup

import "time"

// Tier identifies which pipeline stage decided a match.
type Tier int

const (
	// TierNone marks records that no stage matched.
	TierNone Tier = 0
	// TierDeterministic is the in-process string matcher.
	TierDeterministic Tier = 1
	// TierSemantic is the external semantic verifier.
	TierSemantic Tier = 2
)

// TransactionRecord is one side of a potential duplicate pair. Known
// records (the already-stored side) carry an ID; incoming records from
// a CSV import or feed sync do not. Dates are plain YYYY-MM-DD strings
// as delivered by the sources; AuthorizedDate and PostedDate are
// optional alternates for feeds that timestamp both conventions.
type TransactionRecord struct {
	ID             string  `json:"id,omitempty"`
	AccountID      string  `json:"account_id,omitempty"`
	Description    string  `json:"description"`
	MerchantLabel  string  `json:"merchant_label,omitempty"`
	Amount         float64 `json:"amount"`
	Date           string  `json:"date"`
	AuthorizedDate string  `json:"authorized_date,omitempty"`
	PostedDate     string  `json:"posted_date,omitempty"`
}

// Dates returns the record's distinct non-empty date strings, primary
// date first.
func (r *TransactionRecord) Dates() []string {
	dates := make([]string, 0, 3)
	for _, d := range []string{r.Date, r.AuthorizedDate, r.PostedDate} {
		if d == "" || containsString(dates, d) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// DuplicateMatch pairs an incoming record with the known record it
// duplicates, along with the deciding tier and its confidence.
type DuplicateMatch struct {
	Incoming   TransactionRecord `json:"incoming"`
	Matched    TransactionRecord `json:"matched"`
	Confidence float64           `json:"confidence"`
	Tier       Tier              `json:"tier"`
}

// UniqueRecord is an incoming record the pipeline classified as not a
// duplicate. Confidence is 1 when every applicable stage cleared the
// record and reduced when the semantic tier was unavailable or errored
// while candidates existed.
type UniqueRecord struct {
	Record     TransactionRecord `json:"record"`
	Confidence float64           `json:"confidence"`
}

// RunStatistics aggregates one dedup run.
type RunStatistics struct {
	TotalIncoming  int           `json:"total_incoming"`
	UniqueCount    int           `json:"unique_count"`
	DuplicateCount int           `json:"duplicate_count"`
	Tier1Matches   int           `json:"tier1_matches"`
	Tier2Matches   int           `json:"tier2_matches"`
	Elapsed        time.Duration `json:"elapsed_ns"`
}

// RunResult is the shared output shape of both pipeline modes.
type RunResult struct {
	Unique     []UniqueRecord   `json:"unique"`
	Duplicates []DuplicateMatch `json:"duplicates"`
	Stats      RunStatistics    `json:"stats"`
}
