// Package importer parses bank-statement CSV exports into transaction
// records for deduplication.
//
// Banks disagree on header names, date layouts, and amount formatting,
// so parsing is permissive: headers are matched against known aliases,
// amounts accept currency symbols, thousands separators and
// parenthesized negatives, and malformed rows are reported per row
// without failing the import.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ledgermatch/dedup-backend/internal/domain/dedup"
)

// Column aliases, matched case-insensitively against trimmed headers.
var (
	dateAliases        = []string{"date", "transaction date", "trans date", "trans. date"}
	descriptionAliases = []string{"description", "memo", "details", "payee", "name", "transaction"}
	amountAliases      = []string{"amount", "transaction amount"}
	merchantAliases    = []string{"merchant", "merchant name"}
	authorizedAliases  = []string{"authorized date", "auth date"}
	postedAliases      = []string{"posted date", "post date", "settlement date"}
)

// Accepted date layouts; output is always normalized to YYYY-MM-DD.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// RowError describes one unusable CSV row. Line numbers are 1-based
// and count the header.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Result carries the parsed records along with per-row failures.
type Result struct {
	Records   []dedup.TransactionRecord `json:"records"`
	RowErrors []RowError                `json:"row_errors,omitempty"`
}

type columnMap struct {
	date        int
	description int
	amount      int
	merchant    int
	authorized  int
	posted      int
}

// ParseCSV reads a bank-statement export. It returns an error only for
// structural problems (unreadable input, missing required columns);
// individual bad rows land in Result.RowErrors and never abort the
// import.
func ParseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &Result{Records: make([]dedup.TransactionRecord, 0)}
	line := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{Line: line, Reason: err.Error()})
			continue
		}

		rec, rowErr := parseRow(row, cols)
		if rowErr != "" {
			result.RowErrors = append(result.RowErrors, RowError{Line: line, Reason: rowErr})
			continue
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{date: -1, description: -1, amount: -1, merchant: -1, authorized: -1, posted: -1}

	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		switch {
		case cols.date == -1 && matchesAlias(name, dateAliases):
			cols.date = i
		case cols.description == -1 && matchesAlias(name, descriptionAliases):
			cols.description = i
		case cols.amount == -1 && matchesAlias(name, amountAliases):
			cols.amount = i
		case cols.merchant == -1 && matchesAlias(name, merchantAliases):
			cols.merchant = i
		case cols.authorized == -1 && matchesAlias(name, authorizedAliases):
			cols.authorized = i
		case cols.posted == -1 && matchesAlias(name, postedAliases):
			cols.posted = i
		}
	}

	var missing []string
	if cols.date == -1 {
		missing = append(missing, "date")
	}
	if cols.description == -1 {
		missing = append(missing, "description")
	}
	if cols.amount == -1 {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("CSV is missing required columns: %s", strings.Join(missing, ", "))
	}

	return cols, nil
}

func matchesAlias(name string, aliases []string) bool {
	for _, a := range aliases {
		if name == a {
			return true
		}
	}
	return false
}

func parseRow(row []string, cols columnMap) (dedup.TransactionRecord, string) {
	var rec dedup.TransactionRecord

	get := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	date, err := ParseDate(get(cols.date))
	if err != nil {
		return rec, err.Error()
	}

	amount, err := ParseAmount(get(cols.amount))
	if err != nil {
		return rec, err.Error()
	}

	desc := get(cols.description)
	if desc == "" {
		return rec, "empty description"
	}

	rec = dedup.TransactionRecord{
		Description:   desc,
		MerchantLabel: get(cols.merchant),
		Amount:        amount,
		Date:          date,
	}
	if d, err := ParseDate(get(cols.authorized)); err == nil {
		rec.AuthorizedDate = d
	}
	if d, err := ParseDate(get(cols.posted)); err == nil {
		rec.PostedDate = d
	}

	return rec, ""
}

// ParseDate accepts the common bank export date layouts and returns
// the date normalized to YYYY-MM-DD.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

// ParseAmount parses a signed decimal amount, tolerating currency
// symbols, thousands separators, and accounting-style parenthesized
// negatives.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, ",", "")
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", s)
	}
	if negative {
		value = -value
	}
	return value, nil
}
