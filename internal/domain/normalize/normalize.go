// Package normalize extracts a canonical merchant token from raw
// transaction descriptions.
//
// Bank feeds and CSV exports decorate the same merchant differently:
// payment-processor prefixes (SQ *, TST*, PAYPAL *), trailing store
// numbers, city/state suffixes, masked card fragments. Stripping that
// noise lets the similarity scorer compare the underlying merchant.
//
// Example usage:
//
//	normalize.Merchant("SQ *BURRITO BARN #0042 PORTLAND OR")
//	// "BURRITO BARN"
package normalize

import (
	"regexp"
	"strings"
)

// Processor and mobile-wallet prefixes that carry no merchant identity.
var prefixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^SQ\s*\*`),
	regexp.MustCompile(`^TST\*?\s*`),
	regexp.MustCompile(`^PAYPAL\s*\*`),
	regexp.MustCompile(`^PP\*\s*`),
	regexp.MustCompile(`^APLPAY\s+`),
	regexp.MustCompile(`^APPLE\s+PAY\s+`),
	regexp.MustCompile(`^GOOGLE\s*\*`),
	regexp.MustCompile(`^GOOGLE\s+PAY\s+`),
	regexp.MustCompile(`^IN\s*\*`),
	regexp.MustCompile(`^POS\s+(DEBIT|PURCHASE)\s+`),
	regexp.MustCompile(`^(DEBIT|CREDIT)\s+CARD\s+PURCHASE\s+`),
	regexp.MustCompile(`^CHECKCARD\s+(\d{4}\s+)?`),
	regexp.MustCompile(`^VISA\s+PURCHASE\s+`),
	regexp.MustCompile(`^RECURRING\s+PAYMENT\s+`),
}

// Suffixes stripped repeatedly from the tail until none apply.
var suffixPatterns = []*regexp.Regexp{
	// Store/location numbers: "#1234", "STORE 0042", "NO. 115", bare trailing digits.
	regexp.MustCompile(`\s*#\s*\d+$`),
	regexp.MustCompile(`\s+(STORE|STR|LOC|UNIT|NO\.?)\s*\d+$`),
	regexp.MustCompile(`\s+\d{3,}$`),
	// Masked card fragments: "XXXX1234", "****1234", "X1234".
	regexp.MustCompile(`\s*[X\*]{2,}\s*\d{2,4}$`),
	regexp.MustCompile(`\s+X\d{4}$`),
	// Trailing city token + two-letter state: "PORTLAND OR".
	regexp.MustCompile(`\s+[A-Z]{3,}\s+(AL|AK|AZ|AR|CA|CO|CT|DE|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY|DC)$`),
	// URL/domain tails: "AMAZON.COM", "SPOTIFY.COM/US".
	regexp.MustCompile(`\.(COM|NET|ORG|CO|IO)(/[A-Z0-9]*)?$`),
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Merchant reduces a raw description to an upper-cased canonical
// merchant token. It is idempotent: normalizing already-clean text
// returns it unchanged apart from casing. Empty input yields empty
// output; there is no error path.
func Merchant(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	// Prefixes stack too ("POS DEBIT SQ *..."), so strip until stable.
	for {
		trimmed := s
		for _, re := range prefixPatterns {
			trimmed = re.ReplaceAllString(trimmed, "")
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == s {
			break
		}
		s = trimmed
	}

	// Suffix noise stacks ("#1234 PORTLAND OR"), so strip until stable.
	for {
		trimmed := s
		for _, re := range suffixPatterns {
			trimmed = re.ReplaceAllString(trimmed, "")
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == s {
			break
		}
		s = trimmed
	}

	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	// Never strip a description down to nothing; noise-only input is
	// better returned as-is than as an empty token that matches anything.
	if s == "" {
		return whitespaceRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), " ")
	}

	return s
}
