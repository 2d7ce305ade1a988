package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerchant_StripsProcessorNoise(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"square prefix", "SQ *BURRITO BARN", "BURRITO BARN"},
		{"toast prefix", "TST* CORNER CAFE", "CORNER CAFE"},
		{"paypal prefix", "PAYPAL *SPOTIFY", "SPOTIFY"},
		{"apple pay prefix", "APLPAY TRADER JOES", "TRADER JOES"},
		{"google prefix", "GOOGLE *YOUTUBE", "YOUTUBE"},
		{"pos prefix", "POS DEBIT WHOLE FOODS", "WHOLE FOODS"},
		{"checkcard prefix", "CHECKCARD 0115 HOME DEPOT", "HOME DEPOT"},
		{"store number", "BURRITO BARN #0042", "BURRITO BARN"},
		{"store word number", "WALGREENS STORE 118", "WALGREENS"},
		{"bare trailing digits", "SHELL OIL 57442809", "SHELL OIL"},
		{"masked card", "NETFLIX XXXX4821", "NETFLIX"},
		{"city state suffix", "BURRITO BARN PORTLAND OR", "BURRITO BARN"},
		{"domain suffix", "AMAZON.COM", "AMAZON"},
		{"domain with path", "SPOTIFY.COM/US", "SPOTIFY"},
		{"stacked noise", "SQ *BURRITO BARN #0042 PORTLAND OR", "BURRITO BARN"},
		{"stacked prefixes", "POS DEBIT SQ *BURRITO BARN", "BURRITO BARN"},
		{"checkcard over toast", "CHECKCARD 0115 TST* CORNER CAFE", "CORNER CAFE"},
		{"recurring over paypal", "RECURRING PAYMENT PAYPAL *SPOTIFY", "SPOTIFY"},
		{"lowercase input", "sq *burrito barn", "BURRITO BARN"},
		{"internal whitespace", "BURRITO   BARN", "BURRITO BARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merchant(tt.input))
		})
	}
}

func TestMerchant_Idempotent(t *testing.T) {
	inputs := []string{
		"SQ *BURRITO BARN #0042 PORTLAND OR",
		"POS DEBIT SQ *BURRITO BARN",
		"CHECKCARD 0115 TST* CORNER CAFE",
		"RECURRING PAYMENT PAYPAL *SPOTIFY",
		"BURRITO BARN",
		"PAYPAL *SPOTIFY.COM",
		"DUNKIN DONUTS",
		"STARBUCKS",
		"#1234",
		"",
	}

	for _, in := range inputs {
		once := Merchant(in)
		twice := Merchant(once)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", in)
	}
}

func TestMerchant_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Merchant(""))
	assert.Equal(t, "", Merchant("   "))
}

func TestMerchant_CleanTextUnchanged(t *testing.T) {
	// Already-normalized text passes through apart from casing.
	assert.Equal(t, "BURRITO BARN", Merchant("Burrito Barn"))
	assert.Equal(t, "DUNKIN DONUTS", Merchant("DUNKIN DONUTS"))
	assert.Equal(t, "STARBUCKS", Merchant("STARBUCKS"))
}

func TestMerchant_NoiseOnlyInputNotEmptied(t *testing.T) {
	// A description that is nothing but noise keeps its raw form rather
	// than collapsing to a token that would match everything.
	assert.Equal(t, "#1234", Merchant("#1234"))
}
