package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAmount(t *testing.T) {
	cases := map[string]int64{
		"20,000":         20000,
		"2,00,000":       200000,
		"Rs. 1,500/-":    1500,
		"₹ 75,250":       75250,
		"INR12345":       12345,
		"0042":           42,
		"1,23,45,678.00": 12345678_00,
	}
	for in, want := range cases {
		got, ok := NormalizeAmount(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNormalizeAmountNoValue(t *testing.T) {
	for _, in := range []string{"", "Amount", ",,,", "Rs.", "99999999999999999999999"} {
		_, ok := NormalizeAmount(in)
		assert.False(t, ok, in)
	}
}

func TestIsPotentialAmountToken(t *testing.T) {
	assert.True(t, IsPotentialAmountToken("20,000"))
	assert.True(t, IsPotentialAmountToken(" 45 "))
	assert.True(t, IsPotentialAmountToken("1234567"))
	assert.True(t, IsPotentialAmountToken("Rs.500"))

	assert.False(t, IsPotentialAmountToken(""))
	assert.False(t, IsPotentialAmountToken("   "))
	assert.False(t, IsPotentialAmountToken("Amount"))
	assert.False(t, IsPotentialAmountToken("7"))
	assert.False(t, IsPotentialAmountToken("12345678"))
	assert.False(t, IsPotentialAmountToken("2024-01-15"))
	assert.False(t, IsPotentialAmountToken("2024/01/15"))
}

func TestIsPotentialAmountTokenDigitLengthBoundary(t *testing.T) {
	assert.True(t, IsPotentialAmountToken("12,34,567"), "7 digits is an amount")
	assert.False(t, IsPotentialAmountToken("1,23,45,678"), "8 digits is an identifier")
}

func TestIsPotentialAmountTokenLooseDatesPass(t *testing.T) {
	// Only strict ISO-like dates are rejected; these still have 2-7 digits.
	assert.True(t, IsPotentialAmountToken("15/01/24"))
	assert.True(t, IsPotentialAmountToken("2024-1-5"))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "123456", DigitsOnly("A/C 123-456"))
	assert.Equal(t, "", DigitsOnly("Name:"))
	assert.True(t, HasDigit("J5"))
	assert.False(t, HasDigit("J SMITH"))
}

func TestNonASCIIDigitsNormalize(t *testing.T) {
	got, ok := NormalizeAmount("२०,०००")
	assert.True(t, ok)
	assert.Equal(t, int64(20000), got)

	got, ok = NormalizeAmount("٤٥٠٠")
	assert.True(t, ok)
	assert.Equal(t, int64(4500), got)

	got, ok = NormalizeAmount("１２３")
	assert.True(t, ok)
	assert.Equal(t, int64(123), got)

	assert.True(t, HasDigit("रु ५"))
	assert.True(t, IsPotentialAmountToken("२०,०००"))
	assert.False(t, IsPotentialAmountToken("१२३४५६७८"))
	assert.Equal(t, "98765", DigitsOnly("खाता ९८७६५"))
	assert.Equal(t, "12-34", cleanAccount("१२-३४"))
}
