package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	reStrictDate  = regexp.MustCompile(`^\d{4}[-/]\d{2}[-/]\d{2}$`)
	reNotAmount   = regexp.MustCompile(`[^\d,]`)
	reNotDigit    = regexp.MustCompile(`[^\d]`)
	reNotAccount  = regexp.MustCompile(`[^\d\-]`)
	reDigitsComma = regexp.MustCompile(`^[\d,]+$`)
)

const (
	minAmountDigits = 2
	// 8+ digit runs are account numbers, IDs or phone numbers, not amounts.
	maxAmountDigits = 7
)

// NormalizeAmount turns OCR text such as "Rs. 2,00,000/-" into 200000.
// Everything except digits and commas is stripped, then commas are removed.
// ok is false when nothing numeric is left or the value does not fit an int64.
func NormalizeAmount(text string) (value int64, ok bool) {
	if text == "" {
		return 0, false
	}
	s := reNotAmount.ReplaceAllString(foldDigits(text), "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsPotentialAmountToken reports whether a token could hold a monetary amount.
// Strict YYYY-MM-DD / YYYY/MM/DD dates are rejected, as is anything whose
// digit-only form is shorter than 2 or longer than 7 digits.
func IsPotentialAmountToken(text string) bool {
	tok := strings.TrimSpace(foldDigits(text))
	if tok == "" {
		return false
	}
	if reStrictDate.MatchString(tok) {
		return false
	}
	if !HasDigit(tok) {
		return false
	}
	d := len(DigitsOnly(tok))
	return d >= minAmountDigits && d <= maxAmountDigits
}

// DigitsOnly drops every non-digit character. Non-ASCII decimal digits
// are kept in their ASCII form.
func DigitsOnly(text string) string {
	return reNotDigit.ReplaceAllString(foldDigits(text), "")
}

// HasDigit reports whether text contains at least one decimal digit in any script.
func HasDigit(text string) bool {
	return strings.IndexFunc(text, unicode.IsDigit) >= 0
}

// isDigitsAndCommas matches tokens like "20,000" or "123".
func isDigitsAndCommas(text string) bool {
	return reDigitsComma.MatchString(foldDigits(text))
}

// cleanAccount keeps only digits and hyphens.
func cleanAccount(text string) string {
	return reNotAccount.ReplaceAllString(foldDigits(text), "")
}

// foldDigits rewrites decimal digits from any script ("२०,०००", "٤٥") as
// ASCII so the regexp and strconv paths see 0-9.
func foldDigits(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 || !unicode.IsDigit(r) {
			return r
		}
		if d, ok := digitValue(r); ok {
			return '0' + d
		}
		return r
	}, text)
}

// digitValue finds r's value within unicode.Nd. Every Nd block is a run of
// ten code points starting at zero, so the offset from the range start
// modulo 10 is the digit.
func digitValue(r rune) (rune, bool) {
	for _, rg := range unicode.Nd.R16 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			off := r - lo
			if off%rune(rg.Stride) != 0 {
				return 0, false
			}
			return (off / rune(rg.Stride)) % 10, true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			off := r - lo
			if off%rune(rg.Stride) != 0 {
				return 0, false
			}
			return (off / rune(rg.Stride)) % 10, true
		}
	}
	return 0, false
}
