package utils

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Aashish23092/legaldoc-guardian/dto"
)

var reAccountLine = regexp.MustCompile(`(?i)Account[:\s]*([0-9\-\s]{4,})`)

const (
	lowestAmount   = 10
	yearRangeStart = 1900
	yearRangeEnd   = 2100
)

// ExtractFields rebuilds the account number, payer name and amounts of a
// document from its OCR tokens. It never fails: tokens that cannot be placed
// or parsed are skipped.
func ExtractFields(tokens []dto.Token, cfg LocatorConfig) dto.FieldRecord {
	layout := NewLayout(tokens)
	rawText := RawText(layout)

	record := dto.FieldRecord{
		Amounts: []int64{},
		RawText: rawText,
	}

	account := FindAccount(layout, rawText, cfg)
	if account != "" {
		record.Account = &account
	}
	if name := FindName(layout, cfg); name != "" {
		record.Name = &name
	}
	record.Amounts = FindAmounts(layout, account, cfg)

	return record
}

// RawText joins the non-empty token texts, in input order, with newlines.
func RawText(l *Layout) string {
	lines := make([]string, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		if t := l.Text(i); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}

// FindAccount looks right of each "Account" label on the same row for a value
// with at least cfg.AccountMinDigits digits. When no label yields one it falls
// back to an "Account: <digits>" scan of the raw text.
func FindAccount(l *Layout, rawText string, cfg LocatorConfig) string {
	window := Window{MinDX: cfg.MinDX, MaxDY: cfg.RowTolerance}
	longEnough := func(text string) bool {
		return len(DigitsOnly(text)) >= cfg.AccountMinDigits
	}

	for i := 0; i < l.Len(); i++ {
		label := strings.TrimRight(strings.ToLower(l.Text(i)), ":")
		if !strings.HasPrefix(label, "account") {
			continue
		}
		if c, ok := l.Nearest(i, window, longEnough); ok {
			return cleanAccount(c.Text)
		}
	}

	if m := reAccountLine.FindStringSubmatch(foldDigits(rawText)); len(m) > 1 {
		return cleanAccount(m[1])
	}
	return ""
}

// FindName returns the payer name. An inline "Name: X" wins, then the nearest
// token strictly right of the first "Name" label, then the longest token that
// is not purely digits and commas.
func FindName(l *Layout, cfg LocatorConfig) string {
	for i := 0; i < l.Len(); i++ {
		text := l.Text(i)
		if !strings.HasPrefix(strings.ToLower(text), "name") {
			continue
		}
		if _, value, found := strings.Cut(text, ":"); found && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
		window := Window{StrictlyRight: true, MaxDY: cfg.NameRowTolerance}
		if c, ok := l.Nearest(i, window, nil); ok {
			return c.Text
		}
		break
	}
	return longestWordyToken(l)
}

func longestWordyToken(l *Layout) string {
	best, bestLen := "", 0
	for i := 0; i < l.Len(); i++ {
		text := l.Text(i)
		if text == "" || isDigitsAndCommas(text) {
			continue
		}
		if n := utf8.RuneCountInString(text); n > bestLen {
			best, bestLen = text, n
		}
	}
	return best
}

// FindAmounts pools amounts from "Amount" labels, currency markers and every
// amount-looking token, then returns them distinct, ascending and without
// values below 10 or inside the 1900-2100 year range. Tokens whose digits
// appear inside the account number are not counted.
func FindAmounts(l *Layout, account string, cfg LocatorConfig) []int64 {
	var pool []int64
	add := func(text string) {
		if v, ok := NormalizeAmount(text); ok {
			pool = append(pool, v)
		}
	}

	labelWindow := Window{MinDX: cfg.MinDX, MaxDX: cfg.AmountReach, MaxDY: cfg.RowTolerance}
	markerWindow := Window{MinDX: cfg.MinDX, MaxDY: cfg.RowTolerance}

	for i := 0; i < l.Len(); i++ {
		if !strings.HasPrefix(strings.ToLower(l.Text(i)), "amount") {
			continue
		}
		for _, c := range l.NearestCandidates(i, labelWindow, HasDigit, cfg.AmountCandidates) {
			add(c.Text)
		}
	}

	for i := 0; i < l.Len(); i++ {
		if !isCurrencyMarker(l.Text(i), cfg.CurrencyMarkers) {
			continue
		}
		if c, ok := l.Nearest(i, markerWindow, HasDigit); ok {
			add(c.Text)
		}
	}

	for i := 0; i < l.Len(); i++ {
		text := l.Text(i)
		if !IsPotentialAmountToken(text) {
			continue
		}
		if account != "" && strings.Contains(account, DigitsOnly(text)) {
			continue
		}
		add(text)
	}

	return cleanAmounts(pool)
}

func isCurrencyMarker(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if lower == strings.ToLower(m) {
			return true
		}
	}
	return false
}

func cleanAmounts(pool []int64) []int64 {
	seen := make(map[int64]bool, len(pool))
	out := make([]int64, 0, len(pool))
	for _, v := range pool {
		if v <= 0 || seen[v] {
			continue
		}
		seen[v] = true
		if v < lowestAmount || (v >= yearRangeStart && v <= yearRangeEnd) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
