package utils

import (
	"sort"
	"strings"

	"github.com/Aashish23092/legaldoc-guardian/dto"
)

// LocatorConfig holds the proximity tolerances used to pair labels with values.
// Coordinates are in OCR image units (pixels for both supported engines).
type LocatorConfig struct {
	// MinDX is how far left of its label a value may sit (inclusive).
	MinDX float64
	// RowTolerance is the exclusive |dy| limit for account, amount and currency lookups.
	RowTolerance float64
	// NameRowTolerance is the tighter |dy| limit for name lookups.
	NameRowTolerance float64
	// AmountReach is the exclusive dx limit for values next to an "Amount" label.
	AmountReach float64
	// AmountCandidates is how many values each "Amount" label contributes.
	AmountCandidates int
	// AccountMinDigits is the minimum digit count of an account value.
	AccountMinDigits int
	// CurrencyMarkers are matched case-insensitively against whole tokens.
	CurrencyMarkers []string
}

// DefaultLocatorConfig returns the tolerances tuned for single-page scans.
func DefaultLocatorConfig() LocatorConfig {
	return LocatorConfig{
		MinDX:            -10,
		RowTolerance:     120,
		NameRowTolerance: 60,
		AmountReach:      1500,
		AmountCandidates: 3,
		AccountMinDigits: 6,
		CurrencyMarkers:  []string{"rs", "rs.", "inr", "₹"},
	}
}

// Window bounds where a value token may sit relative to its anchor.
type Window struct {
	// MinDX is the inclusive lower bound on dx. Ignored when StrictlyRight is set.
	MinDX float64
	// MaxDX is the exclusive upper bound on dx; zero means unbounded.
	MaxDX float64
	// MaxDY is the exclusive upper bound on |dy|.
	MaxDY float64
	// StrictlyRight requires dx > 0.
	StrictlyRight bool
}

// Contains reports whether an offset (dx, |dy|) falls inside the window.
func (w Window) Contains(dx, dy float64) bool {
	if w.StrictlyRight {
		if dx <= 0 {
			return false
		}
	} else if dx < w.MinDX {
		return false
	}
	if w.MaxDX != 0 && dx >= w.MaxDX {
		return false
	}
	return dy < w.MaxDY
}

// Candidate is a value token found near an anchor.
type Candidate struct {
	Index int
	Text  string
	DX    float64
	DY    float64
}

// Layout is a token list with trimmed text and centroids resolved once.
type Layout struct {
	texts  []string
	points []dto.Point
	placed []bool
}

// NewLayout prepares tokens for proximity searches. Tokens without usable
// geometry stay in the layout but never take part in a search.
func NewLayout(tokens []dto.Token) *Layout {
	l := &Layout{
		texts:  make([]string, len(tokens)),
		points: make([]dto.Point, len(tokens)),
		placed: make([]bool, len(tokens)),
	}
	for i, tok := range tokens {
		l.texts[i] = strings.TrimSpace(tok.Text)
		l.points[i], l.placed[i] = tok.Centroid()
	}
	return l
}

// Len returns the number of tokens.
func (l *Layout) Len() int { return len(l.texts) }

// Text returns the trimmed text of token i.
func (l *Layout) Text(i int) string { return l.texts[i] }

// NearestCandidates returns up to limit tokens inside w relative to the anchor,
// ordered by dx, then |dy|, then input order. accept filters on token text;
// nil accepts everything. limit <= 0 returns all matches. The anchor itself
// and blank tokens are never returned.
func (l *Layout) NearestCandidates(anchor int, w Window, accept func(string) bool, limit int) []Candidate {
	if anchor < 0 || anchor >= len(l.texts) || !l.placed[anchor] {
		return nil
	}
	origin := l.points[anchor]

	var found []Candidate
	for i, text := range l.texts {
		if i == anchor || text == "" || !l.placed[i] {
			continue
		}
		if accept != nil && !accept(text) {
			continue
		}
		dx := l.points[i].X - origin.X
		dy := l.points[i].Y - origin.Y
		if dy < 0 {
			dy = -dy
		}
		if !w.Contains(dx, dy) {
			continue
		}
		found = append(found, Candidate{Index: i, Text: text, DX: dx, DY: dy})
	}

	sort.SliceStable(found, func(a, b int) bool {
		if found[a].DX != found[b].DX {
			return found[a].DX < found[b].DX
		}
		return found[a].DY < found[b].DY
	})

	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found
}

// Nearest returns the single best candidate for an anchor.
func (l *Layout) Nearest(anchor int, w Window, accept func(string) bool) (Candidate, bool) {
	c := l.NearestCandidates(anchor, w, accept, 1)
	if len(c) == 0 {
		return Candidate{}, false
	}
	return c[0], true
}
