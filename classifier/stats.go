package classifier

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Aashish23092/legaldoc-guardian/dto"
)

var reAmountWord = regexp.MustCompile(`(?i)amount`)

// Stats are the coarse document statistics fed to the auxiliary classifier.
type Stats struct {
	CharCount      int  `json:"char_count"`
	DigitCount     int  `json:"digit_count"`
	MentionsAmount bool `json:"mentions_amount"`
}

// StatsFromTokens joins token texts with single spaces, untrimmed, and
// counts characters and digits of the result.
func StatsFromTokens(tokens []dto.Token) Stats {
	texts := make([]string, len(tokens))
	for i, t := range tokens {
		texts[i] = t.Text
	}
	text := strings.Join(texts, " ")

	digits := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return Stats{
		CharCount:      utf8.RuneCountInString(text),
		DigitCount:     digits,
		MentionsAmount: reAmountWord.MatchString(text),
	}
}

// Features returns the vector [char count, digit count, mentions amount].
func (s Stats) Features() []float64 {
	mention := 0.0
	if s.MentionsAmount {
		mention = 1
	}
	return []float64{float64(s.CharCount), float64(s.DigitCount), mention}
}

// Classifier turns document statistics into a forgery probability in [0,1].
type Classifier interface {
	Probability(s Stats) float64
}
