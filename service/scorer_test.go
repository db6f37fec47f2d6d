package service

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/Aashish23092/legaldoc-guardian/classifier"
	"github.com/Aashish23092/legaldoc-guardian/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClassifier struct {
	p     float64
	calls int
}

func (f *fixedClassifier) Probability(classifier.Stats) float64 {
	f.calls++
	return f.p
}

type scoreRule struct {
	score    float64
	terminal bool
}

func (r scoreRule) Name() string { return "test_rule" }

func (r scoreRule) Apply(a *Assessment) bool {
	a.Score = r.score
	if r.terminal {
		a.Label = dto.LabelClean
		a.AddEvidence("test_rule")
	}
	return r.terminal
}

func tok(text string, x, y float64) dto.Token {
	return dto.Token{Text: text, Box: dto.RectBox(x-10, y-5, 20, 10)}
}

func chequeTokens() []dto.Token {
	return []dto.Token{
		tok("Account:", 100, 100),
		tok("123456789", 220, 105),
		tok("Name:", 100, 200),
		tok("J SMITH", 220, 205),
		tok("Amount:", 100, 300),
		tok("20,000", 220, 305),
	}
}

func TestScoreEmptyInput(t *testing.T) {
	clf := &fixedClassifier{p: 1}
	v := NewScorer(clf).Score(nil)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"POSSIBLE","score":0.5,"fields":{},"evidence":["no_text_detected"]}`, string(out))
	assert.Zero(t, clf.calls)
}

func TestScoreSingleAmountCheque(t *testing.T) {
	v := NewScorer(nil).Score(chequeTokens())

	require.NotNil(t, v.Fields)
	require.NotNil(t, v.Fields.Account)
	assert.Equal(t, "123456789", *v.Fields.Account)
	assert.Equal(t, "J SMITH", *v.Fields.Name)
	assert.Equal(t, []int64{20000}, v.Fields.Amounts)

	// With an account present the classifier can lift the score to at most 0.32.
	assert.Equal(t, dto.LabelClean, v.Label)
	assert.LessOrEqual(t, v.Score, 0.32)
	assert.GreaterOrEqual(t, v.Score, 0.1)
	assert.Empty(t, v.Evidence)
}

func TestScoreMultipleAmounts(t *testing.T) {
	clf := &fixedClassifier{p: 0}
	tokens := append(chequeTokens(), tok("Amount:", 100, 400), tok("2,00,000", 220, 405))

	v := NewScorer(clf).Score(tokens)

	assert.Equal(t, dto.LabelForged, v.Label)
	assert.Equal(t, 0.9, v.Score)
	assert.Equal(t, []string{"multiple_amounts_detected:[20000, 200000]"}, v.Evidence)
	assert.Equal(t, []int64{20000, 200000}, v.Fields.Amounts)
	assert.Zero(t, clf.calls, "multiple amounts short-circuits the classifier")
}

func TestScoreAccountMissing(t *testing.T) {
	tokens := []dto.Token{tok("Pay", 100, 100), tok("5,000", 200, 100)}

	for _, p := range []float64{0, 0.5, 1} {
		v := NewScorer(&fixedClassifier{p: p}).Score(tokens)
		assert.Equal(t, dto.LabelPossible, v.Label)
		assert.Equal(t, 0.45, v.Score)
		assert.Equal(t, []string{EvidenceAccountMissing}, v.Evidence)
	}
}

func TestScoreRoundsToThreeDecimals(t *testing.T) {
	v := NewScorer(&fixedClassifier{p: 0.777}).Score(chequeTokens())
	assert.Equal(t, 0.253, v.Score)
	assert.Equal(t, dto.LabelClean, v.Label)
}

func TestScoreClassifierOutputIsClamped(t *testing.T) {
	v := NewScorer(&fixedClassifier{p: 7}).Score(chequeTokens())
	assert.Equal(t, 0.32, v.Score)
}

func TestScoreInsertedRuleReachesForged(t *testing.T) {
	s := NewScorer(&fixedClassifier{p: 0}, WithRules(scoreRule{score: 0.7}))

	v := s.Score(chequeTokens())

	assert.Equal(t, dto.LabelForged, v.Label)
	assert.Equal(t, 0.7, v.Score)
	// The classifier did not raise the score, so no ml_high_score.
	assert.Empty(t, v.Evidence)
}

func TestScoreInsertedRuleOutOfRangeIsClamped(t *testing.T) {
	v := NewScorer(&fixedClassifier{p: 0}, WithRules(scoreRule{score: 1.7})).Score(chequeTokens())
	assert.Equal(t, dto.LabelForged, v.Label)
	assert.Equal(t, 1.0, v.Score)
	assert.Empty(t, v.Evidence)

	v = NewScorer(&fixedClassifier{p: 1}, WithRules(scoreRule{score: -3, terminal: true})).Score(chequeTokens())
	assert.Equal(t, 0.0, v.Score)
}

func TestScoreClassifierBlendAddsHighScoreEvidence(t *testing.T) {
	s := NewScorer(&fixedClassifier{p: 0.9}, WithBlendWeights(1, 0))

	v := s.Score(chequeTokens())

	assert.Equal(t, dto.LabelForged, v.Label)
	assert.Equal(t, 0.9, v.Score)
	assert.Equal(t, []string{EvidenceMLHighScore}, v.Evidence)
}

func TestScoreClassifierBlendBelowRuleScoreAddsNoEvidence(t *testing.T) {
	s := NewScorer(&fixedClassifier{p: 0.65}, WithBlendWeights(1, 0), WithRules(scoreRule{score: 0.8}))

	v := s.Score(chequeTokens())

	assert.Equal(t, dto.LabelForged, v.Label)
	assert.Equal(t, 0.8, v.Score)
	assert.Empty(t, v.Evidence)
}

func TestScoreTerminalInsertedRuleSkipsClassifier(t *testing.T) {
	clf := &fixedClassifier{p: 1}
	s := NewScorer(clf, WithRules(scoreRule{score: 0.2, terminal: true}))

	v := s.Score(chequeTokens())

	assert.Equal(t, dto.LabelClean, v.Label)
	assert.Equal(t, []string{"test_rule"}, v.Evidence)
	assert.Zero(t, clf.calls)
}

func TestScorerRuleOrder(t *testing.T) {
	s := NewScorer(nil, WithRules(scoreRule{}))
	assert.Equal(t, "scorer[no_text > multiple_amounts > account_missing > test_rule > classifier_blend]", s.String())
}

func TestScoreWithTightTolerances(t *testing.T) {
	cfg := NewScorer(nil).Locator()
	cfg.RowTolerance = 1
	tokens := []dto.Token{tok("Account:", 100, 100), tok("123456789", 220, 105)}

	v := NewScorer(&fixedClassifier{}, WithLocatorConfig(cfg)).Score(tokens)

	// The value is 5 units off the label row, so no account is found by
	// proximity and the raw-text fallback recovers it instead.
	require.NotNil(t, v.Fields.Account)
	assert.Equal(t, "123456789", *v.Fields.Account)

	tokens[0].Text = "Account No"
	v = NewScorer(&fixedClassifier{}, WithLocatorConfig(cfg)).Score(tokens)
	assert.Nil(t, v.Fields.Account)
	assert.Contains(t, v.Evidence, EvidenceAccountMissing)
}

func TestScoreNeverForgesOnSingleAmount(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"Account:", "Name:", "Amount", "Rs", "Pay", "2020", "5,000", "5000", "05", ""}
	s := NewScorer(&fixedClassifier{p: 1})

	for run := 0; run < 300; run++ {
		tokens := make([]dto.Token, rng.Intn(12))
		for i := range tokens {
			tokens[i] = tok(words[rng.Intn(len(words))], float64(rng.Intn(600)), float64(rng.Intn(600)))
		}
		v := s.Score(tokens)

		multiple := false
		for _, e := range v.Evidence {
			if strings.HasPrefix(e, EvidenceMultipleAmounts) {
				multiple = true
			}
		}
		if v.Fields == nil {
			assert.Empty(t, tokens)
			continue
		}
		assert.Equal(t, len(v.Fields.Amounts) >= 2, multiple)
		assert.GreaterOrEqual(t, v.Score, 0.0)
		assert.LessOrEqual(t, v.Score, 1.0)
	}
}
