package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Aashish23092/legaldoc-guardian/classifier"
	"github.com/Aashish23092/legaldoc-guardian/dto"
	"github.com/Aashish23092/legaldoc-guardian/utils"
)

// Evidence strings attached to verdicts.
const (
	EvidenceNoText          = "no_text_detected"
	EvidenceMultipleAmounts = "multiple_amounts_detected"
	EvidenceAccountMissing  = "account_missing"
	EvidenceMLHighScore     = "ml_high_score"
)

const (
	baselineScore        = 0.1
	noTextScore          = 0.5
	multipleAmountsScore = 0.9
	accountMissingFloor  = 0.45

	classifierWeight = 0.3
	priorWeight      = 0.2

	forgedThreshold   = 0.6
	possibleThreshold = 0.35
)

// Assessment is the working state of one scoring run. Rules read the tokens
// and fields and move the score; a terminal rule also sets the label.
type Assessment struct {
	Tokens   []dto.Token
	Score    float64
	Label    dto.Label
	Evidence []string

	locator utils.LocatorConfig
	fields  *dto.FieldRecord
	// blendRaised is set when the classifier blend moved the score up.
	blendRaised bool
}

// Fields extracts the field record on first use.
func (a *Assessment) Fields() *dto.FieldRecord {
	if a.fields == nil {
		f := utils.ExtractFields(a.Tokens, a.locator)
		a.fields = &f
	}
	return a.fields
}

// AddEvidence appends a diagnostic string.
func (a *Assessment) AddEvidence(e string) {
	a.Evidence = append(a.Evidence, e)
}

// clampScore keeps the score within [0,1] whatever the rules did to it.
func (a *Assessment) clampScore() {
	a.Score = math.Min(math.Max(a.Score, 0), 1)
}

func (a *Assessment) verdict() dto.Verdict {
	a.clampScore()
	evidence := a.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	return dto.Verdict{
		Label:    a.Label,
		Score:    math.Round(a.Score*1000) / 1000,
		Fields:   a.fields,
		Evidence: evidence,
	}
}

// Rule is one scoring signal. Apply returns true when the rule settles the
// verdict and no later rule may run.
type Rule interface {
	Name() string
	Apply(a *Assessment) bool
}

// NoTextRule ends scoring for documents without any OCR tokens.
type NoTextRule struct{}

func (NoTextRule) Name() string { return "no_text" }

func (NoTextRule) Apply(a *Assessment) bool {
	if len(a.Tokens) > 0 {
		return false
	}
	a.Label = dto.LabelPossible
	a.Score = noTextScore
	a.AddEvidence(EvidenceNoText)
	return true
}

// MultipleAmountsRule flags documents showing two or more distinct amounts,
// the usual trace of an altered figure next to the original.
type MultipleAmountsRule struct{}

func (MultipleAmountsRule) Name() string { return "multiple_amounts" }

func (MultipleAmountsRule) Apply(a *Assessment) bool {
	amounts := a.Fields().Amounts
	if len(amounts) < 2 {
		return false
	}
	a.Label = dto.LabelForged
	a.Score = multipleAmountsScore
	a.AddEvidence(EvidenceMultipleAmounts + ":" + formatAmounts(amounts))
	return true
}

// formatAmounts renders amounts as "[20000, 200000]".
func formatAmounts(amounts []int64) string {
	parts := make([]string, len(amounts))
	for i, v := range amounts {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MissingAccountRule raises the score floor when no account number was found.
type MissingAccountRule struct{}

func (MissingAccountRule) Name() string { return "account_missing" }

func (MissingAccountRule) Apply(a *Assessment) bool {
	if a.Fields().Account != nil {
		return false
	}
	a.Score = math.Max(a.Score, accountMissingFloor)
	a.AddEvidence(EvidenceAccountMissing)
	return false
}

// ClassifierBlendRule mixes the auxiliary classifier probability into the
// score as max(score, Weight*p + PriorWeight*score). When both weights are
// zero the defaults 0.3 and 0.2 apply.
type ClassifierBlendRule struct {
	Classifier  classifier.Classifier
	Weight      float64
	PriorWeight float64
}

func (ClassifierBlendRule) Name() string { return "classifier_blend" }

func (r ClassifierBlendRule) Apply(a *Assessment) bool {
	if r.Classifier == nil {
		return false
	}
	p := r.Classifier.Probability(classifier.StatsFromTokens(a.Tokens))
	p = math.Min(math.Max(p, 0), 1)

	w, pw := r.Weight, r.PriorWeight
	if w == 0 && pw == 0 {
		w, pw = classifierWeight, priorWeight
	}
	if blended := w*p + pw*a.Score; blended > a.Score {
		a.Score = blended
		a.blendRaised = true
	}
	return false
}

// Scorer turns OCR tokens into a Verdict by running its rules in order.
type Scorer struct {
	classifier classifier.Classifier
	locator    utils.LocatorConfig
	extra      []Rule

	blendWeight, blendPrior float64
}

// ScorerOption customizes a Scorer.
type ScorerOption func(*Scorer)

// WithLocatorConfig overrides the proximity tolerances used for extraction.
func WithLocatorConfig(cfg utils.LocatorConfig) ScorerOption {
	return func(s *Scorer) { s.locator = cfg }
}

// WithRules inserts additional rules after the built-in rule-based signals
// and before the classifier blend.
func WithRules(rules ...Rule) ScorerOption {
	return func(s *Scorer) { s.extra = append(s.extra, rules...) }
}

// WithBlendWeights sets the classifier and prior weights of the classifier
// blend. Passing (0, 0) restores the defaults.
func WithBlendWeights(classifier, prior float64) ScorerOption {
	return func(s *Scorer) { s.blendWeight, s.blendPrior = classifier, prior }
}

// NewScorer builds a scorer. A nil classifier falls back to the in-memory
// default forest.
func NewScorer(clf classifier.Classifier, opts ...ScorerOption) *Scorer {
	if clf == nil {
		clf = classifier.NewStore("", nil)
	}
	s := &Scorer{classifier: clf, locator: utils.DefaultLocatorConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locator returns the proximity tolerances in use.
func (s *Scorer) Locator() utils.LocatorConfig { return s.locator }

// Rules returns the rules in evaluation order.
func (s *Scorer) Rules() []Rule {
	rules := []Rule{NoTextRule{}, MultipleAmountsRule{}, MissingAccountRule{}}
	rules = append(rules, s.extra...)
	return append(rules, ClassifierBlendRule{
		Classifier:  s.classifier,
		Weight:      s.blendWeight,
		PriorWeight: s.blendPrior,
	})
}

// Score evaluates the rules in priority order. It never fails; every token
// list yields a verdict.
func (s *Scorer) Score(tokens []dto.Token) dto.Verdict {
	a := &Assessment{Tokens: tokens, Score: baselineScore, locator: s.locator}

	for _, rule := range s.Rules() {
		if rule.Apply(a) {
			return a.verdict()
		}
	}

	a.clampScore()
	a.Label = labelFor(a.Score)
	if a.Score > forgedThreshold && a.blendRaised {
		a.AddEvidence(EvidenceMLHighScore)
	}
	return a.verdict()
}

func labelFor(score float64) dto.Label {
	switch {
	case score > forgedThreshold:
		return dto.LabelForged
	case score > possibleThreshold:
		return dto.LabelPossible
	default:
		return dto.LabelClean
	}
}

// String describes the rule order, e.g. for startup logs.
func (s *Scorer) String() string {
	names := make([]string, 0, len(s.extra)+4)
	for _, r := range s.Rules() {
		names = append(names, r.Name())
	}
	return fmt.Sprintf("scorer[%s]", strings.Join(names, " > "))
}
