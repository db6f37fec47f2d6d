package dto

import (
	"encoding/json"
	"time"
)

// Label is the forgery-screening outcome for one document.
type Label string

const (
	LabelClean    Label = "CLEAN"
	LabelPossible Label = "POSSIBLE"
	LabelForged   Label = "FORGED"
)

// FieldRecord holds the structured fields recovered from a token list.
// Amounts are distinct and ascending.
type FieldRecord struct {
	Name    *string `json:"name" yaml:"name"`
	Account *string `json:"account" yaml:"account"`
	Amounts []int64 `json:"amounts" yaml:"amounts"`
	RawText string  `json:"raw_text" yaml:"raw_text"`
}

// Verdict is the final screening result. Fields is nil when nothing was
// extracted (empty input) and then serializes as an empty object.
type Verdict struct {
	Label    Label        `json:"label" yaml:"label"`
	Score    float64      `json:"score" yaml:"score"`
	Fields   *FieldRecord `json:"fields" yaml:"fields"`
	Evidence []string     `json:"evidence" yaml:"evidence"`
}

type verdictView struct {
	Label    Label       `json:"label" yaml:"label"`
	Score    float64     `json:"score" yaml:"score"`
	Fields   interface{} `json:"fields" yaml:"fields"`
	Evidence []string    `json:"evidence" yaml:"evidence"`
}

func (v Verdict) view() verdictView {
	out := verdictView{Label: v.Label, Score: v.Score, Fields: v.Fields, Evidence: v.Evidence}
	if v.Fields == nil {
		out.Fields = struct{}{}
	}
	if out.Evidence == nil {
		out.Evidence = []string{}
	}
	return out
}

// MarshalJSON renders missing fields as {} and missing evidence as [].
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.view())
}

// MarshalYAML applies the same normalization as MarshalJSON.
func (v Verdict) MarshalYAML() (interface{}, error) {
	return v.view(), nil
}

// PageVerdict is the verdict for a single page of a multi-page upload.
type PageVerdict struct {
	Page       int     `json:"page" yaml:"page"`
	Source     string  `json:"source" yaml:"source"`
	TokenCount int     `json:"token_count" yaml:"token_count"`
	Verdict    Verdict `json:"verdict" yaml:"verdict"`
}

// AnalysisResponse is returned by every analysis entry point.
type AnalysisResponse struct {
	AnalysisID  string        `json:"analysis_id" yaml:"analysis_id"`
	Source      string        `json:"source" yaml:"source"`
	Verdict     Verdict       `json:"verdict" yaml:"verdict"`
	Pages       []PageVerdict `json:"pages,omitempty" yaml:"pages,omitempty"`
	ProcessedAt time.Time     `json:"processed_at" yaml:"processed_at"`
}
