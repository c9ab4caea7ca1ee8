package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

// NoImprovementsSentinel is the single improvement entry kept when nothing actionable remains
const NoImprovementsSentinel = "No further improvements identified."

// CategoryScore is the score and feedback for one category
type CategoryScore struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// EvaluationResult is the normalized scorecard of one agent reply
type EvaluationResult struct {
	OverallScore    float64                             `json:"overall_score"`
	Categories      map[types.CategoryID]CategoryScore `json:"categories"`
	KeyImprovements []string                            `json:"key_improvements"`
	Error           string                              `json:"error,omitempty"`
}

// Failed reports whether the result was synthesized from an evaluation failure
func (r *EvaluationResult) Failed() bool {
	return r.Error != ""
}

// Category returns the score of c, or a zero value when absent
func (r *EvaluationResult) Category(c types.CategoryID) CategoryScore {
	if r.Categories == nil {
		return CategoryScore{}
	}
	return r.Categories[c]
}

// Validate checks the fixed category set and score ranges
func (r *EvaluationResult) Validate() error {
	if !(r.OverallScore >= types.MinScore && r.OverallScore <= types.MaxScore) {
		return goerr.New("overall score out of range", goerr.V("score", r.OverallScore))
	}
	for _, c := range types.AllCategories() {
		cs, ok := r.Categories[c]
		if !ok {
			return goerr.New("category missing", goerr.V("category", c))
		}
		if cs.Score < types.MinScore || cs.Score > types.MaxScore {
			return goerr.New("category score out of range",
				goerr.V("category", c), goerr.V("score", cs.Score))
		}
	}
	for c := range r.Categories {
		if !c.IsValid() {
			return goerr.New("unknown category", goerr.V("category", c))
		}
	}
	return nil
}

// Clone returns a deep copy so cached results are never shared mutably
func (r *EvaluationResult) Clone() *EvaluationResult {
	if r == nil {
		return nil
	}
	cloned := *r
	cloned.Categories = make(map[types.CategoryID]CategoryScore, len(r.Categories))
	for k, v := range r.Categories {
		cloned.Categories[k] = v
	}
	cloned.KeyImprovements = append([]string(nil), r.KeyImprovements...)
	return &cloned
}

// DecodeStructuredResult builds a result from schema-guaranteed engine output.
// Any deviation from the schema is an error.
func DecodeStructuredResult(raw []byte) (*EvaluationResult, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var result EvaluationResult
	if err := dec.Decode(&result); err != nil {
		return nil, goerr.Wrap(err, "failed to decode structured evaluation")
	}
	result.Error = ""
	if result.KeyImprovements == nil {
		result.KeyImprovements = []string{}
	}
	if err := result.Validate(); err != nil {
		return nil, goerr.Wrap(err, "structured evaluation violates schema")
	}
	return &result, nil
}

type looseCategory struct {
	Score    json.RawMessage `json:"score"`
	Feedback string          `json:"feedback"`
}

type looseResult struct {
	OverallScore    json.RawMessage          `json:"overall_score"`
	Categories      map[string]looseCategory `json:"categories"`
	KeyImprovements []string                 `json:"key_improvements"`
}

// ParseLooseResult builds a result from free-form engine output. Markdown code
// fences and text around the JSON object are tolerated, scores may be strings or
// floats and are clamped into range. A missing overall score is the rounded mean
// of the categories. Missing categories are an error.
func ParseLooseResult(text string) (*EvaluationResult, error) {
	body := extractJSONObject(text)
	if body == "" {
		return nil, goerr.New("no JSON object in evaluation output", goerr.V("length", len(text)))
	}

	var loose looseResult
	if err := json.Unmarshal([]byte(body), &loose); err != nil {
		return nil, goerr.Wrap(err, "failed to parse evaluation output")
	}

	result := &EvaluationResult{
		Categories:      make(map[types.CategoryID]CategoryScore, len(types.AllCategories())),
		KeyImprovements: []string{},
	}

	var sum int
	for _, c := range types.AllCategories() {
		lc, ok := loose.Categories[string(c)]
		if !ok {
			return nil, goerr.New("category missing in evaluation output", goerr.V("category", c))
		}
		score, err := looseScore(lc.Score)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid category score", goerr.V("category", c))
		}
		clamped := types.ClampScore(int(math.Round(score)))
		sum += clamped
		result.Categories[c] = CategoryScore{
			Score:    clamped,
			Feedback: strings.TrimSpace(lc.Feedback),
		}
	}

	if overall, err := looseScore(loose.OverallScore); err == nil {
		result.OverallScore = clampOverall(overall)
	} else {
		result.OverallScore = clampOverall(float64(sum) / float64(len(types.AllCategories())))
	}

	for _, s := range loose.KeyImprovements {
		if s = strings.TrimSpace(s); s != "" {
			result.KeyImprovements = append(result.KeyImprovements, s)
		}
	}

	return result, nil
}

// NewFailedResult synthesizes a minimum-score result describing err
func NewFailedResult(err error) *EvaluationResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	result := &EvaluationResult{
		OverallScore:    types.MinScore,
		Categories:      make(map[types.CategoryID]CategoryScore, len(types.AllCategories())),
		KeyImprovements: []string{"Evaluation failed: " + msg},
		Error:           msg,
	}
	for _, c := range types.AllCategories() {
		result.Categories[c] = CategoryScore{
			Score:    types.MinScore,
			Feedback: "Evaluation could not be completed.",
		}
	}
	return result
}

func extractJSONObject(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func looseScore(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, goerr.New("score missing")
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finiteScore(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, goerr.Wrap(err, "score is neither number nor string")
	}
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "/"); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, goerr.Wrap(err, "score is not numeric", goerr.V("score", s))
	}
	return finiteScore(f)
}

// finiteScore rejects NaN and infinities, which ParseFloat accepts
func finiteScore(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, goerr.New("score is not finite", goerr.V("score", f))
	}
	return f, nil
}

func clampOverall(v float64) float64 {
	v = math.Round(v*10) / 10
	return math.Max(types.MinScore, math.Min(types.MaxScore, v))
}

// FormatScore renders an overall score without a trailing ".0"
func FormatScore(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int(v))
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// EvaluationPrompt is the request handed to an evaluation engine
type EvaluationPrompt struct {
	System string
	User   string
}

// EvaluationOutput is the raw answer of an evaluation engine
type EvaluationOutput struct {
	Text string
	// Structured is true when the engine guaranteed the response schema
	Structured bool
}
