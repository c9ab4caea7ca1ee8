package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

const (
	// ServicesToneFloor is the lowest tone score kept for services tickets
	ServicesToneFloor = 7
	// ServicesToneFeedback replaces the tone feedback of services tickets
	ServicesToneFeedback = "Services ticket: tone is assessed against project communication norms, where a direct and businesslike style is expected."

	resolutionFallbackFeedback = "The reply addresses the customer's issue with an appropriate level of detail."
	minImprovementLength       = 10
	noRecommendationsSentinel  = "no recommendations"
)

var sentenceEnd = regexp.MustCompile(`[^.!?]+[.!?]*`)

// PostProcess repairs a result that did not come from a schema-guaranteed
// engine response, then applies the class policy. The input is not modified.
func PostProcess(result *model.EvaluationResult, class types.TicketClass) *model.EvaluationResult {
	out := result.Clone()
	removeContradiction(out)
	out = ApplyClassPolicy(out, class)
	out.KeyImprovements = cleanImprovements(out.KeyImprovements)
	return out
}

// ApplyClassPolicy enforces score rules that depend on the ticket class. It
// applies to every successful result. The input is not modified.
func ApplyClassPolicy(result *model.EvaluationResult, class types.TicketClass) *model.EvaluationResult {
	out := result.Clone()
	if class != types.TicketClassServices || out.Failed() {
		return out
	}

	tone := out.Categories[types.CategoryToneEmpathy]
	if tone.Score < ServicesToneFloor {
		tone.Score = ServicesToneFloor
	}
	tone.Feedback = ServicesToneFeedback
	out.Categories[types.CategoryToneEmpathy] = tone
	return out
}

// removeContradiction drops "more detail" requests from the resolution feedback
// when the clarity feedback asks for brevity
func removeContradiction(r *model.EvaluationResult) {
	clarity := r.Categories[types.CategoryClarityCompleteness]
	resolution, ok := r.Categories[types.CategoryProblemResolution]
	if !ok {
		return
	}
	if !containsFold(clarity.Feedback, "concise") || !containsFold(resolution.Feedback, "more detail") {
		return
	}

	var kept []string
	for _, sentence := range sentenceEnd.FindAllString(resolution.Feedback, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" || containsFold(sentence, "more detail") {
			continue
		}
		kept = append(kept, sentence)
	}

	resolution.Feedback = strings.Join(kept, " ")
	if resolution.Feedback == "" {
		resolution.Feedback = resolutionFallbackFeedback
	}
	r.Categories[types.CategoryProblemResolution] = resolution
}

// cleanImprovements drops short, praise-only, sentinel and duplicate entries
func cleanImprovements(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		lower := strings.ToLower(item)

		switch {
		case utf8.RuneCountInString(item) < minImprovementLength:
			continue
		case strings.Contains(lower, "continue") && strings.Contains(lower, "good"):
			continue
		case strings.TrimRight(lower, ".!") == noRecommendationsSentinel:
			continue
		case lower == strings.ToLower(model.NoImprovementsSentinel):
			continue
		}

		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, item)
	}

	if len(out) == 0 {
		return []string{model.NoImprovementsSentinel}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
