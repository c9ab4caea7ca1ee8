package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
	"github.com/secmon-lab/tonecheck/pkg/usecase"
)

func newResult(tone int, clarityFeedback, resolutionFeedback string, improvements ...string) *model.EvaluationResult {
	return &model.EvaluationResult{
		OverallScore: 7,
		Categories: map[types.CategoryID]model.CategoryScore{
			types.CategoryToneEmpathy:         {Score: tone, Feedback: "Tone feedback."},
			types.CategoryClarityCompleteness: {Score: 7, Feedback: clarityFeedback},
			types.CategoryStandardOfEnglish:   {Score: 8, Feedback: "Good grammar."},
			types.CategoryProblemResolution:   {Score: 6, Feedback: resolutionFeedback},
		},
		KeyImprovements: improvements,
	}
}

func TestPostProcess(t *testing.T) {
	t.Run("concise and more detail contradiction", func(t *testing.T) {
		in := newResult(8,
			"Could be more concise.",
			"Solved the problem. Please provide more detail on the cause! Offer a workaround.",
			"Add a link to the status page.")
		out := usecase.PostProcess(in, types.TicketClassNone)

		fb := out.Category(types.CategoryProblemResolution).Feedback
		gt.String(t, fb).NotContains("more detail")
		gt.String(t, fb).Contains("Solved the problem.")
		gt.String(t, fb).Contains("Offer a workaround.")

		// input untouched
		gt.String(t, in.Category(types.CategoryProblemResolution).Feedback).Contains("more detail")
	})

	t.Run("contradiction leaving nothing gets fixed feedback", func(t *testing.T) {
		in := newResult(8, "Be CONCISE.", "Needs More Detail.")
		out := usecase.PostProcess(in, types.TicketClassNone)
		fb := out.Category(types.CategoryProblemResolution).Feedback
		gt.String(t, fb).NotEqual("")
		gt.String(t, fb).NotContains("More Detail")
	})

	t.Run("no contradiction without concise", func(t *testing.T) {
		in := newResult(8, "Clear.", "Please give more detail.")
		out := usecase.PostProcess(in, types.TicketClassNone)
		gt.String(t, out.Category(types.CategoryProblemResolution).Feedback).Equal("Please give more detail.")
	})

	t.Run("services floor", func(t *testing.T) {
		out := usecase.PostProcess(newResult(3, "Clear.", "Solved."), types.TicketClassServices)
		tone := out.Category(types.CategoryToneEmpathy)
		gt.Number(t, tone.Score).Equal(usecase.ServicesToneFloor)
		gt.String(t, tone.Feedback).Equal(usecase.ServicesToneFeedback)
	})

	t.Run("services floor keeps higher score", func(t *testing.T) {
		out := usecase.PostProcess(newResult(9, "Clear.", "Solved."), types.TicketClassServices)
		gt.Number(t, out.Category(types.CategoryToneEmpathy).Score).Equal(9)
	})

	t.Run("no floor for other classes", func(t *testing.T) {
		out := usecase.PostProcess(newResult(3, "Clear.", "Solved."), types.TicketClassPresales)
		gt.Number(t, out.Category(types.CategoryToneEmpathy).Score).Equal(3)
	})
}

func TestApplyClassPolicy(t *testing.T) {
	t.Run("failed result keeps minimum scores", func(t *testing.T) {
		failed := model.NewFailedResult(errors.New("timeout"))
		out := usecase.ApplyClassPolicy(failed, types.TicketClassServices)
		gt.Number(t, out.Category(types.CategoryToneEmpathy).Score).Equal(types.MinScore)
	})

	t.Run("improvements are left as is", func(t *testing.T) {
		in := newResult(3, "Clear.", "Solved.", "ok")
		out := usecase.ApplyClassPolicy(in, types.TicketClassServices)
		gt.Array(t, out.KeyImprovements).Equal([]string{"ok"})
	})
}

func TestCleanImprovements(t *testing.T) {
	testCases := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "short entries dropped",
			in:   []string{"Be nicer", "Acknowledge the delay before the fix."},
			want: []string{"Acknowledge the delay before the fix."},
		},
		{
			name: "praise dropped",
			in:   []string{"Continue the good work with customers.", "Link the relevant help article."},
			want: []string{"Link the relevant help article."},
		},
		{
			name: "sentinel dropped and replaced",
			in:   []string{"No recommendations."},
			want: []string{model.NoImprovementsSentinel},
		},
		{
			name: "duplicates dropped",
			in:   []string{"Link the relevant help article.", "link the relevant help article."},
			want: []string{"Link the relevant help article."},
		},
		{
			name: "empty",
			in:   nil,
			want: []string{model.NoImprovementsSentinel},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Array(t, usecase.CleanImprovements(tc.in)).Equal(tc.want)
		})
	}
}
