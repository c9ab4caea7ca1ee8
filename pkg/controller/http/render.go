package http

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type scorecardCategory struct {
	Label    string
	Score    int
	Class    string
	Feedback string
}

type scorecardView struct {
	TicketNumber int64
	AgentName    string
	Overall      string
	OverallClass string
	Categories   []scorecardCategory
	Improvements []string
	Error        string
}

type noticeView struct {
	TicketNumber int64
	Message      string
}

func scoreClass(score float64) string {
	switch {
	case score >= 8:
		return "good"
	case score >= 6:
		return "fair"
	default:
		return "poor"
	}
}

func renderOutcome(outcome *model.WebhookOutcome) (string, error) {
	var (
		name string
		data any
	)

	switch outcome.Kind {
	case model.OutcomeScorecard:
		if outcome.Result == nil {
			return "", goerr.New("scorecard outcome without result", goerr.V("ticket_id", outcome.TicketID))
		}
		name, data = "scorecard.html", newScorecardView(outcome)
	case model.OutcomeProcessing:
		name, data = "processing.html", noticeView{TicketNumber: outcome.TicketNumber}
	case model.OutcomeNotice:
		name, data = "notice.html", noticeView{TicketNumber: outcome.TicketNumber, Message: outcome.Notice}
	default:
		return "", goerr.New("unknown outcome kind", goerr.V("kind", outcome.Kind))
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", goerr.Wrap(err, "failed to render outcome", goerr.V("template", name))
	}
	return buf.String(), nil
}

func newScorecardView(outcome *model.WebhookOutcome) scorecardView {
	r := outcome.Result
	view := scorecardView{
		TicketNumber: outcome.TicketNumber,
		AgentName:    outcome.Agent.Name,
		Overall:      model.FormatScore(r.OverallScore),
		OverallClass: scoreClass(r.OverallScore),
		Improvements: r.KeyImprovements,
		Error:        r.Error,
	}
	for _, c := range types.AllCategories() {
		cs := r.Category(c)
		view.Categories = append(view.Categories, scorecardCategory{
			Label:    c.Label(),
			Score:    cs.Score,
			Class:    scoreClass(float64(cs.Score)),
			Feedback: cs.Feedback,
		})
	}
	return view
}
