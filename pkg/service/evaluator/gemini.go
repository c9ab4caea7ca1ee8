package evaluator

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
)

// Gemini evaluates replies through a gollem LLM client with a JSON response schema
type Gemini struct {
	llmClient gollem.LLMClient
	name      string
}

var _ interfaces.Evaluator = &Gemini{}

type GeminiOption func(*Gemini)

// WithGeminiName overrides the engine name shown in logs and health reports
func WithGeminiName(name string) GeminiOption {
	return func(g *Gemini) {
		g.name = name
	}
}

func NewGemini(llmClient gollem.LLMClient, opts ...GeminiOption) (*Gemini, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	g := &Gemini{
		llmClient: llmClient,
		name:      "gemini",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Gemini) Name() string {
	return g.name
}

func (g *Gemini) Evaluate(ctx context.Context, prompt model.EvaluationPrompt) (*model.EvaluationOutput, error) {
	session, err := g.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(gollemSchema()),
		gollem.WithSessionSystemPrompt(prompt.System),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt.User))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content from LLM")
	}
	if resp == nil || len(resp.Texts) == 0 {
		return nil, goerr.New("LLM returned no text")
	}

	text := strings.TrimSpace(strings.Join(resp.Texts, ""))
	if text == "" {
		return nil, goerr.New("LLM returned an empty answer")
	}

	return &model.EvaluationOutput{
		Text:       text,
		Structured: true,
	}, nil
}
