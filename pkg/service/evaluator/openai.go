package evaluator

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
)

const (
	DefaultOpenAIModel           = "gpt-5-mini"
	DefaultOpenAIReasoningEffort = "low"
	DefaultOpenAIVerbosity       = "low"
	DefaultOpenAIMaxTokens       = 4000
)

// OpenAI evaluates replies with the OpenAI chat completions API
type OpenAI struct {
	client          *openai.Client
	baseURL         string
	model           string
	reasoningEffort string
	verbosity       string
	maxTokens       int
	structured      bool
}

var _ interfaces.Evaluator = &OpenAI{}

type OpenAIOption func(*OpenAI)

func WithOpenAIModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
	}
}

// WithReasoningEffort sets reasoning_effort. Empty leaves it unset.
func WithReasoningEffort(effort string) OpenAIOption {
	return func(o *OpenAI) {
		o.reasoningEffort = effort
	}
}

// WithVerbosity sets verbosity. Empty leaves it unset.
func WithVerbosity(verbosity string) OpenAIOption {
	return func(o *OpenAI) {
		o.verbosity = verbosity
	}
}

func WithMaxTokens(n int) OpenAIOption {
	return func(o *OpenAI) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithStructuredOutput switches between a strict JSON schema response (true)
// and a plain JSON object response (false)
func WithStructuredOutput(enabled bool) OpenAIOption {
	return func(o *OpenAI) {
		o.structured = enabled
	}
}

func WithOpenAIBaseURL(u string) OpenAIOption {
	return func(o *OpenAI) {
		o.baseURL = u
	}
}

func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, goerr.New("OpenAI API key is required")
	}

	o := &OpenAI{
		model:           DefaultOpenAIModel,
		reasoningEffort: DefaultOpenAIReasoningEffort,
		verbosity:       DefaultOpenAIVerbosity,
		maxTokens:       DefaultOpenAIMaxTokens,
		structured:      true,
	}
	for _, opt := range opts {
		opt(o)
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	o.client = openai.NewClientWithConfig(cfg)

	return o, nil
}

func (o *OpenAI) Name() string {
	return "openai/" + o.model
}

func (o *OpenAI) Evaluate(ctx context.Context, prompt model.EvaluationPrompt) (*model.EvaluationOutput, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		MaxCompletionTokens: o.maxTokens,
		ReasoningEffort:     o.reasoningEffort,
		Verbosity:           o.verbosity,
	}

	if o.structured {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: openAISchema(),
				Strict: true,
			},
		}
	} else {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "openai chat completion failed", goerr.V("model", o.model))
	}
	if len(resp.Choices) == 0 {
		return nil, goerr.New("openai returned no choices", goerr.V("model", o.model))
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, goerr.New("openai refused to evaluate", goerr.V("refusal", choice.Message.Refusal))
	}
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return nil, goerr.New("openai returned an empty answer",
			goerr.V("model", o.model), goerr.V("finish_reason", string(choice.FinishReason)))
	}

	return &model.EvaluationOutput{
		Text:       text,
		Structured: o.structured,
	}, nil
}
