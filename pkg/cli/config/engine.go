package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/service/evaluator"
	"github.com/urfave/cli/v3"
)

const (
	EngineOpenAI = "openai"
	EngineGemini = "gemini"
)

// Engine selects and configures the evaluation engine
type Engine struct {
	kind string

	openaiAPIKey          string
	openaiModel           string
	openaiReasoningEffort string
	openaiVerbosity       string
	openaiMaxTokens       int
	openaiStructured      bool
	openaiBaseURL         string

	gemini Gemini
}

func (x *Engine) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "engine",
			Usage:       "Evaluation engine [openai|gemini]",
			Category:    "Engine",
			Value:       EngineOpenAI,
			Sources:     cli.EnvVars("TONECHECK_ENGINE"),
			Destination: &x.kind,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "Engine",
			Sources:     cli.EnvVars("TONECHECK_OPENAI_API_KEY", "OPENAI_API_KEY"),
			Destination: &x.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI model",
			Category:    "Engine",
			Value:       evaluator.DefaultOpenAIModel,
			Sources:     cli.EnvVars("TONECHECK_OPENAI_MODEL", "OPENAI_MODEL"),
			Destination: &x.openaiModel,
		},
		&cli.StringFlag{
			Name:        "openai-reasoning-effort",
			Usage:       "Reasoning effort [minimal|low|medium|high], empty to omit",
			Category:    "Engine",
			Value:       evaluator.DefaultOpenAIReasoningEffort,
			Sources:     cli.EnvVars("TONECHECK_OPENAI_REASONING_EFFORT", "OPENAI_REASONING_EFFORT"),
			Destination: &x.openaiReasoningEffort,
		},
		&cli.StringFlag{
			Name:        "openai-verbosity",
			Usage:       "Response verbosity [low|medium|high], empty to omit",
			Category:    "Engine",
			Value:       evaluator.DefaultOpenAIVerbosity,
			Sources:     cli.EnvVars("TONECHECK_OPENAI_VERBOSITY", "OPENAI_VERBOSITY"),
			Destination: &x.openaiVerbosity,
		},
		&cli.IntFlag{
			Name:        "openai-max-tokens",
			Usage:       "Maximum completion tokens",
			Category:    "Engine",
			Value:       evaluator.DefaultOpenAIMaxTokens,
			Sources:     cli.EnvVars("TONECHECK_OPENAI_MAX_TOKENS", "OPENAI_MAX_TOKENS"),
			Destination: &x.openaiMaxTokens,
		},
		&cli.BoolFlag{
			Name:        "openai-structured-output",
			Usage:       "Request a strict JSON schema response",
			Category:    "Engine",
			Value:       true,
			Sources:     cli.EnvVars("TONECHECK_OPENAI_STRUCTURED_OUTPUT", "OPENAI_STRUCTURED_OUTPUT"),
			Destination: &x.openaiStructured,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "OpenAI compatible API base URL",
			Category:    "Engine",
			Sources:     cli.EnvVars("TONECHECK_OPENAI_BASE_URL"),
			Destination: &x.openaiBaseURL,
		},
	}
	return append(flags, x.gemini.Flags()...)
}

func (x *Engine) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("engine", x.kind),
		slog.Int("openai_api_key.len", len(x.openaiAPIKey)),
		slog.String("openai_model", x.openaiModel),
		slog.String("openai_reasoning_effort", x.openaiReasoningEffort),
		slog.String("openai_verbosity", x.openaiVerbosity),
		slog.Int("openai_max_tokens", x.openaiMaxTokens),
		slog.Bool("openai_structured_output", x.openaiStructured),
	}
	return append(attrs, x.gemini.LogAttrs()...)
}

// Kind returns the selected engine name
func (x *Engine) Kind() string {
	return x.kind
}

// Configure creates the selected engine. It returns nil without error when the
// engine has no credentials, so the service starts and answers with a notice.
func (x *Engine) Configure(ctx context.Context) (interfaces.Evaluator, error) {
	switch x.kind {
	case EngineOpenAI:
		if x.openaiAPIKey == "" {
			return nil, nil
		}
		engine, err := evaluator.NewOpenAI(x.openaiAPIKey,
			evaluator.WithOpenAIModel(x.openaiModel),
			evaluator.WithReasoningEffort(x.openaiReasoningEffort),
			evaluator.WithVerbosity(x.openaiVerbosity),
			evaluator.WithMaxTokens(x.openaiMaxTokens),
			evaluator.WithStructuredOutput(x.openaiStructured),
			evaluator.WithOpenAIBaseURL(x.openaiBaseURL),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure OpenAI engine")
		}
		return engine, nil

	case EngineGemini:
		client, err := x.gemini.Configure(ctx)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, nil
		}
		engine, err := evaluator.NewGemini(client, evaluator.WithGeminiName(x.gemini.EngineName()))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure Gemini engine")
		}
		return engine, nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "unknown evaluation engine", goerr.V(EngineKey, x.kind))
	}
}
