package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/urfave/cli/v3"
)

const (
	DefaultGeminiLocation    = "us-central1"
	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultGeminiTemperature = 0.2
)

// Gemini configures the Vertex AI client behind the gemini scoring engine
type Gemini struct {
	projectID   string
	location    string
	model       string
	temperature float64
}

func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project hosting the Gemini scoring model",
			Category:    "Engine",
			Sources:     cli.EnvVars("TONECHECK_GEMINI_PROJECT", "GOOGLE_CLOUD_PROJECT"),
			Destination: &g.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Vertex AI location of the Gemini scoring model",
			Category:    "Engine",
			Value:       DefaultGeminiLocation,
			Sources:     cli.EnvVars("TONECHECK_GEMINI_LOCATION"),
			Destination: &g.location,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model used to score replies",
			Category:    "Engine",
			Value:       DefaultGeminiModel,
			Sources:     cli.EnvVars("TONECHECK_GEMINI_MODEL"),
			Destination: &g.model,
		},
		&cli.FloatFlag{
			Name:        "gemini-temperature",
			Usage:       "Sampling temperature; keep it low so repeated scoring stays stable",
			Category:    "Engine",
			Value:       DefaultGeminiTemperature,
			Sources:     cli.EnvVars("TONECHECK_GEMINI_TEMPERATURE"),
			Destination: &g.temperature,
		},
	}
}

func (g *Gemini) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("gemini_project", g.projectID),
		slog.String("gemini_location", g.location),
		slog.String("gemini_model", g.model),
		slog.Float64("gemini_temperature", g.temperature),
	}
}

// EngineName identifies the engine in logs and /health
func (g *Gemini) EngineName() string {
	return EngineGemini + "/" + g.model
}

// Configure creates the scoring client. It returns nil without error when no
// project is set, leaving the gemini engine unconfigured.
func (g *Gemini) Configure(ctx context.Context) (gollem.LLMClient, error) {
	if g.projectID == "" {
		return nil, nil
	}

	var opts []gemini.Option
	if g.model != "" {
		opts = append(opts, gemini.WithModel(g.model))
	}
	if g.temperature > 0 {
		opts = append(opts, gemini.WithTemperature(float32(g.temperature)))
	}

	client, err := gemini.New(ctx, g.projectID, g.location, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client",
			goerr.V("project_id", g.projectID), goerr.V("location", g.location))
	}

	return client, nil
}
