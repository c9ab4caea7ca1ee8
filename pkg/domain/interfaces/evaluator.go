package interfaces

import (
	"context"

	"github.com/secmon-lab/tonecheck/pkg/domain/model"
)

// Evaluator is an external AI evaluation engine
type Evaluator interface {
	Evaluate(ctx context.Context, prompt model.EvaluationPrompt) (*model.EvaluationOutput, error)
	// Name identifies the engine and model for logs and health reports
	Name() string
}
