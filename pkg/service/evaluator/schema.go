package evaluator

import (
	"fmt"

	"github.com/m-mizutani/gollem"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

const schemaName = "tone_evaluation"

func categoryNames() []string {
	names := make([]string, 0, len(types.AllCategories()))
	for _, c := range types.AllCategories() {
		names = append(names, c.String())
	}
	return names
}

func scoreDescription(what string) string {
	return fmt.Sprintf("%s score from %d (poor) to %d (excellent)", what, types.MinScore, types.MaxScore)
}

// gollemSchema is the response schema for gollem sessions
func gollemSchema() *gollem.Parameter {
	categories := make(map[string]*gollem.Parameter, len(types.AllCategories()))
	for _, c := range types.AllCategories() {
		categories[c.String()] = &gollem.Parameter{
			Type:        gollem.TypeObject,
			Description: c.Label(),
			Properties: map[string]*gollem.Parameter{
				"score": {
					Type:        gollem.TypeInteger,
					Description: scoreDescription(c.Label()),
				},
				"feedback": {
					Type:        gollem.TypeString,
					Description: "One or two sentences explaining the score",
				},
			},
			Required: []string{"score", "feedback"},
		}
	}

	return &gollem.Parameter{
		Title:       "ToneEvaluation",
		Description: "Scorecard of a support agent reply",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"overall_score": {
				Type:        gollem.TypeNumber,
				Description: scoreDescription("Overall"),
			},
			"categories": {
				Type:       gollem.TypeObject,
				Properties: categories,
				Required:   categoryNames(),
			},
			"key_improvements": {
				Type:        gollem.TypeArray,
				Description: "Short, actionable suggestions for the agent",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
			},
		},
		Required: []string{"overall_score", "categories", "key_improvements"},
	}
}

// openAISchema is the strict JSON schema for OpenAI structured outputs.
// Strict mode requires every property to be required and no extra properties.
func openAISchema() *jsonschema.Definition {
	category := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"score":    {Type: jsonschema.Integer, Description: scoreDescription("Category")},
			"feedback": {Type: jsonschema.String, Description: "One or two sentences explaining the score"},
		},
		Required:             []string{"score", "feedback"},
		AdditionalProperties: false,
	}

	categories := make(map[string]jsonschema.Definition, len(types.AllCategories()))
	for _, c := range types.AllCategories() {
		def := category
		def.Description = c.Label()
		categories[c.String()] = def
	}

	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"overall_score": {Type: jsonschema.Number, Description: scoreDescription("Overall")},
			"categories": {
				Type:                 jsonschema.Object,
				Properties:           categories,
				Required:             categoryNames(),
				AdditionalProperties: false,
			},
			"key_improvements": {
				Type:        jsonschema.Array,
				Description: "Short, actionable suggestions for the agent",
				Items:       &jsonschema.Definition{Type: jsonschema.String},
			},
		},
		Required:             []string{"overall_score", "categories", "key_improvements"},
		AdditionalProperties: false,
	}
}
