package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// ExerciseProfiler classifies exercises that are missing from the catalog.
type ExerciseProfiler interface {
	Profile(ctx context.Context, exerciseID string) (ExerciseProfile, error)
}

// openAIProfiler classifies exercises with a chat completion constrained to a strict JSON schema.
type openAIProfiler struct {
	client openai.Client
}

// NewOpenAIProfiler creates an ExerciseProfiler backed by the OpenAI API.
func NewOpenAIProfiler(apiKey string, opts ...option.RequestOption) ExerciseProfiler {
	return &openAIProfiler{
		client: openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
	}
}

func exerciseProfileSchema() map[string]any {
	groups := make([]string, 0, len(MuscleGroups()))
	for _, g := range MuscleGroups() {
		groups = append(groups, string(g))
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"name", "compound", "equipment", "primary_muscle_group"},
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Human readable name of the exercise",
			},
			"compound": map[string]any{
				"type":        "boolean",
				"description": "True when the exercise moves more than one joint",
			},
			"equipment": map[string]any{
				"type": "string",
				"enum": []string{
					string(EquipmentBarbell), string(EquipmentDumbbell), string(EquipmentMachine),
					string(EquipmentCable), string(EquipmentBodyweight),
				},
			},
			"primary_muscle_group": map[string]any{
				"type": "string",
				"enum": groups,
			},
		},
	}
}

func (p *openAIProfiler) Profile(ctx context.Context, exerciseID string) (ExerciseProfile, error) {
	if exerciseID == "" {
		return ExerciseProfile{}, errors.New("exercise id cannot be empty")
	}
	name := strings.ReplaceAll(exerciseID, "-", " ")
	prompt := fmt.Sprintf(`Classify the strength training exercise "%s".
Tell whether it is a compound movement, which equipment it is usually performed with
and which single muscle group it primarily trains.`, name)

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{ //nolint:exhaustruct // only need a few fields.
		Model: openai.ChatModelGPT4o,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{ //nolint:exhaustruct // one variant.
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{ //nolint:exhaustruct // type has a default.
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "exercise_profile",
					Description: openai.String("Classification of a strength training exercise"),
					Schema:      exerciseProfileSchema(),
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return ExerciseProfile{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return ExerciseProfile{}, errors.New("chat completion returned no choices")
	}

	profile, err := parseExerciseProfile(exerciseID, completion.Choices[0].Message.Content)
	if err != nil {
		return ExerciseProfile{}, fmt.Errorf("parse exercise profile: %w", err)
	}
	return profile, nil
}

// parseExerciseProfile decodes and validates a generated profile.
func parseExerciseProfile(exerciseID, content string) (ExerciseProfile, error) {
	var profile ExerciseProfile
	if err := json.Unmarshal([]byte(content), &profile); err != nil {
		return ExerciseProfile{}, fmt.Errorf("unmarshal: %w", err)
	}
	profile.ID = exerciseID
	if profile.Name == "" {
		return ExerciseProfile{}, errors.New("generated profile is missing a name")
	}
	if !profile.Equipment.valid() {
		return ExerciseProfile{}, fmt.Errorf("invalid equipment %q", profile.Equipment)
	}
	if _, err := ParseMuscleGroup(string(profile.PrimaryMuscleGroup)); err != nil {
		return ExerciseProfile{}, err
	}
	return profile, nil
}
