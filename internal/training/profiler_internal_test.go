package training

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/openai/openai-go/v3/option"
)

func Test_parseExerciseProfile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    ExerciseProfile
		wantErr bool
	}{
		{
			name:    "valid",
			content: `{"name":"Pec Deck","compound":false,"equipment":"machine","primary_muscle_group":"chest"}`,
			want: ExerciseProfile{
				ID:                 "pec-deck",
				Name:               "Pec Deck",
				Compound:           false,
				Equipment:          EquipmentMachine,
				PrimaryMuscleGroup: MuscleGroupChest,
			},
		},
		{
			name:    "unknown equipment",
			content: `{"name":"Pec Deck","compound":false,"equipment":"kettlebell","primary_muscle_group":"chest"}`,
			wantErr: true,
		},
		{
			name:    "unknown muscle group",
			content: `{"name":"Pec Deck","compound":false,"equipment":"machine","primary_muscle_group":"pecs"}`,
			wantErr: true,
		},
		{name: "missing name", content: `{"compound":true,"equipment":"barbell","primary_muscle_group":"back"}`, wantErr: true},
		{name: "not json", content: "Pec deck is a chest exercise", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExerciseProfile("pec-deck", tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseExerciseProfile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseExerciseProfile() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOpenAIProfiler_Profile(t *testing.T) {
	var request struct {
		Model          string `json:"model"`
		ResponseFormat struct {
			Type       string `json:"type"`
			JSONSchema struct {
				Name   string `json:"name"`
				Strict bool   `json:"strict"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		content := `{"name":"Zercher Squat","compound":true,"equipment":"barbell","primary_muscle_group":"quadriceps"}`
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	defer srv.Close()

	profiler := NewOpenAIProfiler("test-key", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	got, err := profiler.Profile(t.Context(), "zercher-squat")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	want := ExerciseProfile{
		ID:                 "zercher-squat",
		Name:               "Zercher Squat",
		Compound:           true,
		Equipment:          EquipmentBarbell,
		PrimaryMuscleGroup: MuscleGroupQuadriceps,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Profile() mismatch (-want +got):\n%s", diff)
	}
	if request.ResponseFormat.Type != "json_schema" || request.ResponseFormat.JSONSchema.Name != "exercise_profile" ||
		!request.ResponseFormat.JSONSchema.Strict {
		t.Errorf("response format = %+v, want strict exercise_profile json_schema", request.ResponseFormat)
	}
}

func TestOpenAIProfiler_Profile_emptyID(t *testing.T) {
	profiler := NewOpenAIProfiler("test-key")
	if _, err := profiler.Profile(t.Context(), ""); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Profile(\"\") error = %v, want validation error", err)
	}
}
