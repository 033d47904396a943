package main

import (
	"io"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/loadcoach/internal/e2etest"
	"github.com/myrjola/loadcoach/internal/testhelpers"
	"github.com/myrjola/loadcoach/internal/training"
)

func testLookupEnv(key string) (string, bool) {
	switch key {
	case "LOADCOACH_SQLITE_URL":
		return ":memory:", true
	case "LOADCOACH_ADDR":
		return "localhost:0", true
	case envFileKey:
		return "", true
	default:
		return "", false
	}
}

func startServer(t *testing.T) *e2etest.Server {
	t.Helper()
	server, err := e2etest.StartServer(t, testhelpers.NewWriter(t), testLookupEnv, run)
	if err != nil {
		t.Fatalf("StartServer() error = %v", err)
	}
	return server
}

func Test_healthy(t *testing.T) {
	server := startServer(t)

	var got map[string]string
	status, err := server.Client().GetJSON(t.Context(), "/api/healthy", &got)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want %d", status, http.StatusOK)
	}
	if got["status"] != "ok" {
		t.Errorf("status body = %q, want ok", got["status"])
	}
}

func Test_unmatchedRoutes(t *testing.T) {
	var (
		server = startServer(t)
		client = server.Client()
		ctx    = t.Context()
	)

	var notFound errorResponse
	status, err := client.GetJSON(ctx, "/api/unknown", &notFound)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if status != http.StatusNotFound || notFound.Error != "Not Found" || notFound.TraceID == "" {
		t.Errorf("unknown path = %d %+v, want 404 with a trace id", status, notFound)
	}

	resp, err := client.Get(ctx, "/api/users/alice/workout-logs")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET workout-logs status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
	if got := resp.Header.Get("Allow"); got != http.MethodPost {
		t.Errorf("Allow = %q, want %q", got, http.MethodPost)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var notAllowed errorResponse
	status, err = client.PostJSON(ctx, "/api/healthy", nil, &notAllowed)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if status != http.StatusMethodNotAllowed || notAllowed.Error != "Method Not Allowed" {
		t.Errorf("POST healthy = %d %+v, want 405", status, notAllowed)
	}
}

func Test_fatigueLifecycle(t *testing.T) {
	var (
		server = startServer(t)
		client = server.Client()
		ctx    = t.Context()
	)

	var fallback training.UserFatigue
	status, err := client.GetJSON(ctx, "/api/users/alice/fatigue", &fallback)
	if err != nil {
		t.Fatalf("get fallback fatigue: %v", err)
	}
	if status != http.StatusOK || fallback.CurrentFatigue != 65 || fallback.Version != 0 {
		t.Errorf("fallback = %d %+v, want 200 with fatigue 65 and version 0", status, fallback)
	}

	// Workouts can't update a snapshot that doesn't exist but the log is still stored.
	var orphan workoutLogResponse
	status, err = client.PostJSON(ctx, "/api/users/alice/workout-logs",
		map[string]any{"duration_minutes": 45}, &orphan)
	if err != nil {
		t.Fatalf("post workout log without snapshot: %v", err)
	}
	if status != http.StatusCreated || orphan.ID == "" || orphan.FatigueUpdated {
		t.Errorf("orphan log = %d %+v, want 201 with id and fatigue_updated false", status, orphan)
	}

	var initialized training.UserFatigue
	if status, err = client.PostJSON(ctx, "/api/users/alice/fatigue", nil, &initialized); err != nil {
		t.Fatalf("initialize fatigue: %v", err)
	}
	if status != http.StatusOK || initialized.CurrentFatigue != 0 || initialized.Version != 1 {
		t.Errorf("initialized = %d %+v, want 200 with fatigue 0 and version 1", status, initialized)
	}

	var logged workoutLogResponse
	status, err = client.PostJSON(ctx, "/api/users/alice/workout-logs", map[string]any{
		"duration_minutes": 90,
		"completed_sets": []map[string]any{
			{"exercise_id": "bench-press", "weight_kg": 80, "reps": 8, "rir": 2},
		},
		"muscle_group_fatigue": map[string]float64{"chest": 5},
	}, &logged)
	if err != nil {
		t.Fatalf("post workout log: %v", err)
	}
	if status != http.StatusCreated || !logged.FatigueUpdated {
		t.Errorf("logged = %d %+v, want 201 with fatigue_updated", status, logged)
	}

	var updated training.UserFatigue
	if _, err = client.GetJSON(ctx, "/api/users/alice/fatigue", &updated); err != nil {
		t.Fatalf("get updated fatigue: %v", err)
	}
	// One set out of twenty and a full-length session.
	if want := 40.0/20 + 20; math.Abs(updated.CurrentFatigue-want) > 1e-9 {
		t.Errorf("current fatigue = %v, want %v", updated.CurrentFatigue, want)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2", updated.Version)
	}
	if _, ok := updated.MuscleGroupFatigue.Get(training.MuscleGroupChest); !ok {
		t.Errorf("chest fatigue missing from %+v", updated.MuscleGroupFatigue)
	}

	var rows int
	if err = server.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM workout_logs WHERE user_id = 'alice'").Scan(&rows); err != nil {
		t.Fatalf("count workout logs: %v", err)
	}
	if rows != 2 {
		t.Errorf("stored workout logs = %d, want 2", rows)
	}
}

func Test_workoutLogValidation(t *testing.T) {
	var (
		server = startServer(t)
		client = server.Client()
		ctx    = t.Context()
	)
	tests := []struct {
		name string
		body any
	}{
		{name: "negative duration", body: map[string]any{"duration_minutes": -1}},
		{name: "unknown muscle group", body: map[string]any{"muscle_group_fatigue": map[string]float64{"tail": 3}}},
		{name: "unknown field", body: map[string]any{"sets": []int{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got errorResponse
			status, err := client.PostJSON(ctx, "/api/users/bob/workout-logs", tt.body, &got)
			if err != nil {
				t.Fatalf("PostJSON() error = %v", err)
			}
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
			}
			if got.Error == "" || got.TraceID == "" {
				t.Errorf("error response = %+v, want error and trace id", got)
			}
		})
	}
}

func Test_idealWeight(t *testing.T) {
	var (
		server = startServer(t)
		client = server.Client()
		ctx    = t.Context()
	)

	var got idealWeightResponse
	status, err := client.GetJSON(ctx, "/api/users/carol/exercises/bench-press/ideal-weight?reps=8&rir=2", &got)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	want := idealWeightResponse{
		ExerciseID: "bench-press",
		TargetReps: 8,
		TargetRIR:  2,
		WeightKg:   85,
		Source:     training.SourceStaticTable,
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want %d", status, http.StatusOK)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ideal weight mismatch (-want +got):\n%s", diff)
	}

	for _, query := range []string{"reps=0", "rir=-1", "reps=many"} {
		status, err = client.GetJSON(ctx, "/api/users/carol/exercises/bench-press/ideal-weight?"+query, nil)
		if err != nil {
			t.Fatalf("GetJSON(%s) error = %v", query, err)
		}
		if status != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", query, status, http.StatusBadRequest)
		}
	}
}

func Test_alternatives(t *testing.T) {
	var (
		server = startServer(t)
		client = server.Client()
		ctx    = t.Context()
	)

	var got []training.Alternative
	status, err := client.GetJSON(ctx, "/api/exercises/bench-press/alternatives?rir=2", &got)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if len(got) != 4 {
		t.Errorf("got %d alternatives, want 4", len(got))
	}
	for _, a := range got {
		if a.Exercise.ID == "bench-press" || a.Exercise.PrimaryMuscleGroup != training.MuscleGroupChest {
			t.Errorf("unexpected alternative %+v", a.Exercise)
		}
	}

	// Without an OpenAI key unknown exercises can't be profiled.
	status, err = client.GetJSON(ctx, "/api/exercises/zercher-squat/alternatives", nil)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if status != http.StatusNotFound {
		t.Errorf("unknown exercise status = %d, want %d", status, http.StatusNotFound)
	}
}

func Test_nutritionPlan(t *testing.T) {
	var (
		server = startServer(t)
		client = server.Client()
		ctx    = t.Context()
	)

	var got training.NutritionPlan
	status, err := client.PostJSON(ctx, "/api/nutrition/plan", map[string]any{
		"sex": "male", "weight_kg": 80, "height_cm": 180, "age": 30,
		"activity_level": "moderate", "goal": "maintain",
	}, &got)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want %d", status, http.StatusOK)
	}
	want := training.NutritionPlan{BMR: 1854, Calories: 2873, ProteinG: 144, FatG: 80, CarbsG: 395}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nutrition plan mismatch (-want +got):\n%s", diff)
	}

	status, err = client.PostJSON(ctx, "/api/nutrition/plan", map[string]any{"sex": "other"}, nil)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if status != http.StatusBadRequest {
		t.Errorf("invalid profile status = %d, want %d", status, http.StatusBadRequest)
	}
}

func Test_metrics(t *testing.T) {
	var (
		server = startServer(t)
		client = server.Client()
		ctx    = t.Context()
	)

	if _, err := client.GetJSON(ctx, "/api/users/dave/exercises/squat/ideal-weight", nil); err != nil {
		t.Fatalf("request ideal weight: %v", err)
	}
	resp, err := client.Get(ctx, "/metrics")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()
	body := new(strings.Builder)
	if _, err = io.Copy(body, resp.Body); err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, want := range []string{
		`loadcoach_web_weight_recommendations_total{source="static_table"} 1`,
		"loadcoach_web_fatigue_fallback_reads_total 1",
		"go_goroutines",
	} {
		if !strings.Contains(body.String(), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func Test_smokeScenario(t *testing.T) {
	server := startServer(t)
	if err := server.Client().SmokeScenario(t.Context(), "smoke"); err != nil {
		t.Fatalf("SmokeScenario() error = %v", err)
	}
}
