package e2etest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// WorkoutLogRequest is the body of a workout log submission.
type WorkoutLogRequest struct {
	Date               time.Time          `json:"date"`
	CompletedSets      []SetRequest       `json:"completed_sets"`
	DurationMinutes    float64            `json:"duration_minutes"`
	MuscleGroupFatigue map[string]float64 `json:"muscle_group_fatigue,omitempty"`
}

// SetRequest is a single completed set in a WorkoutLogRequest.
type SetRequest struct {
	ExerciseID string  `json:"exercise_id"`
	WeightKg   float64 `json:"weight_kg"`
	Reps       int     `json:"reps"`
	RIR        int     `json:"rir"`
}

// WorkoutLogResponse is the subset of the stored workout log the scenarios check.
type WorkoutLogResponse struct {
	ID             string `json:"id"`
	FatigueUpdated bool   `json:"fatigue_updated"`
}

// IdealWeightResponse is the subset of a weight recommendation the scenarios check.
type IdealWeightResponse struct {
	WeightKg float64 `json:"weight_kg"`
	Source   string  `json:"source"`
}

// InitializeFatigue creates the baseline fatigue snapshot of userID.
func (c *Client) InitializeFatigue(ctx context.Context, userID string) error {
	status, err := c.PostJSON(ctx, "/api/users/"+userID+"/fatigue", nil, nil)
	return expectStatus("initialize fatigue", status, err, http.StatusOK)
}

// LogWorkout submits a finished workout of userID.
func (c *Client) LogWorkout(ctx context.Context, userID string, req WorkoutLogRequest) (WorkoutLogResponse, error) {
	var resp WorkoutLogResponse
	status, err := c.PostJSON(ctx, "/api/users/"+userID+"/workout-logs", req, &resp)
	return resp, expectStatus("log workout", status, err, http.StatusCreated)
}

// IdealWeight requests the weight recommendation of exerciseID for userID.
func (c *Client) IdealWeight(
	ctx context.Context,
	userID, exerciseID string,
	reps, rir int,
) (IdealWeightResponse, error) {
	var resp IdealWeightResponse
	path := fmt.Sprintf("/api/users/%s/exercises/%s/ideal-weight?reps=%d&rir=%d", userID, exerciseID, reps, rir)
	status, err := c.GetJSON(ctx, path, &resp)
	return resp, expectStatus("ideal weight", status, err, http.StatusOK)
}

// SmokeScenario walks through the main flows of the API for userID: fatigue initialisation, workout logging, weight
// recommendation, alternatives and the nutrition plan.
func (c *Client) SmokeScenario(ctx context.Context, userID string) error {
	if err := c.InitializeFatigue(ctx, userID); err != nil {
		return err
	}
	logged, err := c.LogWorkout(ctx, userID, WorkoutLogRequest{
		Date: time.Now().UTC(),
		CompletedSets: []SetRequest{
			{ExerciseID: "bench-press", WeightKg: 80, Reps: 8, RIR: 2},   //nolint:mnd // sample set.
			{ExerciseID: "bench-press", WeightKg: 82.5, Reps: 6, RIR: 1}, //nolint:mnd // sample set.
		},
		DurationMinutes:    45, //nolint:mnd // sample duration.
		MuscleGroupFatigue: map[string]float64{"chest": 6, "triceps": 4},
	})
	if err != nil {
		return err
	}
	if !logged.FatigueUpdated {
		return fmt.Errorf("workout %s stored without fatigue update", logged.ID)
	}

	recommendation, err := c.IdealWeight(ctx, userID, "bench-press", 8, 2) //nolint:mnd // 8 reps at RIR 2.
	if err != nil {
		return err
	}
	if recommendation.Source != "history" {
		return fmt.Errorf("recommendation source %q, want history", recommendation.Source)
	}

	var alternatives []map[string]any
	status, err := c.GetJSON(ctx, "/api/exercises/bench-press/alternatives?rir=2", &alternatives)
	if err = expectStatus("alternatives", status, err, http.StatusOK); err != nil {
		return err
	}
	if len(alternatives) == 0 {
		return errors.New("no alternatives for bench-press")
	}

	status, err = c.PostJSON(ctx, "/api/nutrition/plan", map[string]any{
		"sex": "female", "weight_kg": 60, "height_cm": 165, "age": 28, "activity_level": "light", "goal": "lose",
	}, nil)
	return expectStatus("nutrition plan", status, err, http.StatusOK)
}

func expectStatus(operation string, status int, err error, want int) error {
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if status != want {
		return fmt.Errorf("%s: status %d, want %d", operation, status, want)
	}
	return nil
}
