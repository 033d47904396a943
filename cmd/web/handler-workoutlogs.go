package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/loadcoach/internal/errors"
	"github.com/myrjola/loadcoach/internal/ptr"
	"github.com/myrjola/loadcoach/internal/training"
)

type workoutLogRequest struct {
	// Date defaults to the time of the request.
	Date               *time.Time                  `json:"date"`
	CompletedSets      []training.CompletedSet     `json:"completed_sets"`
	DurationMinutes    float64                     `json:"duration_minutes"`
	MuscleGroupFatigue training.MuscleGroupFatigue `json:"muscle_group_fatigue"`
}

type workoutLogResponse struct {
	ID                 string                      `json:"id"`
	UserID             string                      `json:"user_id"`
	Date               time.Time                   `json:"date"`
	CompletedSets      []training.CompletedSet     `json:"completed_sets"`
	DurationMinutes    float64                     `json:"duration_minutes"`
	MuscleGroupFatigue training.MuscleGroupFatigue `json:"muscle_group_fatigue"`
	// FatigueUpdated is false when the log was stored but the snapshot could not be updated.
	FatigueUpdated bool `json:"fatigue_updated"`
}

// workoutLogPOST stores a finished workout and applies it to the user's fatigue snapshot.
//
// The log is append-only so it's reported as created even when the fatigue update fails afterwards. Clients can tell
// the cases apart with fatigue_updated.
func (app *application) workoutLogPOST(w http.ResponseWriter, r *http.Request) {
	var req workoutLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	if req.DurationMinutes < 0 {
		app.handleServiceError(w, r, fmt.Errorf("%w: negative duration_minutes", training.ErrInvalidArgument))
		return
	}

	log := training.WorkoutLog{ //nolint:exhaustruct // id and user are assigned by the service.
		// The service dates logs without a date to now.
		Date:               ptr.Deref(req.Date, time.Time{}),
		CompletedSets:      req.CompletedSets,
		Duration:           time.Duration(req.DurationMinutes * float64(time.Minute)),
		MuscleGroupFatigue: req.MuscleGroupFatigue,
	}

	stored, err := app.trainingService.RecordWorkout(r.Context(), r.PathValue("userID"), log)
	if stored.ID == "" {
		app.handleServiceError(w, r, err)
		return
	}
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "workout stored without fatigue update",
			slog.String("workout_log_id", stored.ID), errors.SlogError(err))
	}

	app.writeJSON(w, r, http.StatusCreated, workoutLogResponse{
		ID:                 stored.ID,
		UserID:             stored.UserID,
		Date:               stored.Date,
		CompletedSets:      stored.CompletedSets,
		DurationMinutes:    stored.Duration.Minutes(),
		MuscleGroupFatigue: stored.MuscleGroupFatigue,
		FatigueUpdated:     err == nil,
	})
}
