package main

import (
	"net/http"

	"github.com/myrjola/loadcoach/internal/training"
)

const (
	defaultTargetReps = 8
	defaultTargetRIR  = 2
)

type idealWeightResponse struct {
	ExerciseID string          `json:"exercise_id"`
	TargetReps int             `json:"target_reps"`
	TargetRIR  int             `json:"target_rir"`
	WeightKg   float64         `json:"weight_kg"`
	Source     training.Source `json:"source"`
}

func (app *application) idealWeightGET(w http.ResponseWriter, r *http.Request) {
	reps, err := intQuery(r, "reps", defaultTargetReps)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	rir, err := intQuery(r, "rir", defaultTargetRIR)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}

	exerciseID := r.PathValue("exerciseID")
	recommendation, err := app.trainingService.CalculateIdealWeight(r.Context(), r.PathValue("userID"), exerciseID,
		reps, rir)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, idealWeightResponse{
		ExerciseID: exerciseID,
		TargetReps: reps,
		TargetRIR:  rir,
		WeightKg:   recommendation.WeightKg,
		Source:     recommendation.Source,
	})
}

func (app *application) alternativesGET(w http.ResponseWriter, r *http.Request) {
	rir, err := intQuery(r, "rir", defaultTargetRIR)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	alternatives, err := app.trainingService.ListAlternatives(r.Context(), r.PathValue("exerciseID"), rir)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	if alternatives == nil {
		alternatives = []training.Alternative{}
	}
	app.writeJSON(w, r, http.StatusOK, alternatives)
}
