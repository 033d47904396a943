package main

import (
	"net/http"

	"github.com/myrjola/loadcoach/internal/training"
)

func (app *application) nutritionPlanPOST(w http.ResponseWriter, r *http.Request) {
	var profile training.Profile
	if err := decodeJSON(w, r, &profile); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	plan, err := training.CalculateNutritionPlan(profile)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, plan)
}
