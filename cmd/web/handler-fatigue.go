package main

import (
	"net/http"
)

// fatigueGET always responds with a snapshot, falling back to a fixed one when the user has none.
func (app *application) fatigueGET(w http.ResponseWriter, r *http.Request) {
	fatigue := app.trainingService.GetUserFatigue(r.Context(), r.PathValue("userID"))
	app.writeJSON(w, r, http.StatusOK, fatigue)
}

// fatiguePOST creates the baseline snapshot if the user doesn't have one yet.
func (app *application) fatiguePOST(w http.ResponseWriter, r *http.Request) {
	fatigue, err := app.trainingService.InitializeUserFatigue(r.Context(), r.PathValue("userID"))
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, fatigue)
}
