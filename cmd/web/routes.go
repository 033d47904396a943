package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	api := func(h http.HandlerFunc) http.Handler {
		return noCache(app.timeout(h))
	}

	mux.Handle("GET /api/healthy", api(app.healthy))

	mux.Handle("GET /api/users/{userID}/fatigue", api(app.fatigueGET))
	mux.Handle("POST /api/users/{userID}/fatigue", api(app.fatiguePOST))
	mux.Handle("POST /api/users/{userID}/workout-logs", api(app.workoutLogPOST))
	mux.Handle("GET /api/users/{userID}/exercises/{exerciseID}/ideal-weight", api(app.idealWeightGET))

	mux.Handle("GET /api/exercises/{exerciseID}/alternatives", api(app.alternativesGET))
	mux.Handle("POST /api/nutrition/plan", api(app.nutritionPlanPOST))

	mux.Handle("/", api(app.notFound(mux)))

	mux.Handle("GET /metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})) //nolint:exhaustruct // defaults.

	return app.recoverPanic(app.logAndTraceRequest(secureHeaders(mux)))
}
