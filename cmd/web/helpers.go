package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/myrjola/loadcoach/internal/errors"
	"github.com/myrjola/loadcoach/internal/logging"
	"github.com/myrjola/loadcoach/internal/training"
)

const maxRequestBodyBytes = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(body); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to write response", errors.SlogError(err))
	}
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.writeError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "client error",
		slog.Int("status_code", status), slog.String("reason", msg))
	app.writeError(w, r, status, msg)
}

func (app *application) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	app.writeJSON(w, r, status, errorResponse{
		Error:   msg,
		TraceID: logging.AttrValue(r.Context(), "trace_id"),
	})
}

// handleServiceError maps domain errors to client errors and everything else to a server error.
func (app *application) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, training.ErrInvalidArgument), errors.Is(err, training.ErrUnknownMuscleGroup):
		app.clientError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, training.ErrNotFound), errors.Is(err, training.ErrNoFatigueRecord):
		app.clientError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, training.ErrConcurrentUpdate):
		app.clientError(w, r, http.StatusConflict, err.Error())
	default:
		app.serverError(w, r, err)
	}
}

// decodeJSON decodes the request body into dst rejecting unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode request body: %w", training.ErrInvalidArgument, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON value", training.ErrInvalidArgument)
	}
	return nil
}

// intQuery parses the query parameter key, returning fallback when it's absent.
func intQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: query parameter %s: %w", training.ErrInvalidArgument, key, err)
	}
	return v, nil
}

// notFound answers requests no route matches. A path that exists under another method gets 405 Method Not Allowed
// with the Allow header instead.
func (app *application) notFound(mux *http.ServeMux) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var allowed []string
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			if method == r.Method {
				continue
			}
			other := r.Clone(r.Context())
			other.Method = method
			if _, pattern := mux.Handler(other); pattern != "" && pattern != "/" {
				allowed = append(allowed, method)
			}
		}
		if len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			app.clientError(w, r, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
			return
		}
		app.clientError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	}
}
