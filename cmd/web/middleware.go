package main

import (
	"crypto/rand"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/loadcoach/internal/errors"
	"github.com/myrjola/loadcoach/internal/flightrecorder"
	"github.com/myrjola/loadcoach/internal/logging"
)

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		headerWritten:  false,
	}
}

func (mw *statusResponseWriter) WriteHeader(statusCode int) {
	mw.ResponseWriter.WriteHeader(statusCode)
	if !mw.headerWritten {
		mw.statusCode = statusCode
		mw.headerWritten = true
	}
}

func (mw *statusResponseWriter) Write(b []byte) (int, error) {
	mw.headerWritten = true
	return mw.ResponseWriter.Write(b) //nolint:wrapcheck // transparent wrapper.
}

func (mw *statusResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}

// secureHeaders sets the headers of a JSON API that is never framed or rendered as a document.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		next.ServeHTTP(w, r)
	})
}

// logAndTraceRequest attaches a trace id and request details to the logging context, logs the outcome and records
// request metrics.
func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			method = r.Method
			uri    = r.URL.RequestURI()
		)

		ctx := logging.WithAttrs(
			r.Context(),
			slog.String("trace_id", rand.Text()),
			slog.String("proto", r.Proto),
			slog.String("method", method),
			slog.String("uri", uri),
		)
		r = r.WithContext(ctx)

		start := time.Now()
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")
		app.metrics.GaugeRequests.Inc()
		defer app.metrics.GaugeRequests.Dec()

		sw := newStatusResponseWriter(w)
		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		app.metrics.ObserveRequest(method, sw.statusCode, duration.Seconds())
		level := slog.LevelInfo
		if sw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		app.logger.LogAttrs(ctx, level, "request completed",
			slog.Int("status_code", sw.statusCode), slog.Duration("duration", duration))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if excp := recover(); excp != nil {
				app.metrics.CounterRequestPanics.Inc()
				app.serverError(w, r, errors.DecoratePanic(excp))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// timeout responds with 503 Service Unavailable and cancels the request context when the handler misses the deadline.
// The execution trace leading up to the timeout is captured when the flight recorder is enabled.
func (app *application) timeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := json.Marshal(errorResponse{
			Error:   "timed out",
			TraceID: logging.AttrValue(r.Context(), "trace_id"),
		})
		if err != nil {
			app.serverError(w, r, errors.Wrap(err, "marshal timeout body"))
			return
		}
		// TimeoutHandler writes its body without a content type.
		w.Header().Set("Content-Type", "application/json")
		sw := newStatusResponseWriter(w)
		http.TimeoutHandler(next, app.requestTimeout, string(body)).ServeHTTP(sw, r)

		if sw.statusCode != http.StatusServiceUnavailable || app.flightRecorder == nil {
			return
		}
		if _, err = app.flightRecorder.Capture(r.Context(), "timeout"); err != nil &&
			!errors.Is(err, flightrecorder.ErrCoolingDown) {
			app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to capture timeout trace", errors.SlogError(err))
		}
	})
}
