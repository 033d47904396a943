// Package flightrecorder keeps a rolling execution trace in memory and writes it to disk when a request misses its
// deadline, so that slow storage calls can be inspected with go tool trace.
package flightrecorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"
)

const (
	window   = 30 * time.Second
	maxBytes = 16 << 20
	// Cooldown limits how often traces are written to disk.
	Cooldown = 10 * time.Minute
)

var ErrCoolingDown = errors.New("trace captured recently")

// Recorder captures execution traces of timed out requests.
type Recorder struct {
	logger *slog.Logger
	dir    string
	fr     *trace.FlightRecorder
	now    func() time.Time

	mu          sync.Mutex
	lastCapture time.Time
}

// New creates a recorder writing traces to dir, creating it when missing. Call Start to begin recording.
func New(logger *slog.Logger, dir string) (*Recorder, error) {
	if dir == "" {
		return nil, errors.New("empty traces directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:mnd // rwxr-x---
		return nil, fmt.Errorf("create traces directory: %w", err)
	}
	return &Recorder{
		logger: logger,
		dir:    dir,
		fr: trace.NewFlightRecorder(trace.FlightRecorderConfig{
			MinAge:   window,
			MaxBytes: maxBytes,
		}),
		now:         time.Now,
		mu:          sync.Mutex{},
		lastCapture: time.Time{},
	}, nil
}

func (r *Recorder) Start(ctx context.Context) error {
	if err := r.fr.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started", slog.String("dir", r.dir))
	return nil
}

func (r *Recorder) Stop(ctx context.Context) {
	r.fr.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the buffered trace to a file named after reason and returns its path. At most one trace is written
// per Cooldown; earlier calls return ErrCoolingDown.
func (r *Recorder) Capture(ctx context.Context, reason string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !r.lastCapture.IsZero() && now.Sub(r.lastCapture) < Cooldown {
		return "", ErrCoolingDown
	}

	path := filepath.Join(r.dir, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405")))
	f, err := os.Create(path) //nolint:gosec // path is built from trusted parts.
	if err != nil {
		return "", fmt.Errorf("create trace file: %w", err)
	}
	n, err := r.fr.WriteTo(f)
	if closeErr := f.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close trace file: %w", closeErr))
	}
	if err != nil {
		return "", errors.Join(fmt.Errorf("write trace: %w", err), os.Remove(path))
	}

	r.lastCapture = now
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace",
		slog.String("file", path), slog.Int64("bytes", n), slog.String("reason", reason))
	return path, nil
}
