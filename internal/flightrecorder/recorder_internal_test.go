package flightrecorder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/myrjola/loadcoach/internal/testhelpers"
)

// Only one flight recorder can be active per process so these tests don't run in parallel.

func TestRecorder_Capture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "traces")
	r, err := New(testhelpers.NewLogger(testhelpers.NewWriter(t)), dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	ctx := t.Context()
	if err = r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop(ctx)

	path, err := r.Capture(ctx, "timeout")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if want := filepath.Join(dir, "timeout-20260310-120000.trace"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat trace: %v", err)
	}
	if info.Size() == 0 {
		t.Error("trace file is empty")
	}

	now = now.Add(Cooldown / 2)
	if _, err = r.Capture(ctx, "timeout"); !errors.Is(err, ErrCoolingDown) {
		t.Errorf("Capture() during cooldown error = %v, want %v", err, ErrCoolingDown)
	}

	now = now.Add(Cooldown)
	if _, err = r.Capture(ctx, "timeout"); err != nil {
		t.Errorf("Capture() after cooldown error = %v", err)
	}
}

func TestRecorder_CaptureNotStarted(t *testing.T) {
	r, err := New(testhelpers.NewLogger(testhelpers.NewWriter(t)), t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err = r.Capture(t.Context(), "timeout"); err == nil {
		t.Error("Capture() without Start succeeded")
	}
}

func TestNew_emptyDir(t *testing.T) {
	if _, err := New(testhelpers.NewLogger(testhelpers.NewWriter(t)), ""); err == nil {
		t.Error("New() with empty directory succeeded")
	}
}
