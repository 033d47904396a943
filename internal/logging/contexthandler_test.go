package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/myrjola/loadcoach/internal/logging"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(&buf, nil)))

	parent := logging.WithAttrs(context.Background(), slog.String("trace_id", "abc"))
	first := logging.WithAttrs(parent, slog.String("user_id", "first"))
	second := logging.WithAttrs(parent, slog.String("user_id", "second"))

	logger.InfoContext(first, "first")
	logger.InfoContext(second, "second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "trace_id=abc") || !strings.Contains(lines[0], "user_id=first") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if strings.Contains(lines[1], "user_id=first") || !strings.Contains(lines[1], "user_id=second") {
		t.Errorf("sibling contexts leaked attributes: %q", lines[1])
	}

	if got := logging.AttrValue(second, "trace_id"); got != "abc" {
		t.Errorf("AttrValue(trace_id) = %q, want abc", got)
	}
	if got := logging.AttrValue(context.Background(), "trace_id"); got != "" {
		t.Errorf("AttrValue on empty context = %q, want empty", got)
	}
}
