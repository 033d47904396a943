package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/loadcoach/internal/e2etest"
	"github.com/myrjola/loadcoach/internal/errors"
	"github.com/myrjola/loadcoach/internal/logging"
	"github.com/myrjola/loadcoach/internal/testhelpers"
)

const smokeTimeout = 10 * time.Second

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
		// Every run uses a fresh user so that the append-only logs of earlier runs don't matter.
		userID = "smoketest-" + uuid.NewString()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname), slog.String("user_id", userID))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client := e2etest.NewClient(url)
	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}

	scenarioCtx, cancel := context.WithTimeout(ctx, smokeTimeout)
	err := client.SmokeScenario(scenarioCtx, userID)
	cancel()
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "smoke scenario failed", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
}
