package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/loadcoach/internal/e2etest"
	"github.com/myrjola/loadcoach/internal/errors"
	"github.com/myrjola/loadcoach/internal/logging"
	"github.com/myrjola/loadcoach/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	numUsers                = 10
	workoutHistoryWeeks     = 26 // 6 months of weekly workouts
	daysPerWeek             = 7
	concurrentLogsPerUser   = 5
	maxConcurrentSetups     = 10
	maxConcurrentOperations = 20
	scenarioTimeout         = 30 * time.Second
	historyTimeout          = 5 * time.Minute
	successRateThreshold    = 95.0
	percentageMultiplier    = 100
	baseWeight              = 60.0
	weightSteps             = 12
	baseReps                = 5
	repsRange               = 8
)

//nolint:gochecknoglobals // exercises with static table entries.
var exercises = []string{"bench-press", "squat", "deadlift", "overhead-press", "barbell-row"}

func randomSet(exerciseID string) e2etest.SetRequest {
	return e2etest.SetRequest{
		ExerciseID: exerciseID,
		WeightKg:   baseWeight + 2.5*float64(rand.IntN(weightSteps)), //nolint:gosec,mnd // load data.
		Reps:       baseReps + rand.IntN(repsRange),                  //nolint:gosec // load data.
		RIR:        rand.IntN(4),                                     //nolint:gosec,mnd // RIR 0-3.
	}
}

// SetupUsers initialises the fatigue snapshots of fresh users and backfills their workout history.
func SetupUsers(ctx context.Context, client *e2etest.Client, logger *slog.Logger) ([]string, error) {
	users := make([]string, numUsers)
	for i := range users {
		users[i] = "stresstest-" + uuid.NewString()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSetups)
	for _, userID := range users {
		g.Go(func() error {
			historyCtx, cancel := context.WithTimeout(ctx, historyTimeout)
			defer cancel()
			if err := client.InitializeFatigue(historyCtx, userID); err != nil {
				return fmt.Errorf("user %s: %w", userID, err)
			}
			start := time.Now().AddDate(0, 0, -workoutHistoryWeeks*daysPerWeek)
			for week := range workoutHistoryWeeks {
				exerciseID := exercises[week%len(exercises)]
				if _, err := client.LogWorkout(historyCtx, userID, e2etest.WorkoutLogRequest{
					Date:               start.AddDate(0, 0, week*daysPerWeek).UTC(),
					CompletedSets:      []e2etest.SetRequest{randomSet(exerciseID), randomSet(exerciseID)},
					DurationMinutes:    60, //nolint:mnd // an hour.
					MuscleGroupFatigue: map[string]float64{"chest": 5, "quadriceps": 5},
				}); err != nil {
					return fmt.Errorf("user %s week %d: %w", userID, week, err)
				}
			}
			logger.LogAttrs(historyCtx, slog.LevelDebug, "Generated workout history", slog.String("user_id", userID))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("setup users: %w", err)
	}
	return users, nil
}

// WorkoutScenario logs several workouts for the same user concurrently and then asks for recommendations.
//
// The concurrent logs race for the same fatigue snapshot so some of them are stored without a fatigue update. That's
// expected and counted separately from failures.
func WorkoutScenario(ctx context.Context, client *e2etest.Client, userID string, conflicts *atomic.Int64) error {
	g, gctx := errgroup.WithContext(ctx)
	for range concurrentLogsPerUser {
		g.Go(func() error {
			exerciseID := exercises[rand.IntN(len(exercises))] //nolint:gosec // load data.
			resp, err := client.LogWorkout(gctx, userID, e2etest.WorkoutLogRequest{
				Date:            time.Now().UTC(),
				CompletedSets:   []e2etest.SetRequest{randomSet(exerciseID)},
				DurationMinutes: 30, //nolint:mnd // half an hour.
			})
			if err != nil {
				return err
			}
			if !resp.FatigueUpdated {
				conflicts.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("log workouts: %w", err)
	}

	for _, exerciseID := range exercises {
		if _, err := client.IdealWeight(ctx, userID, exerciseID, 8, 2); err != nil { //nolint:mnd // 8 reps at RIR 2.
			return err
		}
	}
	return nil
}

// RunLoadTest runs WorkoutScenario for every user and fails when too many scenarios fail.
func RunLoadTest(ctx context.Context, client *e2etest.Client, users []string, logger *slog.Logger) error {
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting load test", slog.Int("num_users", len(users)))

	var successCount, failureCount, conflictCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for _, userID := range users {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()

			if err := WorkoutScenario(scenarioCtx, client, userID, &conflictCount); err != nil {
				failureCount.Add(1)
				// Failures are counted so that one slow user doesn't stop the others.
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed",
					slog.String("user_id", userID), errors.SlogError(err))
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load test failed: %w", err)
	}

	successRate := float64(successCount.Load()) / float64(len(users)) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Int64("fatigue_conflicts", conflictCount.Load()),
		slog.Float64("success_rate", successRate))

	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client := e2etest.NewClient(url)
	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}
	if err := client.SmokeScenario(ctx, "stresstest-smoke-"+uuid.NewString()); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "smoke test failed", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test passed")

	setupStart := time.Now()
	users, err := SetupUsers(ctx, client, logger)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to setup users", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "User setup completed",
		slog.Duration("setup_duration", time.Since(setupStart)),
		slog.Int("users", len(users)),
		slog.Int("weeks_per_user", workoutHistoryWeeks))

	loadTestStart := time.Now()
	if err = RunLoadTest(ctx, client, users, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Duration("load_test_duration", time.Since(loadTestStart)))
}
