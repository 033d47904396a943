// Package training estimates training load: fatigue tracking, working-weight recommendations, RIR guidance for
// substitute exercises and nutrition targets.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Recorder receives domain events for metrics.
type Recorder interface {
	RecommendationServed(source Source)
	FatigueUpdated(outcome string)
	FallbackFatigueServed()
}

// Fatigue update outcomes reported to the Recorder.
const (
	OutcomeUpdated     = "updated"
	OutcomeNoRecord    = "no_record"
	OutcomeConflict    = "conflict"
	OutcomeFailed      = "failed"
	OutcomeInitialized = "initialized"
)

type nopRecorder struct{}

func (nopRecorder) RecommendationServed(Source) {}
func (nopRecorder) FatigueUpdated(string)       {}
func (nopRecorder) FallbackFatigueServed()      {}

// Service handles the business logic of the load estimator.
type Service struct {
	repo     *Store
	logger   *slog.Logger
	profiler ExerciseProfiler
	recorder Recorder
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithProfiler generates profiles for exercises missing from the catalog.
func WithProfiler(p ExerciseProfiler) Option {
	return func(s *Service) { s.profiler = p }
}

// WithRecorder reports domain events, typically to Prometheus.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new training service.
func NewService(store *Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     store,
		logger:   logger,
		profiler: nil,
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetUserFatigue returns the user's fatigue snapshot. It never fails: when the snapshot is missing or can't be read a
// fixed fallback snapshot is returned instead.
func (s *Service) GetUserFatigue(ctx context.Context, userID string) UserFatigue {
	f, err := s.repo.fatigue.Get(ctx, userID)
	if err == nil {
		return f
	}
	level := slog.LevelError
	if errors.Is(err, ErrNotFound) {
		level = slog.LevelInfo
	}
	s.logger.LogAttrs(ctx, level, "serving fallback fatigue",
		slog.String("user_id", userID), slog.Any("error", err))
	s.recorder.FallbackFatigueServed()
	return FallbackFatigue(userID, s.now())
}

// InitializeUserFatigue stores a fresh snapshot with zero fatigue unless the user already has one and returns the
// stored snapshot.
func (s *Service) InitializeUserFatigue(ctx context.Context, userID string) (UserFatigue, error) {
	if userID == "" {
		return UserFatigue{}, fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	f, err := s.repo.fatigue.Insert(ctx, UserFatigue{
		UserID:             userID,
		CurrentFatigue:     0,
		MuscleGroupFatigue: MuscleGroupFatigue{}, //nolint:exhaustruct // no groups recorded yet.
		LastUpdated:        s.now(),
		Version:            0,
	})
	if err != nil {
		return UserFatigue{}, fmt.Errorf("insert user fatigue: %w", err)
	}
	s.recorder.FatigueUpdated(OutcomeInitialized)
	return f, nil
}

// UpdateUserFatigue applies a finished workout to the user's snapshot. It returns ErrNoFatigueRecord when the user has
// no snapshot and ErrConcurrentUpdate when another update won the race. Nothing is written on failure.
func (s *Service) UpdateUserFatigue(ctx context.Context, userID string, log WorkoutLog) error {
	prior, err := s.repo.fatigue.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		s.recorder.FatigueUpdated(OutcomeNoRecord)
		return ErrNoFatigueRecord
	}
	if err != nil {
		s.recorder.FatigueUpdated(OutcomeFailed)
		return fmt.Errorf("get user fatigue: %w", err)
	}

	next := ApplyWorkout(prior, log, s.now())
	if _, err = s.repo.fatigue.CompareAndSwap(ctx, next); err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, ErrConcurrentUpdate) {
			outcome = OutcomeConflict
		}
		s.recorder.FatigueUpdated(outcome)
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to update user fatigue",
			slog.String("user_id", userID), slog.Any("error", err))
		return fmt.Errorf("save user fatigue: %w", err)
	}

	s.recorder.FatigueUpdated(OutcomeUpdated)
	s.logger.LogAttrs(ctx, slog.LevelDebug, "updated user fatigue",
		slog.String("user_id", userID),
		slog.Float64("previous", prior.CurrentFatigue),
		slog.Float64("current", next.CurrentFatigue),
		slog.Int("muscle_groups", next.MuscleGroupFatigue.Len()))
	return nil
}

// RecordWorkout appends the workout to the user's logs and then updates the fatigue snapshot. The stored log is
// returned even when the fatigue update fails.
func (s *Service) RecordWorkout(ctx context.Context, userID string, log WorkoutLog) (WorkoutLog, error) {
	if userID == "" {
		return WorkoutLog{}, fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	if log.Duration < 0 {
		return WorkoutLog{}, fmt.Errorf("%w: negative duration", ErrInvalidArgument)
	}
	log.ID = uuid.NewString()
	log.UserID = userID
	if log.Date.IsZero() {
		log.Date = s.now()
	}
	log.Date = log.Date.UTC().Truncate(timestampPrecision)
	if log.CompletedSets == nil {
		log.CompletedSets = []CompletedSet{}
	}

	if err := s.repo.logs.Append(ctx, log); err != nil {
		return WorkoutLog{}, fmt.Errorf("append workout log: %w", err)
	}
	if err := s.UpdateUserFatigue(ctx, userID, log); err != nil {
		return log, fmt.Errorf("update user fatigue: %w", err)
	}
	return log, nil
}

// CalculateIdealWeight recommends a working weight for the exercise. Only invalid arguments produce an error; storage
// failures fall back to the static table.
func (s *Service) CalculateIdealWeight(
	ctx context.Context,
	userID, exerciseID string,
	targetReps, targetRIR int,
) (Recommendation, error) {
	if !validateTarget(userID, exerciseID, targetReps, targetRIR) {
		return Recommendation{}, fmt.Errorf("%w: user %q exercise %q reps %d rir %d",
			ErrInvalidArgument, userID, exerciseID, targetReps, targetRIR)
	}

	var (
		logs    []WorkoutLog
		fatigue UserFatigue
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if logs, err = s.repo.logs.ListRecent(gctx, userID, historyLogLimit); err != nil {
			return fmt.Errorf("list recent workout logs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		fatigue = s.GetUserFatigue(gctx, userID)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "falling back to static table",
			slog.String("user_id", userID), slog.String("exercise_id", exerciseID), slog.Any("error", err))
		logs = nil
	}

	recommendation := IdealWeight(exerciseID, ExerciseHistory(logs, exerciseID), fatigue.CurrentFatigue,
		targetReps, targetRIR)
	s.recorder.RecommendationServed(recommendation.Source)
	return recommendation, nil
}

// GetExercise returns the catalog profile of the exercise. Exercises missing from the catalog are profiled and stored
// when a profiler is configured.
func (s *Service) GetExercise(ctx context.Context, exerciseID string) (ExerciseProfile, error) {
	exercise, err := s.repo.exercises.Get(ctx, exerciseID)
	if err == nil {
		return exercise, nil
	}
	if !errors.Is(err, ErrNotFound) || s.profiler == nil {
		return ExerciseProfile{}, fmt.Errorf("get exercise %q: %w", exerciseID, err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "profiling unknown exercise", slog.String("exercise_id", exerciseID))
	if exercise, err = s.profiler.Profile(ctx, exerciseID); err != nil {
		return ExerciseProfile{}, fmt.Errorf("profile exercise %q: %w", exerciseID, err)
	}
	if err = s.repo.exercises.Upsert(ctx, exercise); err != nil {
		return ExerciseProfile{}, fmt.Errorf("store exercise profile: %w", err)
	}
	return exercise, nil
}

// ListAlternatives returns the catalog exercises that train the same primary muscle group as the target, each with the
// RIR to aim for when substituting it in.
func (s *Service) ListAlternatives(ctx context.Context, exerciseID string, targetRIR int) ([]Alternative, error) {
	if exerciseID == "" || targetRIR < 0 {
		return nil, fmt.Errorf("%w: exercise %q rir %d", ErrInvalidArgument, exerciseID, targetRIR)
	}
	target, err := s.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.repo.exercises.ListByMuscleGroup(ctx, target.PrimaryMuscleGroup)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return alternativesFor(target, catalog, targetRIR), nil
}
