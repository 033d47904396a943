package training

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/myrjola/loadcoach/internal/sqlite"
)

// Stored timestamps are fixed width UTC so that they sort chronologically as text.
const (
	timestampFormat    = "2006-01-02T15:04:05.000Z"
	timestampPrecision = time.Millisecond
)

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampFormat, s) //nolint:wrapcheck // callers add context.
}

// fatigueRepository persists the per-user fatigue snapshot.
type fatigueRepository interface {
	// Get returns ErrNotFound when the user has no snapshot.
	Get(ctx context.Context, userID string) (UserFatigue, error)
	// Insert stores f unless the user already has a snapshot and returns whatever is stored afterwards.
	Insert(ctx context.Context, f UserFatigue) (UserFatigue, error)
	// CompareAndSwap overwrites the snapshot only if its version still equals f.Version and returns the stored
	// snapshot with the bumped version. ErrConcurrentUpdate is returned when the version has moved on.
	CompareAndSwap(ctx context.Context, f UserFatigue) (UserFatigue, error)
}

// workoutLogRepository persists the append-only workout logs.
type workoutLogRepository interface {
	Append(ctx context.Context, log WorkoutLog) error
	// ListRecent returns at most limit logs of the user, newest first.
	ListRecent(ctx context.Context, userID string, limit int) ([]WorkoutLog, error)
}

// exerciseRepository persists the exercise catalog.
type exerciseRepository interface {
	// Get returns ErrNotFound for unknown exercises.
	Get(ctx context.Context, id string) (ExerciseProfile, error)
	ListByMuscleGroup(ctx context.Context, group MuscleGroup) ([]ExerciseProfile, error)
	Upsert(ctx context.Context, exercise ExerciseProfile) error
}

// Store bundles the repositories of one storage backend.
type Store struct {
	fatigue   fatigueRepository
	logs      workoutLogRepository
	exercises exerciseRepository
}

// NewSQLiteStore creates a Store backed by the embedded SQLite database.
func NewSQLiteStore(db *sqlite.Database, logger *slog.Logger) *Store {
	return &Store{
		fatigue:   newSQLiteFatigueRepository(db, logger),
		logs:      newSQLiteWorkoutLogRepository(db, logger),
		exercises: newSQLiteExerciseRepository(db, logger),
	}
}

// NewPostgresStore creates a Store backed by a Postgres database such as Supabase.
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{
		fatigue:   newPostgresFatigueRepository(pool, logger),
		logs:      newPostgresWorkoutLogRepository(pool, logger),
		exercises: newPostgresExerciseRepository(pool, logger),
	}
}
