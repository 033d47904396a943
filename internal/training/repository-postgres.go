package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresFatigueRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func newPostgresFatigueRepository(db *pgxpool.Pool, logger *slog.Logger) *postgresFatigueRepository {
	return &postgresFatigueRepository{
		db:     db,
		logger: logger,
	}
}

func (r *postgresFatigueRepository) Get(ctx context.Context, userID string) (UserFatigue, error) {
	var (
		f          = UserFatigue{UserID: userID} //nolint:exhaustruct // scanned below.
		groupsJSON []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT current_fatigue, muscle_group_fatigue, last_updated, version
		FROM user_fatigue
		WHERE user_id = $1`, userID).Scan(&f.CurrentFatigue, &groupsJSON, &f.LastUpdated, &f.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserFatigue{}, ErrNotFound
	}
	if err != nil {
		return UserFatigue{}, fmt.Errorf("query user fatigue: %w", err)
	}
	if err = json.Unmarshal(groupsJSON, &f.MuscleGroupFatigue); err != nil {
		return UserFatigue{}, fmt.Errorf("unmarshal muscle group fatigue: %w", err)
	}
	f.LastUpdated = f.LastUpdated.UTC()
	return f, nil
}

func (r *postgresFatigueRepository) Insert(ctx context.Context, f UserFatigue) (UserFatigue, error) {
	f = clampSnapshot(f)
	groupsJSON, err := json.Marshal(f.MuscleGroupFatigue)
	if err != nil {
		return UserFatigue{}, fmt.Errorf("marshal muscle group fatigue: %w", err)
	}
	if _, err = r.db.Exec(ctx, `
		INSERT INTO user_fatigue (user_id, current_fatigue, muscle_group_fatigue, last_updated, version)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (user_id) DO NOTHING`,
		f.UserID, f.CurrentFatigue, string(groupsJSON), f.LastUpdated.UTC().Truncate(timestampPrecision)); err != nil {
		return UserFatigue{}, fmt.Errorf("insert user fatigue: %w", err)
	}
	stored, err := r.Get(ctx, f.UserID)
	if err != nil {
		return UserFatigue{}, fmt.Errorf("read inserted user fatigue: %w", err)
	}
	return stored, nil
}

func (r *postgresFatigueRepository) CompareAndSwap(ctx context.Context, f UserFatigue) (UserFatigue, error) {
	f = clampSnapshot(f)
	f.LastUpdated = f.LastUpdated.UTC().Truncate(timestampPrecision)
	groupsJSON, err := json.Marshal(f.MuscleGroupFatigue)
	if err != nil {
		return UserFatigue{}, fmt.Errorf("marshal muscle group fatigue: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE user_fatigue
		SET current_fatigue      = $1,
		    muscle_group_fatigue = $2,
		    last_updated         = $3,
		    version              = version + 1
		WHERE user_id = $4
		  AND version = $5`,
		f.CurrentFatigue, string(groupsJSON), f.LastUpdated, f.UserID, f.Version)
	if err != nil {
		return UserFatigue{}, fmt.Errorf("update user fatigue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "fatigue version changed before write",
			slog.String("user_id", f.UserID), slog.Int64("expected_version", f.Version))
		return UserFatigue{}, ErrConcurrentUpdate
	}
	f.Version++
	return f, nil
}

type postgresWorkoutLogRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func newPostgresWorkoutLogRepository(db *pgxpool.Pool, logger *slog.Logger) *postgresWorkoutLogRepository {
	return &postgresWorkoutLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *postgresWorkoutLogRepository) Append(ctx context.Context, log WorkoutLog) error {
	stored, err := encodeWorkoutLog(log)
	if err != nil {
		return err
	}
	if _, err = r.db.Exec(ctx, `
		INSERT INTO workout_logs (id, user_id, date, completed_sets, duration_minutes, muscle_group_fatigue)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		log.ID, log.UserID, log.Date.UTC().Truncate(timestampPrecision), string(stored.completedSets),
		stored.minutes, string(stored.groups)); err != nil {
		return fmt.Errorf("insert workout log: %w", err)
	}
	return nil
}

func (r *postgresWorkoutLogRepository) ListRecent(ctx context.Context, userID string, limit int) ([]WorkoutLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, date, completed_sets, duration_minutes, muscle_group_fatigue
		FROM workout_logs
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query workout logs: %w", err)
	}
	defer rows.Close()

	var logs []WorkoutLog
	for rows.Next() {
		var (
			log    = WorkoutLog{UserID: userID} //nolint:exhaustruct // scanned below.
			stored storedWorkoutLog
			date   time.Time
		)
		if err = rows.Scan(&log.ID, &date, &stored.completedSets, &stored.minutes, &stored.groups); err != nil {
			return nil, fmt.Errorf("scan workout log: %w", err)
		}
		log.Date = date.UTC()
		if err = stored.decodeInto(&log); err != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "skipping unreadable workout log",
				slog.String("workout_log_id", log.ID), slog.Any("error", err))
			continue
		}
		logs = append(logs, log)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return logs, nil
}

type postgresExerciseRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func newPostgresExerciseRepository(db *pgxpool.Pool, logger *slog.Logger) *postgresExerciseRepository {
	return &postgresExerciseRepository{
		db:     db,
		logger: logger,
	}
}

func (r *postgresExerciseRepository) Get(ctx context.Context, id string) (ExerciseProfile, error) {
	var e ExerciseProfile
	err := r.db.QueryRow(ctx, `
		SELECT id, name, compound, equipment, primary_muscle_group
		FROM exercises
		WHERE id = $1`, id).Scan(&e.ID, &e.Name, &e.Compound, &e.Equipment, &e.PrimaryMuscleGroup)
	if errors.Is(err, pgx.ErrNoRows) {
		return ExerciseProfile{}, ErrNotFound
	}
	if err != nil {
		return ExerciseProfile{}, fmt.Errorf("query exercise: %w", err)
	}
	return e, nil
}

func (r *postgresExerciseRepository) ListByMuscleGroup(ctx context.Context, group MuscleGroup) ([]ExerciseProfile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, compound, equipment, primary_muscle_group
		FROM exercises
		WHERE primary_muscle_group = $1
		ORDER BY id`, string(group))
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	exercises, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ExerciseProfile, error) {
		var e ExerciseProfile
		err := row.Scan(&e.ID, &e.Name, &e.Compound, &e.Equipment, &e.PrimaryMuscleGroup)
		return e, err //nolint:wrapcheck // wrapped below.
	})
	if err != nil {
		return nil, fmt.Errorf("collect exercises: %w", err)
	}
	return exercises, nil
}

func (r *postgresExerciseRepository) Upsert(ctx context.Context, e ExerciseProfile) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO exercises (id, name, compound, equipment, primary_muscle_group)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name                 = excluded.name,
		                               compound             = excluded.compound,
		                               equipment            = excluded.equipment,
		                               primary_muscle_group = excluded.primary_muscle_group`,
		e.ID, e.Name, e.Compound, string(e.Equipment), string(e.PrimaryMuscleGroup)); err != nil {
		return fmt.Errorf("upsert exercise: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "stored exercise profile",
		slog.String("exercise_id", e.ID), slog.String("primary_muscle_group", string(e.PrimaryMuscleGroup)))
	return nil
}
