package training

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myrjola/loadcoach/internal/sqlite"
)

type sqliteExerciseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newSQLiteExerciseRepository(db *sqlite.Database, logger *slog.Logger) *sqliteExerciseRepository {
	return &sqliteExerciseRepository{
		db:     db,
		logger: logger,
	}
}

func (r *sqliteExerciseRepository) Get(ctx context.Context, id string) (ExerciseProfile, error) {
	var e ExerciseProfile
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, compound, equipment, primary_muscle_group
		FROM exercises
		WHERE id = ?`, id).Scan(&e.ID, &e.Name, &e.Compound, &e.Equipment, &e.PrimaryMuscleGroup)
	if errors.Is(err, sql.ErrNoRows) {
		return ExerciseProfile{}, ErrNotFound
	}
	if err != nil {
		return ExerciseProfile{}, fmt.Errorf("query exercise: %w", err)
	}
	return e, nil
}

func (r *sqliteExerciseRepository) ListByMuscleGroup(ctx context.Context, group MuscleGroup) ([]ExerciseProfile, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, name, compound, equipment, primary_muscle_group
		FROM exercises
		WHERE primary_muscle_group = ?
		ORDER BY id`, group)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	var exercises []ExerciseProfile
	for rows.Next() {
		var e ExerciseProfile
		if err = rows.Scan(&e.ID, &e.Name, &e.Compound, &e.Equipment, &e.PrimaryMuscleGroup); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return exercises, nil
}

func (r *sqliteExerciseRepository) Upsert(ctx context.Context, e ExerciseProfile) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO exercises (id, name, compound, equipment, primary_muscle_group)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name                 = excluded.name,
		                               compound             = excluded.compound,
		                               equipment            = excluded.equipment,
		                               primary_muscle_group = excluded.primary_muscle_group`,
		e.ID, e.Name, e.Compound, e.Equipment, e.PrimaryMuscleGroup); err != nil {
		return fmt.Errorf("upsert exercise: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "stored exercise profile",
		slog.String("exercise_id", e.ID), slog.String("primary_muscle_group", string(e.PrimaryMuscleGroup)))
	return nil
}
