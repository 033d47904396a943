package training

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/loadcoach/internal/sqlite"
)

type sqliteWorkoutLogRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newSQLiteWorkoutLogRepository(db *sqlite.Database, logger *slog.Logger) *sqliteWorkoutLogRepository {
	return &sqliteWorkoutLogRepository{
		db:     db,
		logger: logger,
	}
}

// storedWorkoutLog holds the JSON columns shared by the storage backends.
type storedWorkoutLog struct {
	completedSets []byte
	groups        []byte
	minutes       float64
}

func encodeWorkoutLog(log WorkoutLog) (storedWorkoutLog, error) {
	sets := log.CompletedSets
	if sets == nil {
		sets = []CompletedSet{}
	}
	setsJSON, err := json.Marshal(sets)
	if err != nil {
		return storedWorkoutLog{}, fmt.Errorf("marshal completed sets: %w", err)
	}
	groupsJSON, err := json.Marshal(log.MuscleGroupFatigue)
	if err != nil {
		return storedWorkoutLog{}, fmt.Errorf("marshal muscle group fatigue: %w", err)
	}
	return storedWorkoutLog{
		completedSets: setsJSON,
		groups:        groupsJSON,
		minutes:       log.Duration.Minutes(),
	}, nil
}

func (s storedWorkoutLog) decodeInto(log *WorkoutLog) error {
	if err := json.Unmarshal(s.completedSets, &log.CompletedSets); err != nil {
		return fmt.Errorf("unmarshal completed sets: %w", err)
	}
	if err := json.Unmarshal(s.groups, &log.MuscleGroupFatigue); err != nil {
		return fmt.Errorf("unmarshal muscle group fatigue: %w", err)
	}
	log.Duration = time.Duration(s.minutes * float64(time.Minute))
	return nil
}

func (r *sqliteWorkoutLogRepository) Append(ctx context.Context, log WorkoutLog) error {
	stored, err := encodeWorkoutLog(log)
	if err != nil {
		return err
	}
	if _, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO workout_logs (id, user_id, date, completed_sets, duration_minutes, muscle_group_fatigue)
		VALUES (?, ?, ?, ?, ?, ?)`,
		log.ID, log.UserID, formatTimestamp(log.Date), string(stored.completedSets), stored.minutes,
		string(stored.groups)); err != nil {
		return fmt.Errorf("insert workout log: %w", err)
	}
	return nil
}

func (r *sqliteWorkoutLogRepository) ListRecent(ctx context.Context, userID string, limit int) ([]WorkoutLog, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, date, completed_sets, duration_minutes, muscle_group_fatigue
		FROM workout_logs
		WHERE user_id = ?
		ORDER BY date DESC, rowid DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query workout logs: %w", err)
	}
	defer rows.Close()

	var logs []WorkoutLog
	for rows.Next() {
		var (
			log    = WorkoutLog{UserID: userID} //nolint:exhaustruct // scanned below.
			stored storedWorkoutLog
			date   string
		)
		if err = rows.Scan(&log.ID, &date, &stored.completedSets, &stored.minutes, &stored.groups); err != nil {
			return nil, fmt.Errorf("scan workout log: %w", err)
		}
		if log.Date, err = parseTimestamp(date); err != nil {
			return nil, fmt.Errorf("parse workout date: %w", err)
		}
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
