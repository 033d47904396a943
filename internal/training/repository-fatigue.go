package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myrjola/loadcoach/internal/sqlite"
)

type sqliteFatigueRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newSQLiteFatigueRepository(db *sqlite.Database, logger *slog.Logger) *sqliteFatigueRepository {
	return &sqliteFatigueRepository{
		db:     db,
		logger: logger,
	}
}

func (r *sqliteFatigueRepository) Get(ctx context.Context, userID string) (UserFatigue, error) {
	return r.get(ctx, r.db.ReadOnly, userID)
}

func (r *sqliteFatigueRepository) get(ctx context.Context, db *sql.DB, userID string) (UserFatigue, error) {
	var (
		f           = UserFatigue{UserID: userID} //nolint:exhaustruct // scanned below.
		groupsJSON  []byte
		lastUpdated string
	)
	err := db.QueryRowContext(ctx, `
		SELECT current_fatigue, muscle_group_fatigue, last_updated, version
		FROM user_fatigue
		WHERE user_id = ?`, userID).Scan(&f.CurrentFatigue, &groupsJSON, &lastUpdated, &f.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return UserFatigue{}, ErrNotFound
	}
	if err != nil {
		return UserFatigue{}, fmt.Errorf("query user fatigue: %w", err)
	}
	if err = json.Unmarshal(groupsJSON, &f.MuscleGroupFatigue); err != nil {
		return UserFatigue{}, fmt.Errorf("unmarshal muscle group fatigue: %w", err)
	}
	if f.LastUpdated, err = parseTimestamp(lastUpdated); err != nil {
		return UserFatigue{}, fmt.Errorf("parse last updated: %w", err)
	}
	return f, nil
}

func (r *sqliteFatigueRepository) Insert(ctx context.Context, f UserFatigue) (UserFatigue, error) {
	f = clampSnapshot(f)
	groupsJSON, err := json.Marshal(f.MuscleGroupFatigue)
	if err != nil {
		return UserFatigue{}, fmt.Errorf("marshal muscle group fatigue: %w", err)
	}
	if _, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO user_fatigue (user_id, current_fatigue, muscle_group_fatigue, last_updated, version)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT (user_id) DO NOTHING`,
		f.UserID, f.CurrentFatigue, string(groupsJSON), formatTimestamp(f.LastUpdated)); err != nil {
		return UserFatigue{}, fmt.Errorf("insert user fatigue: %w", err)
	}
	stored, err := r.get(ctx, r.db.ReadWrite, f.UserID)
	if err != nil {
		return UserFatigue{}, fmt.Errorf("read inserted user fatigue: %w", err)
	}
	return stored, nil
}

func (r *sqliteFatigueRepository) CompareAndSwap(ctx context.Context, f UserFatigue) (UserFatigue, error) {
	f = clampSnapshot(f)
	groupsJSON, err := json.Marshal(f.MuscleGroupFatigue)
	if err != nil {
		return UserFatigue{}, fmt.Errorf("marshal muscle group fatigue: %w", err)
	}
	result, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE user_fatigue
		SET current_fatigue      = ?,
		    muscle_group_fatigue = ?,
		    last_updated         = ?,
		    version              = version + 1
		WHERE user_id = ?
		  AND version = ?`,
		f.CurrentFatigue, string(groupsJSON), formatTimestamp(f.LastUpdated), f.UserID, f.Version)
	if err != nil {
		return UserFatigue{}, fmt.Errorf("update user fatigue: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return UserFatigue{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "fatigue version changed before write",
			slog.String("user_id", f.UserID), slog.Int64("expected_version", f.Version))
		return UserFatigue{}, ErrConcurrentUpdate
	}
	f.Version++
	f.LastUpdated = f.LastUpdated.UTC().Truncate(timestampPrecision)
	return f, nil
}
