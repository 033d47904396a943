package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type schemaType string

const (
	schemaTypeTable   schemaType = "table"
	schemaTypeTrigger schemaType = "trigger"
	schemaTypeIndex   schemaType = "index"
)

type changedSchema struct {
	name    string
	liveSQL string
	newSQL  string
}

// schemaDiff describes how the live schema differs from the target schema for one schema type.
type schemaDiff struct {
	deleted []string
	created []string
	changed []changedSchema
}

// migrateTo makes the live schema match schemaDefinition declaratively.
//
// The target schema is created in a scratch in-memory database that is attached to the live database so that both
// can be compared through sqlite_schema. Deleted tables are dropped, new tables created, and changed tables rebuilt
// with the generalized ALTER TABLE procedure https://www.sqlite.org/lang_altertable.html#otheralter keeping the
// columns both versions share. Indexes and triggers are synchronised last because rebuilding a table drops them.
//
// Inspired by https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target: %w", err)
	}
	defer detach()

	// Foreign keys can't be toggled inside a transaction.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, enableErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); enableErr != nil {
			err = errors.Join(err, fmt.Errorf("re-enable foreign keys: %w", enableErr))
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer db.rollback(ctx, tx)

	if err = db.migrateTables(ctx, tx); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	for _, typ := range []schemaType{schemaTypeTrigger, schemaTypeIndex} {
		if err = db.migrateDependents(ctx, tx, typ); err != nil {
			return fmt.Errorf("migrate %ss: %w", typ, err)
		}
	}

	if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachSchemaTarget attaches an in-memory database initialised with schemaDefinition as schemaTarget. The returned
// function detaches it.
func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open schema target: %w", err)
	}
	// The shared cache keeps the in-memory database alive while it's attached to the live database.
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target", slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target", slog.Any("error", detachErr))
		}
	}, nil
}

func (db *Database) rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction", slog.Any("error", err))
	}
}

func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	diff, err := db.diffSchema(ctx, tx, schemaTypeTable)
	if err != nil {
		return err
	}

	for _, table := range diff.deleted {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping table", slog.String("table", table))
		if _, err = tx.ExecContext(ctx, "DROP TABLE "+table); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}

	for _, createSQL := range diff.created {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	for _, table := range diff.changed {
		if err = db.rebuildTable(ctx, tx, table); err != nil {
			return fmt.Errorf("rebuild table %s: %w", table.name, err)
		}
	}
	return nil
}

// rebuildTable creates the new version of the table under a temporary name, copies the shared columns, drops the old
// table and renames the new one into place.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, table changedSchema) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table",
		slog.String("table", table.name),
		slog.String("live_sql", table.liveSQL),
		slog.String("new_sql", table.newSQL))

	tempName := table.name + "_migration_temp"
	// Quoting the column names handles columns named after SQLite keywords.
	columns, err := queryStrings(ctx, tx, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", table.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	common := strings.Join(columns, ", ")

	statements := []string{
		strings.Replace(table.newSQL, table.name, tempName, 1),
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", tempName, common, common, table.name),
		"DROP TABLE " + table.name,
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, table.name),
	}
	for _, statement := range statements {
		db.logger.LogAttrs(ctx, slog.LevelDebug, "executing", slog.String("query", statement))
		if _, err = tx.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("exec %q: %w", statement, err)
		}
	}
	return nil
}

// migrateDependents synchronises indexes or triggers. Changed ones are dropped and recreated.
func (db *Database) migrateDependents(ctx context.Context, tx *sql.Tx, typ schemaType) error {
	logger := db.logger.With(slog.String("schemaType", string(typ)))
	diff, err := db.diffSchema(ctx, tx, typ)
	if err != nil {
		return err
	}

	keyword := strings.ToUpper(string(typ))
	for _, name := range diff.deleted {
		logger.LogAttrs(ctx, slog.LevelInfo, "dropping", slog.String("name", name))
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP %s %s", keyword, name)); err != nil {
			return fmt.Errorf("drop %s %s: %w", typ, name, err)
		}
	}
	for _, changed := range diff.changed {
		logger.LogAttrs(ctx, slog.LevelInfo, "recreating",
			slog.String("name", changed.name),
			slog.String("live_sql", changed.liveSQL),
			slog.String("new_sql", changed.newSQL))
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP %s %s", keyword, changed.name)); err != nil {
			return fmt.Errorf("drop changed %s %s: %w", typ, changed.name, err)
		}
		diff.created = append(diff.created, changed.newSQL)
	}
	for _, createSQL := range diff.created {
		logger.LogAttrs(ctx, slog.LevelInfo, "creating", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create %s: %w", typ, err)
		}
	}
	return nil
}

// diffSchema compares sqlite_schema of the live database with the attached schemaTarget for entities of typ.
// Internal sqlite_ entities such as automatic indexes are ignored.
func (db *Database) diffSchema(ctx context.Context, tx *sql.Tx, typ schemaType) (schemaDiff, error) {
	var (
		diff schemaDiff
		err  error
	)
	if diff.deleted, err = queryStrings(ctx, tx, `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND target.type IS NULL
  AND live.name NOT LIKE 'sqlite_%'`, typ); err != nil {
		return schemaDiff{}, fmt.Errorf("query deleted %ss: %w", typ, err)
	}

	if diff.created, err = queryStrings(ctx, tx, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
         LEFT JOIN sqlite_schema AS live ON live.name = target.name AND live.type = target.type
WHERE target.type = ?
  AND live.type IS NULL
  AND target.name NOT LIKE 'sqlite_%'`, typ); err != nil {
		return schemaDiff{}, fmt.Errorf("query created %ss: %w", typ, err)
	}

	// Renaming a table adds double quotes around its name, so quotes are ignored in the comparison.
	rows, err := tx.QueryContext(ctx, `SELECT live.name, live.sql, target.sql
FROM sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND live.name NOT LIKE 'sqlite_%'
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`, typ)
	if err != nil {
		return schemaDiff{}, fmt.Errorf("query changed %ss: %w", typ, err)
	}
	defer rows.Close()
	for rows.Next() {
		var changed changedSchema
		if err = rows.Scan(&changed.name, &changed.liveSQL, &changed.newSQL); err != nil {
			return schemaDiff{}, fmt.Errorf("scan changed %s: %w", typ, err)
		}
		diff.changed = append(diff.changed, changed)
	}
	if err = rows.Err(); err != nil {
		return schemaDiff{}, fmt.Errorf("rows error: %w", err)
	}
	return diff, nil
}

// queryStrings returns the single string column of every row returned by query.
func queryStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var result string
		if err = rows.Scan(&result); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}
