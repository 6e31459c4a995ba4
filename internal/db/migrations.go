package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

const createRequirements = `
CREATE TABLE requirements (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL DEFAULT 'Pending',
	priority TEXT DEFAULT 'Medium',
	progress INTEGER DEFAULT 0,
	unit TEXT DEFAULT 'Imagine',
	developer TEXT DEFAULT 'Unassigned',
	created_at TEXT,
	owner_id INTEGER NOT NULL DEFAULT 1
)`

// requirementColumns are the columns added after the first release. Older
// databases get them through ALTER TABLE with the same defaults.
var requirementColumns = []struct {
	Name string
	SQL  string
}{
	{Name: "priority", SQL: "ALTER TABLE requirements ADD COLUMN priority TEXT DEFAULT 'Medium'"},
	{Name: "progress", SQL: "ALTER TABLE requirements ADD COLUMN progress INTEGER DEFAULT 0"},
	{Name: "unit", SQL: "ALTER TABLE requirements ADD COLUMN unit TEXT DEFAULT 'Imagine'"},
	{Name: "developer", SQL: "ALTER TABLE requirements ADD COLUMN developer TEXT DEFAULT 'Unassigned'"},
	{Name: "owner_id", SQL: "ALTER TABLE requirements ADD COLUMN owner_id INTEGER NOT NULL DEFAULT 1"},
}

const createComments = `
CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	requirement_id INTEGER,
	comment TEXT NOT NULL,
	created_at TEXT,
	FOREIGN KEY (requirement_id) REFERENCES requirements(id)
)`

const createHistory = `
CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	requirement_id INTEGER,
	action TEXT NOT NULL,
	timestamp TEXT,
	FOREIGN KEY (requirement_id) REFERENCES requirements(id)
)`

var createIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_comments_requirement ON comments(requirement_id)`,
	`CREATE INDEX IF NOT EXISTS idx_history_requirement ON history(requirement_id)`,
}

// migrations is the ordered list of schema steps. Versions are recorded by
// goose, and each step is also safe to run against a database that predates
// the version table.
func migrations() []*goose.Migration {
	return []*goose.Migration{
		goose.NewGoMigration(1, &goose.GoFunc{RunTx: ensureRequirements}, nil),
		goose.NewGoMigration(2, &goose.GoFunc{RunTx: execStep(createComments)}, nil),
		goose.NewGoMigration(3, &goose.GoFunc{RunTx: execStep(createHistory)}, nil),
		goose.NewGoMigration(4, &goose.GoFunc{RunTx: execStep(createIndexes...)}, nil),
	}
}

// EnsureSchema applies pending migrations and returns the versions it applied.
// Running it again on an up-to-date database applies nothing.
func (db *DB) EnsureSchema(ctx context.Context) ([]int64, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db.DB.DB, nil,
		goose.WithGoMigrations(migrations()...),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}

// ensureRequirements creates the requirements table, or adds whichever of
// the later columns an existing table is missing.
func ensureRequirements(ctx context.Context, tx *sql.Tx) error {
	cols, err := tableColumns(ctx, tx, "requirements")
	if err != nil {
		return err
	}

	if len(cols) == 0 {
		if _, err := tx.ExecContext(ctx, createRequirements); err != nil {
			return fmt.Errorf("failed to create requirements table: %w", err)
		}
		return nil
	}

	for _, c := range requirementColumns {
		if cols[c.Name] {
			continue
		}
		if _, err := tx.ExecContext(ctx, c.SQL); err != nil {
			return fmt.Errorf("failed to add column %s: %w", c.Name, err)
		}
	}
	return nil
}

func execStep(stmts ...string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema step: %w", err)
			}
		}
		return nil
	}
}

// tableColumns returns the column names of table, empty if it does not exist.
func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
