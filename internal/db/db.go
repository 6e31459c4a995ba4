// Package db provides SQLite storage for requirements, their comments and
// their history log.
//
// Use Open() to connect and EnsureSchema() to create or migrate the schema.
// Every mutating operation runs in a single transaction together with the
// history entry it produces.
package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DefaultOwnerID is the single owner every requirement belongs to.
const DefaultOwnerID int64 = 1

// Options configures a DB handle.
type Options struct {
	// BusyTimeout is how long a connection waits on a locked database.
	BusyTimeout time.Duration
	OwnerID     int64
	// Now overrides the clock used for created_at and history timestamps.
	Now func() time.Time
}

// DB wraps a SQL database connection with requirement-specific operations.
type DB struct {
	*sqlx.DB
	ownerID int64
	now     func() time.Time
}

// Open opens or creates the database at the given path.
func Open(path string, opts Options) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(wal)",
		path, busy.Milliseconds())

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), busy)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return New(conn, opts), nil
}

// New wraps an existing connection.
func New(conn *sqlx.DB, opts Options) *DB {
	db := &DB{DB: conn, ownerID: opts.OwnerID, now: opts.Now}
	if db.ownerID == 0 {
		db.ownerID = DefaultOwnerID
	}
	if db.now == nil {
		db.now = time.Now
	}
	return db
}

// timestamp returns the current time in the stored text layout.
func (db *DB) timestamp() string {
	return db.now().Format(timestampLayout)
}

// withTx runs fn inside a transaction and commits if fn succeeds.
func (db *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
