package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"finance-tracker/internal/storage/migrations"

	"github.com/pressly/goose/v3"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer at a time; a single shared connection also
	// keeps ":memory:" databases alive across calls.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := New(conn)
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// New wraps an already opened connection without touching the schema.
func New(conn *sql.DB) *DB {
	return &DB{conn: conn, now: time.Now}
}

// gooseUp is a seam for testing the goose provider run.
var gooseUp = func(ctx context.Context, conn *sql.DB, fsys fs.FS) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, fsys)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

func (db *DB) migrate(ctx context.Context) error {
	return gooseUp(ctx, db.conn, migrations.FS)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, classify("count users", err)
	}
	return count, nil
}

func (db *DB) timestamp() time.Time {
	return db.now().UTC()
}
