package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/c.mueller/gantt-order-sync/internal/ordering"
	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps the
	// foreign_keys pragma in effect for every statement
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, now: func() time.Time { return time.Now().UTC() }}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// initSchema creates the database schema
func (db *DB) initSchema() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		extern_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		display_order REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		extern_id TEXT NOT NULL UNIQUE,
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		display_order REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_projects_display_order ON projects(display_order);
	CREATE INDEX IF NOT EXISTS idx_tasks_project_order ON tasks(project_id, display_order);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// nextOrder returns the key that appends after the largest key of query.
func (db *DB) nextOrder(query string, args ...any) (float64, error) {
	var max sql.NullFloat64
	if err := db.conn.QueryRow(query, args...).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read max display order: %w", err)
	}
	if !max.Valid {
		return ordering.Gap, nil
	}
	return max.Float64 + ordering.Gap, nil
}

// sameOrNewer reports whether incoming should replace current under last write wins.
func sameOrNewer(incoming, current time.Time) bool {
	return incoming.UnixMilli() >= current.UnixMilli()
}
