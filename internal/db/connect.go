package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:bookloop.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/bookloop?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS books (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  author TEXT NOT NULL DEFAULT '',
  format TEXT NOT NULL,
  total_units INTEGER NOT NULL,
  cover_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS reading_records (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  book_id TEXT NOT NULL REFERENCES books(id),
  format TEXT NOT NULL,
  progress_units INTEGER NOT NULL DEFAULT 0,
  total_units INTEGER NOT NULL,
  pinned INTEGER NOT NULL DEFAULT 0,
  rating INTEGER,
  notes TEXT NOT NULL DEFAULT '',
  completed INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  submission_type TEXT NOT NULL DEFAULT '',
  submitted_at INTEGER,
  revision_requested_at INTEGER,
  failed_at INTEGER,
  rejected_at INTEGER,
  unlock_requested_at INTEGER,
  parent_unlocked_at INTEGER,
  teacher_notes TEXT NOT NULL DEFAULT '',
  quiz_score TEXT NOT NULL DEFAULT '',
  version INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  UNIQUE (student_id, book_id)
);

CREATE TABLE IF NOT EXISTS question_banks (
  book_id TEXT NOT NULL,
  period TEXT NOT NULL DEFAULT '',
  questions_json TEXT NOT NULL,
  PRIMARY KEY (book_id, period)
);

CREATE TABLE IF NOT EXISTS guardians (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  contact TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS student_codes (
  student_id TEXT PRIMARY KEY,
  code_hash TEXT NOT NULL,
  issued_by TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  typ TEXT NOT NULL,                        -- e.g., book_completed
  key TEXT NOT NULL,                        -- natural key: recordID
  data TEXT NOT NULL,                       -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS books (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  author TEXT NOT NULL DEFAULT '',
  format TEXT NOT NULL,
  total_units INTEGER NOT NULL,
  cover_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS reading_records (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  book_id TEXT NOT NULL REFERENCES books(id),
  format TEXT NOT NULL,
  progress_units INTEGER NOT NULL DEFAULT 0,
  total_units INTEGER NOT NULL,
  pinned BOOLEAN NOT NULL DEFAULT FALSE,
  rating INTEGER,
  notes TEXT NOT NULL DEFAULT '',
  completed BOOLEAN NOT NULL DEFAULT FALSE,
  status TEXT NOT NULL,
  submission_type TEXT NOT NULL DEFAULT '',
  submitted_at BIGINT,
  revision_requested_at BIGINT,
  failed_at BIGINT,
  rejected_at BIGINT,
  unlock_requested_at BIGINT,
  parent_unlocked_at BIGINT,
  teacher_notes TEXT NOT NULL DEFAULT '',
  quiz_score TEXT NOT NULL DEFAULT '',
  version BIGINT NOT NULL DEFAULT 1,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  UNIQUE (student_id, book_id)
);

CREATE TABLE IF NOT EXISTS question_banks (
  book_id TEXT NOT NULL,
  period TEXT NOT NULL DEFAULT '',
  questions_json TEXT NOT NULL,
  PRIMARY KEY (book_id, period)
);

CREATE TABLE IF NOT EXISTS guardians (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  contact TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS student_codes (
  student_id TEXT PRIMARY KEY,
  code_hash TEXT NOT NULL,
  issued_by TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
