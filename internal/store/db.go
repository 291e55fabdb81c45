package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// Migrate creates the schema if it does not exist yet. The unique index on
// attendance (student_id, day) is what makes the duplicate-per-day invariant
// structural rather than best-effort.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS students (
			student_id     TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			class          TEXT NOT NULL,
			section        TEXT NOT NULL DEFAULT 'A',
			guardian_email TEXT,
			photo_url      TEXT,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			id         BIGSERIAL PRIMARY KEY,
			student_id TEXT NOT NULL REFERENCES students (student_id),
			day        DATE NOT NULL,
			ts         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			status     TEXT NOT NULL DEFAULT 'Present',
			source     TEXT NOT NULL DEFAULT 'QRScan',
			lat        DOUBLE PRECISION,
			lon        DOUBLE PRECISION,
			device_id  TEXT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS attendance_student_day
			ON attendance (student_id, day)`,
		`CREATE TABLE IF NOT EXISTS classes (
			class_id   TEXT PRIMARY KEY,
			class_name TEXT NOT NULL,
			teacher_id TEXT,
			schedule   TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS devices (
			device_id     TEXT PRIMARY KEY,
			registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id         BIGSERIAL PRIMARY KEY,
			device_id  TEXT NOT NULL,
			token      TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked    BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}
	for _, s := range stmts {
		if _, err := d.Client.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
