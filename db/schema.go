package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"attendance_backend/config"
)

// Schema is shared by both drivers; {{id}} is replaced by the dialect's
// auto-increment primary key. Timestamps are UTC unix milliseconds.
const Schema = `
-- Create admins table
CREATE TABLE IF NOT EXISTS admins (
    id {{id}},
    email VARCHAR(255) UNIQUE NOT NULL,
    first_name VARCHAR(50) NOT NULL,
    last_name VARCHAR(50) NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    created_at BIGINT NOT NULL
);

-- Create attendees table
CREATE TABLE IF NOT EXISTS attendees (
    id {{id}},
    email VARCHAR(255) UNIQUE NOT NULL,
    first_name VARCHAR(50) NOT NULL,
    last_name VARCHAR(50) NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    address VARCHAR(255) NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
);

-- Create sessions table
CREATE TABLE IF NOT EXISTS sessions (
    id {{id}},
    start_time BIGINT NOT NULL,
    end_time BIGINT NOT NULL,
    admin_id BIGINT NOT NULL,
    created_at BIGINT NOT NULL,
    FOREIGN KEY (admin_id) REFERENCES admins(id) ON DELETE CASCADE,
    CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS sessions_window_idx ON sessions (start_time, end_time);

-- Create session_locations table
CREATE TABLE IF NOT EXISTS session_locations (
    id {{id}},
    session_id BIGINT NOT NULL,
    address VARCHAR(100) NOT NULL DEFAULT '',
    longitude DOUBLE PRECISION NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS session_locations_session_idx ON session_locations (session_id);

-- Create attended_by table
CREATE TABLE IF NOT EXISTS attended_by (
    attendee_id BIGINT NOT NULL,
    session_id BIGINT NOT NULL,
    joined_at BIGINT NOT NULL,
    PRIMARY KEY (attendee_id, session_id),
    FOREIGN KEY (attendee_id) REFERENCES attendees(id) ON DELETE CASCADE,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

-- Create attendee_locations table
CREATE TABLE IF NOT EXISTS attendee_locations (
    id {{id}},
    attendee_id BIGINT NOT NULL,
    recorded_at BIGINT NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    FOREIGN KEY (attendee_id) REFERENCES attendees(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS attendee_locations_attendee_idx ON attendee_locations (attendee_id, recorded_at);

-- Create refresh_tokens table
CREATE TABLE IF NOT EXISTS refresh_tokens (
    id {{id}},
    account_id BIGINT NOT NULL,
    role VARCHAR(20) NOT NULL,
    token VARCHAR(255) UNIQUE NOT NULL,
    expires_at BIGINT NOT NULL
);
`

var idColumn = map[string]string{
	config.DriverPostgres: "BIGSERIAL PRIMARY KEY",
	config.DriverSQLite:   "INTEGER PRIMARY KEY AUTOINCREMENT",
}

// InitSchema initializes the database schema
func InitSchema(ctx context.Context, db *sql.DB, driver string) error {
	id, ok := idColumn[driver]
	if !ok {
		return fmt.Errorf("error initializing database schema: unsupported driver %q", driver)
	}
	for _, stmt := range strings.Split(strings.ReplaceAll(Schema, "{{id}}", id), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error initializing database schema: %w", err)
		}
	}
	return nil
}
