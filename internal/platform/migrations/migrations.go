// Package migrations creates the relational schema. Statements are ordered so
// foreign keys always reference tables created earlier, and every statement
// is idempotent.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id       BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL,
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role_type     TEXT NOT NULL CHECK (role_type IN ('host', 'traveler'))
	)`,
	`CREATE TABLE IF NOT EXISTS hosts (
		user_id            BIGINT PRIMARY KEY REFERENCES users(user_id),
		rating             DOUBLE PRECISION NOT NULL DEFAULT 0.0,
		preferred_language TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS travelers (
		user_id         BIGINT PRIMARY KEY REFERENCES users(user_id),
		language_spoken TEXT,
		skills          TEXT,
		availability    TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		location_id BIGSERIAL PRIMARY KEY,
		country     TEXT NOT NULL,
		state       TEXT,
		city        TEXT NOT NULL,
		zip_code    TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		listing_id   BIGSERIAL PRIMARY KEY,
		host_id      BIGINT NOT NULL REFERENCES users(user_id),
		location_id  BIGINT NOT NULL REFERENCES locations(location_id),
		title        TEXT NOT NULL,
		description  TEXT NOT NULL,
		work_hour    INTEGER NOT NULL,
		duration_day INTEGER NOT NULL,
		work_type    TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive'))
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		application_id BIGSERIAL PRIMARY KEY,
		listing_id     BIGINT NOT NULL REFERENCES listings(listing_id) ON DELETE CASCADE,
		traveler_id    BIGINT NOT NULL REFERENCES users(user_id),
		introduction   TEXT NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'accepted', 'rejected', 'withdrawn')),
		date_applied   TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_updated   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Apply executes all schema statements in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
