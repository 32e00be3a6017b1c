package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the gate tables. Each statement is idempotent.
//
// Vehicle plates are unique only among IN rows: the history keeps every
// visit of the same plate, so the unique index is partial.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'guard' CHECK (role IN ('admin', 'guard')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		password_changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS password_changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`,
	`CREATE TABLE IF NOT EXISTS visitors (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		destination   TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		host_employee TEXT NULL,
		status        TEXT NOT NULL DEFAULT 'IN' CHECK (status IN ('IN', 'OUT', 'PRE-REGISTERED')),
		checkin_time  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		checkout_time TIMESTAMPTZ NULL,
		photo_path    TEXT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_checkin ON visitors (checkin_time DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_name_in ON visitors (LOWER(name)) WHERE status = 'IN'`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_preregistered ON visitors (name, destination, checkin_time) WHERE status = 'PRE-REGISTERED'`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id            BIGSERIAL PRIMARY KEY,
		driver_name   TEXT NOT NULL,
		plate_number  TEXT NOT NULL,
		mileage_in    BIGINT NOT NULL CHECK (mileage_in >= 0),
		mileage_out   BIGINT NULL,
		status        TEXT NOT NULL DEFAULT 'IN' CHECK (status IN ('IN', 'OUT')),
		checkin_time  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		checkout_time TIMESTAMPTZ NULL,
		photo_path    TEXT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_checkin ON vehicles (checkin_time DESC, id DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_vehicles_plate_in ON vehicles (plate_number) WHERE status = 'IN'`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id          BIGSERIAL PRIMARY KEY,
		username    TEXT NULL,
		action      TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   BIGINT NULL,
		ip_address  TEXT NOT NULL DEFAULT '',
		user_agent  TEXT NOT NULL DEFAULT '',
		details     JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS login_attempts (
		id              BIGSERIAL PRIMARY KEY,
		identifier      TEXT NOT NULL,
		identifier_type TEXT NOT NULL CHECK (identifier_type IN ('username', 'ip')),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_login_attempts_lookup ON login_attempts (identifier, identifier_type, created_at)`,
}

// GateTables lists the tables owned by this service, in truncation order
var GateTables = []string{"audit_logs", "login_attempts", "visitors", "vehicles", "users"}

// Migrate creates any missing tables and indexes
func Migrate(ctx context.Context, db *sqlx.DB) error {
	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		for i, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}
