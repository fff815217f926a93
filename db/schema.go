package db

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS participants (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	external_id     TEXT NOT NULL UNIQUE,
	category        TEXT NOT NULL DEFAULT '',
	employment_type TEXT NOT NULL DEFAULT '',
	is_winner       BOOLEAN NOT NULL DEFAULT FALSE,
	checked_in      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS prizes (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	initial_quota INTEGER NOT NULL,
	current_quota INTEGER NOT NULL CHECK (current_quota >= 0),
	image_key     TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS winners (
	id             TEXT PRIMARY KEY,
	participant_id TEXT NOT NULL REFERENCES participants(id),
	prize_id       TEXT NOT NULL REFERENCES prizes(id),
	won_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

INSERT INTO settings (key, value) VALUES ('checkin_sequence', '0')
ON CONFLICT (key) DO NOTHING;
`

// Migrate creates the schema and seeds the check-in sequence counter row.
// Idempotent; run at startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply database schema: %w", err)
	}
	return nil
}
