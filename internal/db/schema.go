package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'viewer' CHECK (role IN ('admin', 'operator', 'viewer')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
    key               TEXT PRIMARY KEY,
    display_name      TEXT NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    ticket_multiplier INTEGER NOT NULL DEFAULT 1 CHECK (ticket_multiplier >= 1),
    active            INTEGER NOT NULL DEFAULT 1,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS inventory_codes (
    code                 TEXT PRIMARY KEY,
    model                TEXT NOT NULL DEFAULT 'Unknown',
    product_ref          TEXT,
    consumed             INTEGER NOT NULL DEFAULT 0,
    consumed_by_identity TEXT,
    consumed_at          DATETIME,
    import_batch_id      TEXT NOT NULL,
    imported_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS participants (
    id            TEXT PRIMARY KEY,
    full_name     TEXT NOT NULL,
    national_id   TEXT NOT NULL,
    city          TEXT NOT NULL,
    email         TEXT NOT NULL,
    phone         TEXT NOT NULL,
    product_model TEXT NOT NULL,
    serial        TEXT,
    evidence_path TEXT NOT NULL,
    ticket_ids    TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_serial
    ON participants(serial) WHERE serial IS NOT NULL;

CREATE TABLE IF NOT EXISTS tickets (
    id             TEXT PRIMARY KEY,
    participant_id TEXT NOT NULL REFERENCES participants(id),
    full_name      TEXT NOT NULL,
    national_id    TEXT NOT NULL,
    city           TEXT NOT NULL,
    phone          TEXT NOT NULL,
    product_model  TEXT NOT NULL,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tickets_participant ON tickets(participant_id);

CREATE TABLE IF NOT EXISTS winners (
    ticket_id      TEXT PRIMARY KEY REFERENCES tickets(id),
    participant_id TEXT NOT NULL REFERENCES participants(id),
    full_name      TEXT NOT NULL,
    national_id    TEXT NOT NULL,
    city           TEXT NOT NULL,
    email          TEXT NOT NULL,
    phone          TEXT NOT NULL,
    product_model  TEXT NOT NULL,
    serial         TEXT,
    drawn_at       DATETIME NOT NULL,
    drawn_by       TEXT NOT NULL,
    times_drawn    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS evidence (
    id          TEXT PRIMARY KEY,
    data        BLOB NOT NULL,
    mime        TEXT NOT NULL,
    uploaded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
