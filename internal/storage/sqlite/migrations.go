package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Circles must be created before the tables that reference them.
const schema = `
CREATE TABLE IF NOT EXISTS circles (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    target_participant_count INTEGER NOT NULL,
    round_number INTEGER NOT NULL,
    pot INTEGER NOT NULL,
    yield_pool INTEGER NOT NULL,
    current_recipient_id TEXT,
    pending_emergency_approvals INTEGER NOT NULL DEFAULT 0,
    emergency_requester_id TEXT,
    emergency_opened_at INTEGER,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
    circle_id TEXT NOT NULL,
    id TEXT NOT NULL,
    join_seq INTEGER NOT NULL,
    verified INTEGER NOT NULL DEFAULT 0,
    contribution INTEGER NOT NULL DEFAULT 0,
    yield_earned INTEGER NOT NULL DEFAULT 0,
    has_approved_emergency INTEGER NOT NULL DEFAULT 0,
    total_deposited INTEGER NOT NULL DEFAULT 0,
    times_recipient INTEGER NOT NULL DEFAULT 0,
    departed INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (circle_id, id),
    FOREIGN KEY (circle_id) REFERENCES circles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS effects (
    id TEXT PRIMARY KEY,
    circle_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    direction TEXT NOT NULL,
    amount INTEGER NOT NULL,
    fee INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    settled_at INTEGER,
    FOREIGN KEY (circle_id) REFERENCES circles(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_participants_circle_id ON participants(circle_id);
CREATE INDEX IF NOT EXISTS idx_effects_circle_id ON effects(circle_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
