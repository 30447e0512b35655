package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Child tables reference templates and cascade on delete.
const schema = `
CREATE TABLE IF NOT EXISTS templates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    rule_type TEXT NOT NULL,
    formula TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS template_participants (
    template_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    participant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    role TEXT NOT NULL,
    hours REAL,
    weight REAL,
    PRIMARY KEY (template_id, position),
    FOREIGN KEY (template_id) REFERENCES templates(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS role_weights (
    template_id TEXT NOT NULL,
    role TEXT NOT NULL,
    weight REAL NOT NULL,
    PRIMARY KEY (template_id, role),
    FOREIGN KEY (template_id) REFERENCES templates(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS off_the_top_rules (
    template_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    role TEXT NOT NULL,
    percentage REAL NOT NULL,
    PRIMARY KEY (template_id, position),
    FOREIGN KEY (template_id) REFERENCES templates(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS splits (
    id TEXT PRIMARY KEY,
    template_id TEXT NOT NULL,
    rule_type TEXT NOT NULL,
    pool REAL NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (template_id) REFERENCES templates(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS split_allocations (
    split_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    participant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    role TEXT NOT NULL,
    amount_cents INTEGER,
    PRIMARY KEY (split_id, position),
    FOREIGN KEY (split_id) REFERENCES splits(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS split_warnings (
    split_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    message TEXT NOT NULL,
    PRIMARY KEY (split_id, position),
    FOREIGN KEY (split_id) REFERENCES splits(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_template_participants_template_id ON template_participants(template_id);
CREATE INDEX IF NOT EXISTS idx_splits_template_id ON splits(template_id);
CREATE INDEX IF NOT EXISTS idx_split_allocations_split_id ON split_allocations(split_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
