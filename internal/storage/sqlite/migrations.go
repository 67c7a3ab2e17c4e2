package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// IMPORTANT: owners must be created before owned tables due to foreign
// key constraints (groups before members/events, events before subgroups,
// subgroups before presence records).
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('admin', 'member')),
    partner_id TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    UNIQUE (group_id, user_id),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS children (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    name TEXT NOT NULL,
    birth_date TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS child_parents (
    child_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    PRIMARY KEY (child_id, member_id),
    FOREIGN KEY (child_id) REFERENCES children(id) ON DELETE CASCADE,
    FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    name TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS event_features (
    event_id TEXT NOT NULL,
    feature TEXT NOT NULL,
    PRIMARY KEY (event_id, feature),
    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS subgroups (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL,
    name TEXT NOT NULL,
    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS subgroup_adults (
    subgroup_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (subgroup_id, member_id),
    FOREIGN KEY (subgroup_id) REFERENCES subgroups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS subgroup_children (
    subgroup_id TEXT NOT NULL,
    child_id TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (subgroup_id, child_id),
    FOREIGN KEY (subgroup_id) REFERENCES subgroups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS presence_records (
    subgroup_id TEXT NOT NULL,
    event_id TEXT NOT NULL,
    date TEXT NOT NULL,
    slot TEXT NOT NULL CHECK (slot IN ('lunch', 'dinner')),
    present INTEGER NOT NULL DEFAULT 0,
    headcount INTEGER NOT NULL DEFAULT 0,
    overridden INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (subgroup_id, date, slot),
    FOREIGN KEY (subgroup_id) REFERENCES subgroups(id) ON DELETE CASCADE,
    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS proposals (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL,
    url TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    image TEXT NOT NULL DEFAULT '',
    amount REAL NOT NULL,
    creator_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS votes (
    proposal_id TEXT NOT NULL,
    voter_id TEXT NOT NULL,
    value INTEGER NOT NULL CHECK (value IN (1, -1)),
    PRIMARY KEY (proposal_id, voter_id),
    FOREIGN KEY (proposal_id) REFERENCES proposals(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS allocation_settings (
    event_id TEXT PRIMARY KEY,
    adult_share REAL NOT NULL,
    child_share REAL NOT NULL,
    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS exchange_rounds (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    year INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (group_id, year),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS assignments (
    round_id TEXT NOT NULL,
    giver_id TEXT NOT NULL,
    receiver_id TEXT NOT NULL,
    PRIMARY KEY (round_id, giver_id),
    UNIQUE (round_id, receiver_id),
    FOREIGN KEY (round_id) REFERENCES exchange_rounds(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_members_group_id ON members(group_id);
CREATE INDEX IF NOT EXISTS idx_children_group_id ON children(group_id);
CREATE INDEX IF NOT EXISTS idx_events_group_id ON events(group_id);
CREATE INDEX IF NOT EXISTS idx_subgroups_event_id ON subgroups(event_id);
CREATE INDEX IF NOT EXISTS idx_presence_event_id ON presence_records(event_id);
CREATE INDEX IF NOT EXISTS idx_proposals_event_id ON proposals(event_id);
CREATE INDEX IF NOT EXISTS idx_subgroup_adults_member_id ON subgroup_adults(member_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
