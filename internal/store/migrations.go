package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create sessions and turns",
		SQL: `
			CREATE TABLE sessions (
				id          TEXT PRIMARY KEY,
				identity    TEXT NOT NULL,
				title       TEXT NOT NULL,
				pinned      INTEGER NOT NULL DEFAULT 0,
				created_at  TEXT NOT NULL,
				updated_at  TEXT NOT NULL
			);

			CREATE INDEX idx_sessions_identity ON sessions (identity, updated_at DESC);

			CREATE TABLE turns (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				role        TEXT NOT NULL,
				kind        TEXT NOT NULL,
				content     TEXT NOT NULL,
				created_at  TEXT NOT NULL
			);

			CREATE INDEX idx_turns_session ON turns (session_id, id);
		`,
	},
	{
		Version: 2,
		Name:    "create users",
		SQL: `
			CREATE TABLE users (
				email         TEXT PRIMARY KEY,
				password_hash TEXT NOT NULL DEFAULT '',
				google_id     TEXT NOT NULL DEFAULT '',
				created_at    TEXT NOT NULL
			);

			CREATE INDEX idx_users_google ON users (google_id) WHERE google_id != '';
		`,
	},
}
