// Package db provides the local record store for the sync engine.
package db

// InitSchema creates all engine tables and indexes if they do not exist.
// The schema is fixed and owned by the engine; it is safe to call on
// every startup.
func (db *DB) InitSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS quiz_sessions (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		category         TEXT NOT NULL DEFAULT '',
		mode             TEXT NOT NULL DEFAULT '',
		total_questions  INTEGER NOT NULL DEFAULT 0,
		correct_answers  INTEGER NOT NULL DEFAULT 0,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		started_at       INTEGER NOT NULL,
		completed_at     INTEGER,
		needs_sync       INTEGER NOT NULL DEFAULT 1,
		last_modified    INTEGER NOT NULL,
		synced_at        INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_pending
		ON quiz_sessions(user_id, needs_sync, last_modified);

	CREATE TABLE IF NOT EXISTS quiz_results (
		id                 TEXT PRIMARY KEY,
		user_id            TEXT NOT NULL,
		question_id        TEXT NOT NULL,
		session_id         TEXT NOT NULL,
		answer             TEXT NOT NULL DEFAULT '',
		correct            INTEGER NOT NULL DEFAULT 0,
		time_spent_seconds INTEGER NOT NULL DEFAULT 0,
		answered_at        INTEGER NOT NULL,
		needs_sync         INTEGER NOT NULL DEFAULT 1,
		last_modified      INTEGER NOT NULL,
		synced_at          INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_results_pending
		ON quiz_results(user_id, needs_sync, last_modified);
	CREATE INDEX IF NOT EXISTS idx_results_session
		ON quiz_results(session_id);

	CREATE TABLE IF NOT EXISTS questions (
		id             TEXT PRIMARY KEY,
		category       TEXT NOT NULL DEFAULT '',
		prompt         TEXT NOT NULL,
		choices        TEXT NOT NULL DEFAULT '[]',
		correct_choice INTEGER NOT NULL DEFAULT 0,
		difficulty     INTEGER NOT NULL DEFAULT 0,
		position       INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_questions_category
		ON questions(category, position);

	CREATE TABLE IF NOT EXISTS content_versions (
		id             INTEGER PRIMARY KEY CHECK(id = 1),
		version        TEXT NOT NULL,
		fetched_at     INTEGER NOT NULL,
		question_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS engine_settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}
