package store

// Schema is the discovery database schema. Applied on every Open;
// statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY,
	base_url          TEXT NOT NULL,
	strategy          TEXT NOT NULL,
	status            TEXT NOT NULL,
	root_state        TEXT NOT NULL DEFAULT '',
	states            INTEGER NOT NULL DEFAULT 0,
	transitions       INTEGER NOT NULL DEFAULT 0,
	actions_attempted INTEGER NOT NULL DEFAULT 0,
	actions_failed    INTEGER NOT NULL DEFAULT 0,
	started_at        TEXT NOT NULL,
	finished_at       TEXT,
	error             TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

CREATE TABLE IF NOT EXISTS graphs (
	run_id           TEXT PRIMARY KEY REFERENCES runs(id) ON DELETE CASCADE,
	base_url         TEXT NOT NULL,
	document         TEXT NOT NULL,
	state_count      INTEGER NOT NULL,
	transition_count INTEGER NOT NULL,
	created_at       TEXT NOT NULL
);
`
