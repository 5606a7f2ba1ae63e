package store

// schemaVersionV1 is the current schema.
const schemaVersionV1 = 1

var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	duration_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	run_id      TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	title       TEXT NOT NULL,
	tags        TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TEXT,
	duration_ns INTEGER NOT NULL,
	error       TEXT,
	error_kind  TEXT,
	record_id   TEXT,
	session     TEXT,
	screenshots TEXT NOT NULL,
	notes       TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_results_name ON results(name);
`
