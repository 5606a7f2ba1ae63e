package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lightcheck/internal/scenario"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = schemaVersionV1

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory if it does not exist.
func Open(path string) (*SqlStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableCount == 0 {
		return s.freshInstall()
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.freshInstall()
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case v == currentSchemaVersion:
		return nil
	}
	return fmt.Errorf("unknown schema version %d", v)
}

func (s *SqlStore) freshInstall() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

func (s *SqlStore) SaveRun(sum scenario.Summary) error {
	if sum.RunID == "" {
		return errors.New("store: run id is required")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM results WHERE run_id = ?", sum.RunID); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO runs(run_id, started_at, duration_ns) VALUES(?, ?, ?)",
		sum.RunID, formatTime(sum.StartedAt), int64(sum.Duration),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i, r := range sum.Results {
		tags, _ := json.Marshal(r.Tags)
		shots, _ := json.Marshal(r.Screenshots)
		notes, _ := json.Marshal(r.Notes)
		if _, err := tx.Exec(
			`INSERT INTO results(run_id, position, name, title, tags, status, started_at, duration_ns,
				error, error_kind, record_id, session, screenshots, notes)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sum.RunID, i, r.Name, r.Title, string(tags), string(r.Status), formatTime(r.StartedAt), int64(r.Duration),
			r.Error, r.ErrorKind, r.RecordID, r.Session, string(shots), string(notes),
		); err != nil {
			return fmt.Errorf("insert result %s: %w", r.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", sum.RunID, err)
	}
	return nil
}

func (s *SqlStore) GetRun(runID string) (scenario.Summary, error) {
	sum := scenario.Summary{RunID: runID}
	var started sql.NullString
	var dur int64
	err := s.db.QueryRow("SELECT started_at, duration_ns FROM runs WHERE run_id = ?", runID).Scan(&started, &dur)
	if errors.Is(err, sql.ErrNoRows) {
		return sum, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return sum, fmt.Errorf("get run %s: %w", runID, err)
	}
	sum.StartedAt = parseTime(started)
	sum.Duration = time.Duration(dur)

	outs, err := s.queryOutcomes(`WHERE r.run_id = ? ORDER BY r.position`, runID)
	if err != nil {
		return sum, err
	}
	for _, o := range outs {
		sum.Results = append(sum.Results, o.Result)
	}
	return sum, nil
}

func (s *SqlStore) ListRuns(limit int) ([]RunInfo, error) {
	rows, err := s.db.Query(`
		SELECT u.run_id, u.started_at, u.duration_ns,
			COALESCE(SUM(r.status = 'passed'), 0),
			COALESCE(SUM(r.status = 'failed'), 0),
			COALESCE(SUM(r.status NOT IN ('passed', 'failed')), 0)
		FROM runs u LEFT JOIN results r ON r.run_id = u.run_id
		GROUP BY u.run_id
		ORDER BY u.started_at DESC, u.run_id DESC
		LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var (
			info    RunInfo
			started sql.NullString
			dur     int64
		)
		if err := rows.Scan(&info.RunID, &started, &dur, &info.Passed, &info.Failed, &info.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		info.StartedAt = parseTime(started)
		info.Duration = time.Duration(dur)
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SqlStore) ScenarioHistory(name string, limit int) ([]Outcome, error) {
	return s.queryOutcomes(`WHERE r.name = ? COLLATE NOCASE ORDER BY u.started_at DESC, u.run_id DESC LIMIT ?`, name, sqlLimit(limit))
}

func (s *SqlStore) queryOutcomes(where string, args ...any) ([]Outcome, error) {
	rows, err := s.db.Query(`
		SELECT r.run_id, r.name, r.title, r.tags, r.status, r.started_at, r.duration_ns,
			r.error, r.error_kind, r.record_id, r.session, r.screenshots, r.notes
		FROM results r JOIN runs u ON u.run_id = r.run_id `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var (
			o                                    Outcome
			status, tags, shots, notes           string
			started, errText, kind, record, sess sql.NullString
			dur                                  int64
		)
		if err := rows.Scan(&o.RunID, &o.Name, &o.Title, &tags, &status, &started, &dur,
			&errText, &kind, &record, &sess, &shots, &notes); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		o.Status = scenario.Status(status)
		o.StartedAt = parseTime(started)
		o.Duration = time.Duration(dur)
		o.Error, o.ErrorKind, o.RecordID, o.Session = nullStr(errText), nullStr(kind), nullStr(record), nullStr(sess)
		if err := unmarshalColumn(tags, &o.Tags); err != nil {
			return nil, err
		}
		if err := unmarshalColumn(shots, &o.Screenshots); err != nil {
			return nil, err
		}
		if err := unmarshalColumn(notes, &o.Notes); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func unmarshalColumn(data string, v any) error {
	if data == "" || data == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decode column: %w", err)
	}
	return nil
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}
