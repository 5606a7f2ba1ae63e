// Package store keeps the history of scenario runs so flaky scenarios and
// old reports can be looked up after the artifact directory is gone.
package store

import (
	"errors"
	"time"

	"lightcheck/internal/scenario"
)

// DefaultDBName is the history database file inside the output directory.
const DefaultDBName = "lightcheck.db"

// ErrRunNotFound is returned by GetRun for an unknown run id.
var ErrRunNotFound = errors.New("store: run not found")

// RunInfo is one row of the run list.
type RunInfo struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Passed    int
	Failed    int
	Skipped   int
}

// Outcome is one scenario result with the run it belongs to.
type Outcome struct {
	RunID string
	scenario.Result
}

// Store is the persistence facade for run history. Implementations are
// SQLite (SqlStore) and in-memory (MemStore).
type Store interface {
	// SaveRun stores sum, replacing an earlier run with the same id.
	SaveRun(sum scenario.Summary) error
	GetRun(runID string) (scenario.Summary, error)
	// ListRuns returns the newest runs first; limit <= 0 means all.
	ListRuns(limit int) ([]RunInfo, error)
	// ScenarioHistory returns the newest outcomes of one scenario first.
	ScenarioHistory(name string, limit int) ([]Outcome, error)
	Close() error
}

func infoOf(sum scenario.Summary) RunInfo {
	p, f, s := sum.Counts()
	return RunInfo{RunID: sum.RunID, StartedAt: sum.StartedAt, Duration: sum.Duration, Passed: p, Failed: f, Skipped: s}
}
