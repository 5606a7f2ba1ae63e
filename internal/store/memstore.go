package store

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"lightcheck/internal/scenario"
)

// MemStore implements Store in memory. It backs tests and runs without a
// history database.
type MemStore struct {
	mu   sync.RWMutex
	runs map[string]scenario.Summary
}

func NewMemStore() *MemStore {
	return &MemStore{runs: map[string]scenario.Summary{}}
}

func (s *MemStore) SaveRun(sum scenario.Summary) error {
	if sum.RunID == "" {
		return fmt.Errorf("store: run id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sum.Results = slices.Clone(sum.Results)
	s.runs[sum.RunID] = sum
	return nil
}

func (s *MemStore) GetRun(runID string) (scenario.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.runs[runID]
	if !ok {
		return scenario.Summary{RunID: runID}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	sum.Results = slices.Clone(sum.Results)
	return sum, nil
}

// newestFirst orders runs by start time, then id, both descending.
func (s *MemStore) newestFirst() []scenario.Summary {
	out := make([]scenario.Summary, 0, len(s.runs))
	for _, sum := range s.runs {
		out = append(out, sum)
	}
	slices.SortFunc(out, func(a, b scenario.Summary) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(b.RunID, a.RunID)
	})
	return out
}

func (s *MemStore) ListRuns(limit int) ([]RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RunInfo
	for _, sum := range s.newestFirst() {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, infoOf(sum))
	}
	return out, nil
}

func (s *MemStore) ScenarioHistory(name string, limit int) ([]Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Outcome
	for _, sum := range s.newestFirst() {
		for _, r := range sum.Results {
			if limit > 0 && len(out) == limit {
				return out, nil
			}
			if strings.EqualFold(r.Name, name) {
				out = append(out, Outcome{RunID: sum.RunID, Result: r})
			}
		}
	}
	return out, nil
}

func (s *MemStore) Close() error { return nil }
