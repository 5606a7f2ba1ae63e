package mcp

import (
	"context"
	"sync"
	"time"

	"lightcheck/internal/logging"
	"lightcheck/internal/scenario"
)

// RunState tracks the lifecycle of a background run.
type RunState string

const (
	StateRunning   RunState = "running"
	StateDone      RunState = "done"
	StateError     RunState = "error"
	StateCancelled RunState = "cancelled"
)

// Runner executes a selection of scenarios. *scenario.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, runID string, scenarios []scenario.Scenario) (scenario.Summary, error)
}

// Run is one run_scenarios call executing in the background.
type Run struct {
	ID        string
	Scenarios []string
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	state       RunState
	summary     *scenario.Summary
	resultsPath string
	err         error
}

// startRun launches runner in a goroutine detached from the tool call's
// context. persist, when set, is called with the finished summary.
func startRun(id string, runner Runner, ss []scenario.Scenario, persist func(scenario.Summary) (string, error)) *Run {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Run{
		ID:        id,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StateRunning,
	}
	for _, s := range ss {
		r.Scenarios = append(r.Scenarios, s.Name)
	}
	log := logging.New("mcp").With("run_id", id)
	go func() {
		defer close(r.done)
		defer cancel()
		sum, err := runner.Run(ctx, id, ss)
		var path string
		if err == nil && persist != nil {
			path, err = persist(sum)
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		switch {
		case err != nil && ctx.Err() != nil:
			r.state = StateCancelled
			r.err = err
		case err != nil:
			r.state = StateError
			r.err = err
		default:
			r.state = StateDone
			r.summary = &sum
			r.resultsPath = path
			if ctx.Err() != nil {
				r.state = StateCancelled
			}
		}
		log.Info("run ended", "state", r.state)
	}()
	return r
}

// Done is closed when the run ends.
func (r *Run) Done() <-chan struct{} { return r.done }

// Cancel stops the run; scenarios not yet started are skipped.
func (r *Run) Cancel() { r.cancel() }

// Snapshot returns the run's current state.
func (r *Run) Snapshot() (RunState, *scenario.Summary, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.summary, r.resultsPath, r.err
}
