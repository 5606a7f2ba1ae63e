package interact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lightcheck/internal/driver"
	"lightcheck/internal/logging"
)

// ProbeState is the outcome of one visibility probe.
type ProbeState int

const (
	ProbeNotVisible ProbeState = iota
	ProbeVisible
	// ProbeErrored means the last check failed outright, which is kept
	// apart from "not visible" so the cause survives into diagnostics.
	ProbeErrored
)

func (s ProbeState) String() string {
	switch s {
	case ProbeVisible:
		return "visible"
	case ProbeErrored:
		return "probe-error"
	}
	return "not-visible"
}

// ProbeResult records one candidate's probe.
type ProbeResult struct {
	Locator string
	State   ProbeState
	Err     error
}

// Handle is a resolved element. Click and Fill are the only operations in the
// layer that change page state.
type Handle struct {
	page    driver.Page
	Locator driver.Locator
	// Index is the candidate position that matched, or -1 for the fallback.
	Index  int
	Target string
}

func (h Handle) Click(ctx context.Context) error {
	if err := h.page.Click(ctx, h.Locator); err != nil {
		return fmt.Errorf("click %s (%s): %w", h.Target, h.Locator, err)
	}
	return nil
}

func (h Handle) Fill(ctx context.Context, value string) error {
	if err := h.page.Fill(ctx, h.Locator, value); err != nil {
		return fmt.Errorf("fill %s (%s): %w", h.Target, h.Locator, err)
	}
	return nil
}

func (h Handle) Text(ctx context.Context) (string, error) {
	return h.page.Text(ctx, h.Locator)
}

// Resolver finds the first visible candidate of a Target.
type Resolver struct {
	page   driver.Page
	waiter *Waiter
	log    *slog.Logger
}

// NewResolver returns a Resolver that probes through waiter's poll loop.
func NewResolver(page driver.Page, waiter *Waiter) *Resolver {
	return &Resolver{page: page, waiter: waiter, log: logging.New("resolver")}
}

// Resolve probes candidates in order, each for up to probeTimeout, and
// returns the first visible one without touching later candidates. When all
// candidates fail, the Target's fallback is probed once more. If nothing
// matches, the error is a *NotFoundError naming every locator tried.
func (r *Resolver) Resolve(ctx context.Context, t Target, probeTimeout time.Duration) (Handle, error) {
	if t.Len() == 0 {
		return Handle{}, fmt.Errorf("%w: %s", ErrEmptyTarget, t.Name())
	}
	results := make([]ProbeResult, 0, t.Len()+1)
	for i, loc := range t.candidates {
		res := r.Probe(ctx, loc, probeTimeout)
		if err := ctx.Err(); err != nil {
			return Handle{}, err
		}
		results = append(results, res)
		if res.State == ProbeVisible {
			r.log.Debug("resolved", "target", t.Name(), "candidate", i, "locator", loc.String())
			return Handle{page: r.page, Locator: loc, Index: i, Target: t.Name()}, nil
		}
	}
	if fb, ok := t.Fallback(); ok {
		res := r.Probe(ctx, fb, probeTimeout)
		if err := ctx.Err(); err != nil {
			return Handle{}, err
		}
		results = append(results, res)
		if res.State == ProbeVisible {
			r.log.Info("resolved via fallback", "target", t.Name(), "locator", fb.String())
			return Handle{page: r.page, Locator: fb, Index: -1, Target: t.Name()}, nil
		}
	}
	return Handle{}, &NotFoundError{
		Target:     t.Name(),
		Candidates: t.Strings(),
		Results:    results,
		Timeout:    probeTimeout,
	}
}

// Probe polls loc's visibility for up to timeout.
func (r *Resolver) Probe(ctx context.Context, loc driver.Locator, timeout time.Duration) ProbeResult {
	err := r.waiter.Until(ctx, Condition{
		Name:    "visible " + loc.String(),
		Timeout: timeout,
		Check: func(ctx context.Context) (bool, error) {
			return r.page.Visible(ctx, loc)
		},
	})
	res := ProbeResult{Locator: loc.String()}
	switch {
	case err == nil:
		res.State = ProbeVisible
	case IsTimeout(err):
		if cause := unwrapCause(err); cause != nil {
			res.State = ProbeErrored
			res.Err = cause
		}
	default:
		res.State = ProbeErrored
		res.Err = err
	}
	return res
}

func unwrapCause(err error) error {
	if ct, ok := err.(*conditionTimeout); ok {
		return ct.lastErr
	}
	return nil
}
