package interact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"lightcheck/internal/driver"
	"lightcheck/internal/logging"
)

// DefaultSpinnerSelectors are the Lightning loading-indicator markers.
var DefaultSpinnerSelectors = []string{
	"div.slds-spinner_container",
	"div.slds-spinner",
	"lightning-spinner",
}

// Condition is a side-effect-free predicate over page state, polled until it
// holds or Timeout elapses. Check must be safe to call any number of times.
type Condition struct {
	Name    string
	Timeout time.Duration
	Check   func(ctx context.Context) (bool, error)
}

// Waiter decides when the page is stable enough to interact with.
type Waiter struct {
	page     driver.Page
	timeouts Timeouts
	spinners []string
	log      *slog.Logger
}

// NewWaiter returns a Waiter for page. A nil spinners list uses
// DefaultSpinnerSelectors.
func NewWaiter(page driver.Page, timeouts Timeouts, spinners []string) *Waiter {
	if len(spinners) == 0 {
		spinners = DefaultSpinnerSelectors
	}
	return &Waiter{
		page:     page,
		timeouts: timeouts,
		spinners: append([]string(nil), spinners...),
		log:      logging.New("wait"),
	}
}

// Until polls c until it holds. It checks once immediately, then every poll
// interval. On expiry it returns an error for which IsTimeout is true,
// wrapping the last check error. If ctx ends first, ctx.Err() is returned.
func (w *Waiter) Until(ctx context.Context, c Condition) error {
	pctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	interval := w.timeouts.Poll
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := c.Check(pctx)
		if err == nil && ok {
			return nil
		}
		lastErr = err
		select {
		case <-pctx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(lastErr, context.DeadlineExceeded) {
				lastErr = nil
			}
			return &conditionTimeout{name: c.Name, timeout: c.Timeout, lastErr: lastErr}
		case <-ticker.C:
		}
	}
}

// WaitForSpinners polls until no loading indicator is rendered. A page with
// no indicators at all is ready immediately. On expiry it returns a
// *SpinnerTimeoutError; whether that matters is up to the caller.
func (w *Waiter) WaitForSpinners(ctx context.Context, timeout time.Duration) error {
	err := w.Until(ctx, Condition{
		Name:    "spinners hidden",
		Timeout: timeout,
		Check: func(ctx context.Context) (bool, error) {
			return w.page.AllHidden(ctx, w.spinners)
		},
	})
	if err == nil || !IsTimeout(err) {
		return err
	}
	return &SpinnerTimeoutError{Selectors: w.spinners, Timeout: timeout, Err: errors.Unwrap(err)}
}

// SettleSpinners is the best-effort spinner wait every interaction uses:
// a timeout is logged and swallowed, since some transitions never show a
// spinner. Only a done context is returned.
func (w *Waiter) SettleSpinners(ctx context.Context) error {
	err := w.WaitForSpinners(ctx, w.timeouts.Spinner)
	var st *SpinnerTimeoutError
	if errors.As(err, &st) {
		w.log.Warn("spinners did not clear, continuing", "timeout", st.Timeout, "selectors", st.Selectors)
		return nil
	}
	return err
}

// WaitForPageReady waits for DOM content, then for spinners (best effort),
// then pauses for the settle delay.
func (w *Waiter) WaitForPageReady(ctx context.Context) error {
	dctx, cancel := context.WithTimeout(ctx, w.timeouts.PageLoad)
	err := w.page.WaitDOMContentLoaded(dctx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("wait for dom content (%s): %w", w.timeouts.PageLoad, err)
	}
	if err := w.SettleSpinners(ctx); err != nil {
		return err
	}
	return sleep(ctx, w.timeouts.Settle)
}

// WaitForURL polls the page URL until it matches pattern. It returns the
// last URL observed either way; on expiry the error is a
// *NavigationTimeoutError.
func (w *Waiter) WaitForURL(ctx context.Context, pattern *regexp.Regexp, timeout time.Duration) (string, error) {
	var last string
	err := w.Until(ctx, Condition{
		Name:    "url matches " + pattern.String(),
		Timeout: timeout,
		Check: func(ctx context.Context) (bool, error) {
			u, err := w.page.URL(ctx)
			if err != nil {
				return false, err
			}
			last = u
			return pattern.MatchString(u), nil
		},
	})
	if err != nil && IsTimeout(err) {
		return last, &NavigationTimeoutError{Pattern: pattern.String(), LastURL: last, Timeout: timeout, Err: errors.Unwrap(err)}
	}
	return last, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
