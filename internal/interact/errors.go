package interact

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyTarget is returned when a Target is built without candidates.
var ErrEmptyTarget = errors.New("interact: target has no candidates")

// NotFoundError means no candidate of a Target became visible in time.
type NotFoundError struct {
	Target     string
	Candidates []string
	// Results holds the last probe result per candidate, in probe order;
	// the fallback, when probed, comes last.
	Results []ProbeResult
	Timeout time.Duration
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "interact: no visible match for %q within %s per candidate; tried [%s]",
		e.Target, e.Timeout, strings.Join(e.Candidates, ", "))
	for _, r := range e.Results {
		if r.State == ProbeErrored {
			fmt.Fprintf(&b, "; %s probe error: %v", r.Locator, r.Err)
		}
	}
	return b.String()
}

// SpinnerTimeoutError means loading indicators were still rendered when the
// wait gave up. The layer itself treats this as non-fatal.
type SpinnerTimeoutError struct {
	Selectors []string
	Timeout   time.Duration
	// Err is the last probe error, if the final check failed outright.
	Err error
}

func (e *SpinnerTimeoutError) Error() string {
	msg := fmt.Sprintf("interact: spinners [%s] still visible after %s", strings.Join(e.Selectors, ", "), e.Timeout)
	if e.Err != nil {
		msg += fmt.Sprintf(" (last probe error: %v)", e.Err)
	}
	return msg
}

func (e *SpinnerTimeoutError) Unwrap() error { return e.Err }

// ToastTimeoutError means no toast container became visible in time. A toast
// that vanished before observation began ends up here too.
type ToastTimeoutError struct {
	Expected   string
	Candidates []string
	Timeout    time.Duration
}

func (e *ToastTimeoutError) Error() string {
	return fmt.Sprintf("interact: no toast [%s] visible within %s (expected text %q)",
		strings.Join(e.Candidates, ", "), e.Timeout, e.Expected)
}

// ToastMismatchError means a toast appeared with the wrong text or type.
type ToastMismatchError struct {
	Expected string
	Actual   string
	WantType ToastType
	GotType  ToastType
	Classes  string
}

func (e *ToastMismatchError) Error() string {
	if e.WantType != "" && e.WantType != e.GotType {
		return fmt.Sprintf("interact: toast type %s, want %s (classes %q, text %q)",
			e.GotType, e.WantType, e.Classes, e.Actual)
	}
	return fmt.Sprintf("interact: toast text %q does not contain %q", e.Actual, e.Expected)
}

// NavigationTimeoutError means the page never reached the expected URL.
type NavigationTimeoutError struct {
	Pattern string
	LastURL string
	Timeout time.Duration
	Err     error
}

func (e *NavigationTimeoutError) Error() string {
	msg := fmt.Sprintf("interact: url did not match %s within %s (last url %q)", e.Pattern, e.Timeout, e.LastURL)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *NavigationTimeoutError) Unwrap() error { return e.Err }

// AuthenticationError covers missing credentials and logins that never
// reached the authenticated area.
type AuthenticationError struct {
	Reason string
	// Missing lists configuration keys that were required but empty.
	Missing []string
	State   SessionState
	LastURL string
	Err     error
}

func (e *AuthenticationError) Error() string {
	var b strings.Builder
	b.WriteString("interact: authentication failed: ")
	b.WriteString(e.Reason)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, " (missing %s)", strings.Join(e.Missing, ", "))
	}
	if e.LastURL != "" {
		fmt.Fprintf(&b, " (last url %q)", e.LastURL)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// conditionTimeout is returned by Waiter.Until when a condition never held.
type conditionTimeout struct {
	name    string
	timeout time.Duration
	lastErr error
}

func (e *conditionTimeout) Error() string {
	msg := fmt.Sprintf("interact: %s not satisfied within %s", e.name, e.timeout)
	if e.lastErr != nil {
		msg += fmt.Sprintf(": %v", e.lastErr)
	}
	return msg
}

func (e *conditionTimeout) Unwrap() error { return e.lastErr }

// IsTimeout reports whether err is a wait that ran out of time, as opposed
// to a context cancellation or a hard failure.
func IsTimeout(err error) bool {
	var ct *conditionTimeout
	return errors.As(err, &ct)
}
