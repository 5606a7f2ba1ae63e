package interact

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"lightcheck/internal/driver"
	"lightcheck/internal/logging"
)

// AuthenticatedPattern matches any URL inside the Lightning app.
var AuthenticatedPattern = regexp.MustCompile(`(?i)lightning`)

// DefaultPrompts are the known optional post-login screens, in probe order:
// the phone-registration reminder and a setup wizard's skip button.
func DefaultPrompts() []driver.Locator {
	return []driver.Locator{
		driver.Text("Remind Me Later"),
		ButtonNamed("skip"),
	}
}

// SessionState is whether the browsing session is logged in.
type SessionState int

const (
	Unauthenticated SessionState = iota
	InterstitialPending
	Authenticated
	AuthenticationFailed
)

func (s SessionState) String() string {
	switch s {
	case InterstitialPending:
		return "interstitial-pending"
	case Authenticated:
		return "authenticated"
	case AuthenticationFailed:
		return "authentication-failed"
	}
	return "unauthenticated"
}

// InterstitialState is a step of the post-login state machine.
type InterstitialState int

const (
	AwaitingRedirect InterstitialState = iota
	ProbingInterstitial
	Resolved
	Failed
)

func (s InterstitialState) String() string {
	switch s {
	case ProbingInterstitial:
		return "probing-interstitial"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return "awaiting-redirect"
}

// Transition is one recorded state change.
type Transition struct {
	From   InterstitialState `json:"from"`
	To     InterstitialState `json:"to"`
	At     time.Time         `json:"at"`
	Detail string            `json:"detail,omitempty"`
}

// InterstitialHandler waits for the post-login redirect and, if it stalls,
// clicks through the first known optional prompt before waiting again.
// Which prompts appear depends on org configuration, so none is assumed.
type InterstitialHandler struct {
	page     driver.Page
	waiter   *Waiter
	resolver *Resolver
	prompts  []driver.Locator
	pattern  *regexp.Regexp
	timeouts Timeouts
	log      *slog.Logger

	mu          sync.Mutex
	state       InterstitialState
	transitions []Transition
	clicked     string
}

// NewInterstitialHandler builds a handler. A nil prompts list uses
// DefaultPrompts.
func NewInterstitialHandler(page driver.Page, waiter *Waiter, prompts []driver.Locator, timeouts Timeouts) *InterstitialHandler {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	return &InterstitialHandler{
		page:     page,
		waiter:   waiter,
		resolver: NewResolver(page, waiter),
		prompts:  append([]driver.Locator(nil), prompts...),
		pattern:  AuthenticatedPattern,
		timeouts: timeouts,
		log:      logging.New("interstitial"),
	}
}

// Resolve runs the state machine to Resolved or Failed. Failure is an
// *AuthenticationError.
func (h *InterstitialHandler) Resolve(ctx context.Context) error {
	if _, err := h.waiter.WaitForURL(ctx, h.pattern, h.timeouts.RedirectPrimary); err == nil {
		h.moveTo(Resolved, "redirected")
		return nil
	} else if !isNavTimeout(err) {
		return h.fail(ctx, "redirect wait aborted", err)
	}

	h.moveTo(ProbingInterstitial, fmt.Sprintf("no redirect within %s", h.timeouts.RedirectPrimary))
	if err := h.clickFirstPrompt(ctx); err != nil {
		return h.fail(ctx, "interstitial prompt", err)
	}

	if _, err := h.waiter.WaitForURL(ctx, h.pattern, h.timeouts.RedirectSecondary); err != nil {
		return h.fail(ctx, fmt.Sprintf("no redirect within %s after interstitial handling", h.timeouts.RedirectSecondary), err)
	}
	h.moveTo(Resolved, "redirected after interstitial")
	return nil
}

// clickFirstPrompt clicks the first prompt seen within the per-prompt probe.
// Seeing none is not an error.
func (h *InterstitialHandler) clickFirstPrompt(ctx context.Context) error {
	for _, loc := range h.prompts {
		res := h.resolver.Probe(ctx, loc, h.timeouts.PromptProbe)
		if err := ctx.Err(); err != nil {
			return err
		}
		switch res.State {
		case ProbeVisible:
			if err := h.page.Click(ctx, loc); err != nil {
				return fmt.Errorf("click %s: %w", loc, err)
			}
			h.mu.Lock()
			h.clicked = loc.String()
			h.mu.Unlock()
			h.log.Info("interstitial dismissed", "prompt", loc.String())
			return nil
		case ProbeErrored:
			h.log.Debug("prompt probe failed", "prompt", loc.String(), "error", res.Err)
		}
	}
	h.log.Info("no known interstitial found")
	return nil
}

func (h *InterstitialHandler) fail(ctx context.Context, reason string, err error) error {
	h.moveTo(Failed, reason)
	last, _ := h.page.URL(ctx)
	return &AuthenticationError{Reason: reason, State: AuthenticationFailed, LastURL: last, Err: err}
}

func (h *InterstitialHandler) moveTo(to InterstitialState, detail string) {
	h.mu.Lock()
	from := h.state
	h.state = to
	h.transitions = append(h.transitions, Transition{From: from, To: to, At: time.Now(), Detail: detail})
	h.mu.Unlock()
	h.log.Info("state change", "from", from.String(), "to", to.String(), "detail", detail)
}

// State is the current machine state.
func (h *InterstitialHandler) State() InterstitialState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// SessionState maps the machine state onto the session's login state.
func (h *InterstitialHandler) SessionState() SessionState {
	switch h.State() {
	case ProbingInterstitial:
		return InterstitialPending
	case Resolved:
		return Authenticated
	case Failed:
		return AuthenticationFailed
	}
	return Unauthenticated
}

// Transitions returns the recorded state changes.
func (h *InterstitialHandler) Transitions() []Transition {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Transition(nil), h.transitions...)
}

// Clicked names the prompt that was clicked, or "" if none was.
func (h *InterstitialHandler) Clicked() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clicked
}

func isNavTimeout(err error) bool {
	_, ok := err.(*NavigationTimeoutError)
	return ok
}
