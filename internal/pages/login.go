package pages

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"lightcheck/internal/catalog"
	"lightcheck/internal/driver"
	"lightcheck/internal/interact"
)

// LoginPage signs in through the classic login form.
type LoginPage struct {
	*interact.Kit
	url      string
	username interact.Target
	password interact.Target
	submit   interact.Target
	errorBox interact.Target
	navBar   interact.Target
	prompts  []driver.Locator

	mu      sync.Mutex
	state   interact.SessionState
	handler *interact.InterstitialHandler
}

// NewLoginPage builds the page. An empty loginURL uses the catalog's.
func NewLoginPage(kit *interact.Kit, cat *catalog.Catalog, loginURL string) (*LoginPage, error) {
	if loginURL == "" {
		loginURL = cat.Login.URL
	}
	p := &LoginPage{Kit: kit, url: strings.TrimRight(loginURL, "/")}
	for _, b := range []struct {
		dst  *interact.Target
		sel  catalog.Selectors
		name string
	}{
		{&p.username, cat.Login.Username, "username"},
		{&p.password, cat.Login.Password, "password"},
		{&p.submit, cat.Login.Submit, "log in button"},
		{&p.errorBox, cat.Login.Error, "login error"},
		{&p.navBar, cat.Lightning.NavBar, "navigation bar"},
	} {
		t, err := b.sel.Target(b.name)
		if err != nil {
			return nil, err
		}
		*b.dst = t
	}
	return p, nil
}

// WithPrompts replaces the interstitial prompts probed after login.
func (p *LoginPage) WithPrompts(prompts []driver.Locator) *LoginPage {
	p.prompts = prompts
	return p
}

// Goto opens the login form.
func (p *LoginPage) Goto(ctx context.Context) error {
	nctx, cancel := context.WithTimeout(ctx, p.Timeouts.PageLoad)
	defer cancel()
	if err := p.Page.Navigate(nctx, p.url); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	return nil
}

// Submit enters credentials and presses the login button without waiting
// for the outcome.
func (p *LoginPage) Submit(ctx context.Context, username, password string) error {
	if err := p.FillField(ctx, p.username, username); err != nil {
		return err
	}
	if err := p.FillField(ctx, p.password, password); err != nil {
		return err
	}
	return p.Click(ctx, p.submit)
}

// Login signs in and waits until the Lightning app is ready, clicking
// through a known interstitial if the redirect stalls. Missing credentials
// and redirects that never arrive are *interact.AuthenticationError.
func (p *LoginPage) Login(ctx context.Context, username, password string) error {
	var missing []string
	if username == "" {
		missing = append(missing, "SF_USERNAME")
	}
	if password == "" {
		missing = append(missing, "SF_PASSWORD")
	}
	if len(missing) > 0 {
		p.setState(interact.AuthenticationFailed)
		return &interact.AuthenticationError{
			Reason:  "credentials not configured",
			Missing: missing,
			State:   interact.AuthenticationFailed,
		}
	}

	p.setState(interact.Unauthenticated)
	if err := p.Goto(ctx); err != nil {
		return err
	}
	if err := p.Submit(ctx, username, password); err != nil {
		return err
	}

	h := p.Interstitials(p.prompts)
	p.mu.Lock()
	p.handler = h
	p.mu.Unlock()
	if err := h.Resolve(ctx); err != nil {
		return err
	}
	return p.WaitForPageReady(ctx)
}

// State reports the session's login state.
func (p *LoginPage) State() interact.SessionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handler != nil {
		return p.handler.SessionState()
	}
	return p.state
}

// Transitions returns the post-login state changes of the last Login.
func (p *LoginPage) Transitions() []interact.Transition {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.Transitions()
}

func (p *LoginPage) setState(s interact.SessionState) {
	p.mu.Lock()
	p.state = s
	p.handler = nil
	p.mu.Unlock()
}

// WaitForNavBar checks that the global navigation rendered.
func (p *LoginPage) WaitForNavBar(ctx context.Context) error {
	if _, err := p.Resolver.Resolve(ctx, p.navBar, p.Timeouts.RedirectSecondary); err != nil {
		return fmt.Errorf("lightning navigation bar: %w", err)
	}
	return nil
}

// LoginError waits for the login form's error message and returns its text.
func (p *LoginPage) LoginError(ctx context.Context) (string, error) {
	h, err := p.Resolver.Resolve(ctx, p.errorBox, p.Timeouts.Toast)
	if err != nil {
		return "", err
	}
	text, err := h.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
