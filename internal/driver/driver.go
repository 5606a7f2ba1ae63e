// Package driver abstracts the browser backend behind a small Page contract.
// Backends live in sub-packages (cdpdriver, pwdriver) and register themselves
// with Register; fakepage provides an in-memory Page for tests.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownDriver is returned by Launch for an unregistered backend name.
var ErrUnknownDriver = errors.New("driver: unknown backend")

// ErrNoElement is returned by actions whose locator matches nothing.
var ErrNoElement = errors.New("driver: no element matches locator")

// Page is one browser tab. Every query is an instantaneous observation;
// waiting and polling belong to the caller.
type Page interface {
	// Navigate loads url and returns once the DOM content is loaded.
	Navigate(ctx context.Context, url string) error
	// WaitDOMContentLoaded blocks until document.readyState leaves "loading".
	WaitDOMContentLoaded(ctx context.Context) error
	URL(ctx context.Context) (string, error)

	// Visible reports whether the first element matching loc is rendered.
	// A locator that matches nothing is not visible and not an error.
	Visible(ctx context.Context, loc Locator) (bool, error)
	// AllHidden reports whether every element matching any of the selectors
	// is either absent or not rendered. No matches at all is true.
	AllHidden(ctx context.Context, selectors []string) (bool, error)

	Click(ctx context.Context, loc Locator) error
	// Fill focuses the element, clears it, then types value.
	Fill(ctx context.Context, loc Locator, value string) error
	Text(ctx context.Context, loc Locator) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, loc Locator, name string) (string, bool, error)

	// Screenshot returns a full-page PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Options configures a browser launch.
type Options struct {
	Headless          bool
	WindowWidth       int
	WindowHeight      int
	IgnoreHTTPSErrors bool
	// ExtraArgs are passed to the browser binary verbatim.
	ExtraArgs []string
	// ExecPath overrides the browser binary; empty means the backend default.
	ExecPath string
}

// DefaultOptions matches the run profile the suite is tuned for: headless
// Chromium at 1920x1080 with automation fingerprinting reduced.
func DefaultOptions() Options {
	return Options{
		Headless:          true,
		WindowWidth:       1920,
		WindowHeight:      1080,
		IgnoreHTTPSErrors: true,
		ExtraArgs:         []string{"--disable-blink-features=AutomationControlled"},
	}
}

// Browser owns a running browser process and hands out pages.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// LaunchFunc starts a backend.
type LaunchFunc func(ctx context.Context, opts Options) (Browser, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]LaunchFunc{}
)

// Register makes a backend available under name. Registering the same name
// twice panics.
func Register(name string, fn LaunchFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("driver: Register called twice for " + name)
	}
	registry[name] = fn
}

// Backends lists registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Launch starts the named backend.
func Launch(ctx context.Context, name string, opts Options) (Browser, error) {
	registryMu.RLock()
	fn, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %v)", ErrUnknownDriver, name, Backends())
	}
	b, err := fn(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", name, err)
	}
	return b, nil
}
