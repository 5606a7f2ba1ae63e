// Package scenario holds the named end-to-end checks and the runner that
// executes them one at a time against a shared org.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"lightcheck/internal/config"
	"lightcheck/internal/pages"
)

var (
	ErrUnknownScenario   = errors.New("scenario: unknown scenario")
	ErrDuplicateScenario = errors.New("scenario: duplicate name")
)

// Env is what a scenario body gets to work with.
type Env struct {
	*pages.Session
	Config *config.Config
	Now    func() time.Time
	Log    *slog.Logger

	mu       sync.Mutex
	recordID string
	shots    []string
	notes    map[string]string
}

// RecordCreated notes the id of a record the scenario created.
func (e *Env) RecordCreated(id string) {
	e.mu.Lock()
	e.recordID = id
	e.mu.Unlock()
}

// Note attaches a key/value pair to the scenario's result.
func (e *Env) Note(key, value string) {
	e.mu.Lock()
	if e.notes == nil {
		e.notes = map[string]string{}
	}
	e.notes[key] = value
	e.mu.Unlock()
}

// Screenshot captures the page into the run's artifacts.
func (e *Env) Screenshot(ctx context.Context, name string) {
	path, err := e.Kit.Screenshot(ctx, name)
	if err != nil {
		e.Log.Warn("screenshot failed", "name", name, "error", err)
		return
	}
	e.mu.Lock()
	e.shots = append(e.shots, path)
	e.mu.Unlock()
}

// Scenario is one named check.
type Scenario struct {
	Name  string   `json:"name"`
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
	// Auth logs in before Run is called.
	Auth bool                                      `json:"auth"`
	Run  func(ctx context.Context, env *Env) error `json:"-"`
}

// HasTag reports whether s carries tag, ignoring case and a leading @.
func (s Scenario) HasTag(tag string) bool {
	tag = strings.TrimPrefix(strings.ToLower(tag), "@")
	return slices.ContainsFunc(s.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
}

// Filter selects scenarios. Empty fields match everything; Names and Tags
// must both match when both are set.
type Filter struct {
	Names []string `json:"names,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// Registry is a name-indexed set of scenarios, listed in registration
// order.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Scenario
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Scenario{}}
}

// Register adds s.
func (r *Registry) Register(s Scenario) error {
	if s.Name == "" || s.Run == nil {
		return fmt.Errorf("scenario: %q needs a name and a body", s.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[s.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateScenario, s.Name)
	}
	r.byName[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

// MustRegister is Register for the built-in set.
func (r *Registry) MustRegister(ss ...Scenario) *Registry {
	for _, s := range ss {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Get looks a scenario up by name, ignoring case.
func (r *Registry) Get(name string) (Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.byName[name]; ok {
		return s, nil
	}
	for _, n := range r.order {
		if strings.EqualFold(n, name) {
			return r.byName[n], nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: %s (available: %s)", ErrUnknownScenario, name, strings.Join(r.order, ", "))
}

// List returns every scenario in registration order.
func (r *Registry) List() []Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scenario, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byName[n])
	}
	return out
}

// Tags returns every tag in use, sorted.
func (r *Registry) Tags() []string {
	seen := map[string]bool{}
	for _, s := range r.List() {
		for _, t := range s.Tags {
			seen[t] = true
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Select applies f. Naming an unknown scenario is an error; a tag nobody
// carries just selects nothing.
func (r *Registry) Select(f Filter) ([]Scenario, error) {
	var pool []Scenario
	if len(f.Names) > 0 {
		for _, n := range f.Names {
			s, err := r.Get(n)
			if err != nil {
				return nil, err
			}
			pool = append(pool, s)
		}
	} else {
		pool = r.List()
	}
	if len(f.Tags) == 0 {
		return pool, nil
	}
	var out []Scenario
	for _, s := range pool {
		if slices.ContainsFunc(f.Tags, s.HasTag) {
			out = append(out, s)
		}
	}
	return out, nil
}
