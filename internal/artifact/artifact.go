// Package artifact stores run outputs (screenshots, reports) under one
// run-scoped directory.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Sanitize makes name safe to use as a file name.
func Sanitize(name string) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_.")
	if s == "" {
		return "unnamed"
	}
	return s
}

// Dir is one run's output directory. Safe for concurrent use.
type Dir struct {
	root string

	mu    sync.Mutex
	taken map[string]bool
}

// New creates <base>/<runID>.
func New(base, runID string) (*Dir, error) {
	root := filepath.Join(base, Sanitize(runID))
	if err := os.MkdirAll(filepath.Join(root, "screenshots"), 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Dir{root: root, taken: map[string]bool{}}, nil
}

// Path is the run directory.
func (d *Dir) Path() string { return d.root }

// Join returns a path inside the run directory.
func (d *Dir) Join(elem ...string) string {
	return filepath.Join(append([]string{d.root}, elem...)...)
}

// Save writes a PNG under screenshots/. Repeated names get a numeric suffix
// instead of overwriting.
func (d *Dir) Save(name string, png []byte) (string, error) {
	path := d.reserve(Sanitize(name))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

// WriteFile writes data to name inside the run directory.
func (d *Dir) WriteFile(name string, data []byte) (string, error) {
	path := d.Join(Sanitize(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

func (d *Dir) reserve(base string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	name := base
	for i := 2; d.taken[name]; i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	d.taken[name] = true
	return d.Join("screenshots", name+".png")
}

// Prefixed stores screenshots under a per-scenario name prefix.
type Prefixed struct {
	Dir    *Dir
	Prefix string
}

// ForScenario scopes screenshots to one scenario.
func (d *Dir) ForScenario(scenario string) Prefixed {
	return Prefixed{Dir: d, Prefix: scenario}
}

func (p Prefixed) Save(name string, png []byte) (string, error) {
	return p.Dir.Save(p.Prefix+"__"+name, png)
}
