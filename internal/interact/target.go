package interact

import (
	"fmt"
	"regexp"

	"lightcheck/internal/driver"
)

// Target is an ordered, non-empty list of locators for one logical element.
// Earlier candidates are preferred. A Target is immutable; WithFallback
// returns a copy.
type Target struct {
	name       string
	candidates []driver.Locator
	fallback   *driver.Locator
}

// NewTarget builds a Target from locators in preference order.
func NewTarget(name string, candidates ...driver.Locator) (Target, error) {
	if len(candidates) == 0 {
		return Target{}, fmt.Errorf("%w: %s", ErrEmptyTarget, name)
	}
	return Target{name: name, candidates: append([]driver.Locator(nil), candidates...)}, nil
}

// CSSTarget builds a Target from CSS selectors in preference order.
func CSSTarget(name string, selectors ...string) (Target, error) {
	locs := make([]driver.Locator, 0, len(selectors))
	for _, s := range selectors {
		locs = append(locs, driver.CSS(s))
	}
	return NewTarget(name, locs...)
}

// MustCSSTarget is CSSTarget for selector lists known at compile time.
func MustCSSTarget(name string, selectors ...string) Target {
	t, err := CSSTarget(name, selectors...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Target) Name() string { return t.name }

// Candidates returns a copy of the candidate locators.
func (t Target) Candidates() []driver.Locator {
	return append([]driver.Locator(nil), t.candidates...)
}

// Fallback returns the generic last-resort locator, if any.
func (t Target) Fallback() (driver.Locator, bool) {
	if t.fallback == nil {
		return driver.Locator{}, false
	}
	return *t.fallback, true
}

// WithFallback returns a copy of t that tries loc after every candidate.
func (t Target) WithFallback(loc driver.Locator) Target {
	cp := Target{name: t.name, candidates: t.Candidates()}
	cp.fallback = &loc
	return cp
}

// Len is the number of explicit candidates.
func (t Target) Len() int { return len(t.candidates) }

// Strings renders candidates (and the fallback) for diagnostics.
func (t Target) Strings() []string {
	out := make([]string, 0, len(t.candidates)+1)
	for _, c := range t.candidates {
		out = append(out, c.String())
	}
	if t.fallback != nil {
		out = append(out, t.fallback.String())
	}
	return out
}

// ButtonNamed is the generic role-based fallback: a button whose accessible
// name matches pattern, case-insensitively.
func ButtonNamed(pattern string) driver.Locator {
	return driver.Role("button", regexp.MustCompile("(?i)"+pattern))
}

// OptionLocator finds a listbox option by its exact visible label.
func OptionLocator(label string) driver.Locator {
	return driver.Role("option", regexp.MustCompile(`^\s*`+regexp.QuoteMeta(label)+`\s*$`))
}

// HeadingMatching finds a heading whose name contains text, case-insensitively.
func HeadingMatching(text string) driver.Locator {
	return driver.Role("heading", regexp.MustCompile("(?i)"+regexp.QuoteMeta(text)))
}
