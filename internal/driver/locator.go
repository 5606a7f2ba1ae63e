package driver

import (
	"fmt"
	"regexp"
	"strings"
)

// Strategy selects how a Locator finds its element.
type Strategy int

const (
	ByCSS Strategy = iota
	ByRole
	ByText
)

func (s Strategy) String() string {
	switch s {
	case ByCSS:
		return "css"
	case ByRole:
		return "role"
	case ByText:
		return "text"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Locator describes one way of finding an element on the page. Backends
// always act on the first match in document order.
type Locator struct {
	Strategy Strategy
	// Value is the CSS selector, the ARIA role, or the visible text.
	Value string
	// Name filters role locators by accessible name. Nil matches any name.
	Name *regexp.Regexp
}

// CSS locates by CSS selector.
func CSS(selector string) Locator {
	return Locator{Strategy: ByCSS, Value: strings.TrimSpace(selector)}
}

// Role locates by ARIA role, optionally filtered by an accessible-name pattern.
func Role(role string, name *regexp.Regexp) Locator {
	return Locator{Strategy: ByRole, Value: role, Name: name}
}

// Text locates the innermost element whose trimmed text contains s.
func Text(s string) Locator {
	return Locator{Strategy: ByText, Value: s}
}

// String renders the locator the way it shows up in logs and errors,
// e.g. css=input[name='Company'] or role=button[name=/(?i)new/].
func (l Locator) String() string {
	switch l.Strategy {
	case ByRole:
		if l.Name == nil {
			return "role=" + l.Value
		}
		return fmt.Sprintf("role=%s[name=/%s/]", l.Value, l.Name.String())
	case ByText:
		return fmt.Sprintf("text=%q", l.Value)
	}
	return "css=" + l.Value
}

// JSPattern splits a Go name pattern into a JavaScript RegExp source and
// flag string. Only the leading (?i) inline flag is translated.
func JSPattern(re *regexp.Regexp) (source, flags string) {
	if re == nil {
		return "", ""
	}
	source = re.String()
	if strings.HasPrefix(source, "(?i)") {
		return strings.TrimPrefix(source, "(?i)"), "i"
	}
	return source, ""
}
