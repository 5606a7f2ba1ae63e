// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output and Markdown reports.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

import "strings"

// --- Failure kinds ---

var errorKinds = map[string]string{
	"authentication":     "Authentication Failed",
	"not-found":          "Selector Not Found",
	"toast-mismatch":     "Unexpected Toast",
	"toast-timeout":      "Toast Not Shown",
	"navigation-timeout": "No Record Page",
	"spinner-timeout":    "Spinner Stuck",
	"cancelled":          "Cancelled",
	"error":              "Error",
}

// ErrorKind returns the human-readable name for a failure kind.
// Unknown kinds are returned as-is.
func ErrorKind(code string) string {
	if name, ok := errorKinds[code]; ok {
		return name
	}
	return code
}

// ErrorKindWithCode returns "Spinner Stuck (spinner-timeout)" format.
func ErrorKindWithCode(code string) string {
	if name, ok := errorKinds[code]; ok {
		return name + " (" + code + ")"
	}
	return code
}

// --- Session and interstitial states ---

var states = map[string]string{
	"unauthenticated":       "Signed Out",
	"interstitial-pending":  "Interstitial Pending",
	"authenticated":         "Signed In",
	"authentication-failed": "Sign-in Failed",
	"awaiting-redirect":     "Awaiting Redirect",
	"probing-interstitial":  "Probing Interstitial",
	"resolved":              "Resolved",
	"failed":                "Failed",
}

// State returns the human-readable name for a session or interstitial
// state code.
func State(code string) string {
	if name, ok := states[code]; ok {
		return name
	}
	return code
}

// StatePath renders a state sequence as "Awaiting Redirect → Resolved".
func StatePath(codes []string) string {
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = State(c)
	}
	return strings.Join(names, " → ")
}
