package interact

import (
	"time"

	"lightcheck/internal/driver/fakepage"
)

// fastTimeouts keeps every wait short enough for unit tests while leaving
// room for a few poll ticks.
func fastTimeouts() Timeouts {
	return Timeouts{
		PageLoad:          500 * time.Millisecond,
		Toast:             80 * time.Millisecond,
		Modal:             80 * time.Millisecond,
		Spinner:           80 * time.Millisecond,
		Probe:             40 * time.Millisecond,
		PromptProbe:       30 * time.Millisecond,
		RedirectPrimary:   60 * time.Millisecond,
		RedirectSecondary: 150 * time.Millisecond,
		Settle:            -1,
		Poll:              5 * time.Millisecond,
		Navigation:        80 * time.Millisecond,
		Action:            500 * time.Millisecond,
	}.WithDefaults()
}

func newTestWaiter(p *fakepage.Page) *Waiter {
	return NewWaiter(p, fastTimeouts(), nil)
}

func countOf(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}
