package interact

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"lightcheck/internal/driver"
	"lightcheck/internal/driver/fakepage"
)

const (
	loginURL = "https://login.example.test/?ec=302"
	homeURL  = "https://x.lightning.force.com/lightning/page/home"
)

func newHandler(p *fakepage.Page) *InterstitialHandler {
	return NewInterstitialHandler(p, newTestWaiter(p), nil, fastTimeouts())
}

func states(ts []Transition) []InterstitialState {
	out := make([]InterstitialState, 0, len(ts)*2)
	for _, t := range ts {
		out = append(out, t.From, t.To)
	}
	return out
}

func TestInterstitial_DirectRedirect(t *testing.T) {
	p := fakepage.New(homeURL)
	h := newHandler(p)

	if err := h.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.State() != Resolved || h.SessionState() != Authenticated {
		t.Errorf("state %s / %s", h.State(), h.SessionState())
	}
	if len(p.Clicks()) != 0 {
		t.Errorf("clicked %v without an interstitial", p.Clicks())
	}
	if diff := cmp.Diff([]InterstitialState{AwaitingRedirect, Resolved}, states(h.Transitions())); diff != "" {
		t.Errorf("transitions (-want +got):\n%s", diff)
	}
}

func TestInterstitial_SkipButton(t *testing.T) {
	skip := ButtonNamed("skip")
	p := fakepage.New(loginURL).Show(skip)
	p.OnClick(skip, func(p *fakepage.Page) { p.SetURL(homeURL) })
	h := newHandler(p)

	if err := h.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.State() != Resolved {
		t.Errorf("state = %s, want resolved", h.State())
	}
	if diff := cmp.Diff([]string{skip.String()}, p.Clicks()); diff != "" {
		t.Errorf("clicks (-want +got):\n%s", diff)
	}
	if h.Clicked() != skip.String() {
		t.Errorf("Clicked = %q", h.Clicked())
	}
	want := []InterstitialState{AwaitingRedirect, ProbingInterstitial, ProbingInterstitial, Resolved}
	if diff := cmp.Diff(want, states(h.Transitions())); diff != "" {
		t.Errorf("transitions (-want +got):\n%s", diff)
	}
}

func TestInterstitial_ClicksOnlyFirstVisiblePrompt(t *testing.T) {
	remind := driver.Text("Remind Me Later")
	skip := ButtonNamed("skip")
	p := fakepage.New(loginURL).Show(remind).Show(skip)
	p.OnClick(remind, func(p *fakepage.Page) { p.SetURL(homeURL) })
	h := newHandler(p)

	if err := h.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff([]string{remind.String()}, p.Clicks()); diff != "" {
		t.Errorf("clicks (-want +got):\n%s", diff)
	}
}

func TestInterstitial_Failed(t *testing.T) {
	p := fakepage.New(loginURL)
	h := newHandler(p)

	err := h.Resolve(context.Background())
	var ae *AuthenticationError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *AuthenticationError", err)
	}
	if ae.State != AuthenticationFailed || ae.LastURL != loginURL {
		t.Errorf("got %+v", ae)
	}
	var nav *NavigationTimeoutError
	if !errors.As(err, &nav) {
		t.Errorf("err = %v, want it to wrap the navigation timeout", err)
	}
	if h.State() != Failed || h.SessionState() != AuthenticationFailed {
		t.Errorf("state %s / %s", h.State(), h.SessionState())
	}
	last := h.Transitions()[len(h.Transitions())-1]
	if diff := cmp.Diff(Transition{From: ProbingInterstitial, To: Failed}, last, cmpopts.IgnoreFields(Transition{}, "At", "Detail")); diff != "" {
		t.Errorf("last transition (-want +got):\n%s", diff)
	}
}

func TestInterstitial_ProbeErrorIsNotFatal(t *testing.T) {
	remind := driver.Text("Remind Me Later")
	skip := ButtonNamed("skip")
	p := fakepage.New(loginURL).FailVisible(remind, errors.New("frame detached")).Show(skip)
	p.OnClick(skip, func(p *fakepage.Page) { p.SetURL(homeURL) })
	h := newHandler(p)

	if err := h.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.Clicked() != skip.String() {
		t.Errorf("Clicked = %q", h.Clicked())
	}
}
