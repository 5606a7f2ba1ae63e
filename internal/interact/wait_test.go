package interact

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"lightcheck/internal/driver/fakepage"
)

func TestWaitForSpinners_NoneRendered(t *testing.T) {
	p := fakepage.New("")
	w := newTestWaiter(p)

	start := time.Now()
	if err := w.WaitForSpinners(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("WaitForSpinners: %v", err)
	}
	if el := time.Since(start); el > time.Second {
		t.Errorf("no spinners took %s", el)
	}
}

func TestWaitForSpinners_HiddenAfterDelay(t *testing.T) {
	p := fakepage.New("").SetSpinner("lightning-spinner", true)
	const delay = 60 * time.Millisecond
	p.After(delay, func(p *fakepage.Page) { p.SetSpinner("lightning-spinner", false) })
	defer p.Close()
	w := newTestWaiter(p)

	start := time.Now()
	if err := w.WaitForSpinners(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("WaitForSpinners: %v", err)
	}
	if el := time.Since(start); el < delay {
		t.Errorf("returned after %s, before the spinner hid at %s", el, delay)
	}
}

func TestWaitForSpinners_Timeout(t *testing.T) {
	p := fakepage.New("").SetSpinner("div.slds-spinner", true)
	w := newTestWaiter(p)

	err := w.WaitForSpinners(context.Background(), 30*time.Millisecond)
	var st *SpinnerTimeoutError
	if !errors.As(err, &st) {
		t.Fatalf("err = %v, want *SpinnerTimeoutError", err)
	}
	if st.Timeout != 30*time.Millisecond {
		t.Errorf("Timeout = %s", st.Timeout)
	}
}

func TestSettleSpinners_SwallowsTimeout(t *testing.T) {
	p := fakepage.New("").SetSpinner("div.slds-spinner", true)
	w := newTestWaiter(p)
	if err := w.SettleSpinners(context.Background()); err != nil {
		t.Fatalf("SettleSpinners: %v, want nil", err)
	}
}

func TestSettleSpinners_ReturnsCancellation(t *testing.T) {
	p := fakepage.New("").SetSpinner("div.slds-spinner", true)
	w := newTestWaiter(p)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.SettleSpinners(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestUntil_WrapsLastCheckError(t *testing.T) {
	w := newTestWaiter(fakepage.New(""))
	boom := errors.New("boom")
	err := w.Until(context.Background(), Condition{
		Name:    "never",
		Timeout: 20 * time.Millisecond,
		Check:   func(context.Context) (bool, error) { return false, boom },
	})
	if !IsTimeout(err) {
		t.Fatalf("err = %v, want a timeout", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want it to wrap the last check error", err)
	}
}

func TestUntil_ChecksImmediately(t *testing.T) {
	w := NewWaiter(fakepage.New(""), Timeouts{Poll: time.Hour}, nil)
	calls := 0
	err := w.Until(context.Background(), Condition{
		Name:    "already",
		Timeout: time.Second,
		Check: func(context.Context) (bool, error) {
			calls++
			return true, nil
		},
	})
	if err != nil || calls != 1 {
		t.Fatalf("err = %v, calls = %d, want nil and 1", err, calls)
	}
}

func TestWaitForURL_Timeout(t *testing.T) {
	p := fakepage.New("https://login.example.test/")
	w := newTestWaiter(p)

	last, err := w.WaitForURL(context.Background(), regexp.MustCompile(`(?i)lightning`), 30*time.Millisecond)
	var nav *NavigationTimeoutError
	if !errors.As(err, &nav) {
		t.Fatalf("err = %v, want *NavigationTimeoutError", err)
	}
	if last != "https://login.example.test/" || nav.LastURL != last {
		t.Errorf("last = %q, nav.LastURL = %q", last, nav.LastURL)
	}
}

func TestWaitForPageReady_SettleDelay(t *testing.T) {
	p := fakepage.New("")
	to := fastTimeouts()
	to.Settle = 40 * time.Millisecond
	w := NewWaiter(p, to, nil)

	start := time.Now()
	if err := w.WaitForPageReady(context.Background()); err != nil {
		t.Fatalf("WaitForPageReady: %v", err)
	}
	if el := time.Since(start); el < to.Settle {
		t.Errorf("returned after %s, before the settle delay", el)
	}
}

func TestWaitForPageReady_DOMTimeout(t *testing.T) {
	p := fakepage.New("").SlowDOM(time.Second)
	to := fastTimeouts()
	to.PageLoad = 20 * time.Millisecond
	w := NewWaiter(p, to, nil)

	err := w.WaitForPageReady(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want wrapped DeadlineExceeded", err)
	}
}
