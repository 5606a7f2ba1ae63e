package interact

import (
	"context"
	"errors"
	"testing"
	"time"

	"lightcheck/internal/driver"
	"lightcheck/internal/driver/fakepage"
)

func threeCandidates(t *testing.T) (Target, []driver.Locator) {
	t.Helper()
	locs := []driver.Locator{
		driver.CSS("input[name='Company']"),
		driver.CSS("lightning-input[data-field='Company'] input"),
		driver.CSS("input[placeholder*='Company']"),
	}
	tg, err := NewTarget("company", locs...)
	if err != nil {
		t.Fatal(err)
	}
	return tg, locs
}

func TestResolve_StopsAtFirstVisible(t *testing.T) {
	tg, locs := threeCandidates(t)
	p := fakepage.New("https://example.test").Show(locs[1]).Show(locs[2])
	r := NewResolver(p, newTestWaiter(p))

	h, err := r.Resolve(context.Background(), tg, 40*time.Millisecond)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.Index != 1 || h.Locator.String() != locs[1].String() {
		t.Errorf("resolved %d %s, want candidate 1", h.Index, h.Locator)
	}
	probes := p.Probes()
	if countOf(probes, locs[0].String()) == 0 {
		t.Error("candidate 0 was never probed")
	}
	if n := countOf(probes, locs[1].String()); n != 1 {
		t.Errorf("candidate 1 probed %d times, want 1", n)
	}
	if n := countOf(probes, locs[2].String()); n != 0 {
		t.Errorf("candidate 2 probed %d times after a match", n)
	}
}

func TestResolve_FirstCandidateImmediately(t *testing.T) {
	tg, locs := threeCandidates(t)
	p := fakepage.New("").Show(locs[0])
	r := NewResolver(p, newTestWaiter(p))

	start := time.Now()
	h, err := r.Resolve(context.Background(), tg, time.Second)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.Index != 0 {
		t.Errorf("Index = %d, want 0", h.Index)
	}
	if el := time.Since(start); el > 500*time.Millisecond {
		t.Errorf("visible candidate took %s to resolve", el)
	}
}

func TestResolve_AppearsDuringProbe(t *testing.T) {
	tg, locs := threeCandidates(t)
	p := fakepage.New("")
	p.After(20*time.Millisecond, func(p *fakepage.Page) { p.Show(locs[0]) })
	defer p.Close()
	r := NewResolver(p, newTestWaiter(p))

	h, err := r.Resolve(context.Background(), tg, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.Index != 0 {
		t.Errorf("Index = %d, want 0", h.Index)
	}
}

func TestResolve_NotFoundListsEveryCandidate(t *testing.T) {
	tg, locs := threeCandidates(t)
	p := fakepage.New("")
	p.Set(locs[0], fakepage.Element{Visible: false})
	r := NewResolver(p, newTestWaiter(p))

	_, err := r.Resolve(context.Background(), tg, 20*time.Millisecond)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if nf.Target != "company" {
		t.Errorf("Target = %q", nf.Target)
	}
	if len(nf.Candidates) != 3 || len(nf.Results) != 3 {
		t.Fatalf("got %d candidates, %d results, want 3 and 3", len(nf.Candidates), len(nf.Results))
	}
	for i, res := range nf.Results {
		if res.Locator != locs[i].String() {
			t.Errorf("result %d locator %s, want %s", i, res.Locator, locs[i])
		}
		if res.State != ProbeNotVisible {
			t.Errorf("result %d state %s, want not-visible", i, res.State)
		}
	}
}

func TestResolve_FallbackAfterCandidates(t *testing.T) {
	tg, _ := threeCandidates(t)
	fb := ButtonNamed("new")
	tg = tg.WithFallback(fb)
	p := fakepage.New("").Show(fb)
	r := NewResolver(p, newTestWaiter(p))

	h, err := r.Resolve(context.Background(), tg, 15*time.Millisecond)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.Index != -1 || h.Locator.String() != fb.String() {
		t.Errorf("resolved %d %s, want fallback", h.Index, h.Locator)
	}
}

func TestResolve_NotFoundIncludesFallback(t *testing.T) {
	tg, _ := threeCandidates(t)
	tg = tg.WithFallback(ButtonNamed("save"))
	p := fakepage.New("")
	r := NewResolver(p, newTestWaiter(p))

	_, err := r.Resolve(context.Background(), tg, 15*time.Millisecond)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if len(nf.Candidates) != 4 || len(nf.Results) != 4 {
		t.Errorf("got %d candidates, %d results, want 4 and 4", len(nf.Candidates), len(nf.Results))
	}
}

func TestResolve_ProbeErrorKeptApart(t *testing.T) {
	tg, locs := threeCandidates(t)
	boom := errors.New("execution context was destroyed")
	p := fakepage.New("").FailVisible(locs[0], boom)
	r := NewResolver(p, newTestWaiter(p))

	_, err := r.Resolve(context.Background(), tg, 20*time.Millisecond)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if nf.Results[0].State != ProbeErrored || !errors.Is(nf.Results[0].Err, boom) {
		t.Errorf("result 0 = %+v, want probe-error wrapping %v", nf.Results[0], boom)
	}
	if nf.Results[1].State != ProbeNotVisible || nf.Results[1].Err != nil {
		t.Errorf("result 1 = %+v, want clean not-visible", nf.Results[1])
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	tg, _ := threeCandidates(t)
	p := fakepage.New("")
	r := NewResolver(p, newTestWaiter(p))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, tg, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestHandle_ClickAndFill(t *testing.T) {
	tg, locs := threeCandidates(t)
	p := fakepage.New("").Show(locs[0])
	r := NewResolver(p, newTestWaiter(p))
	h, err := r.Resolve(context.Background(), tg, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Fill(context.Background(), "Acme"); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	el, _ := p.Element(locs[0])
	if el.Value != "Acme" {
		t.Errorf("value = %q, want Acme", el.Value)
	}
	p.Remove(locs[0])
	if err := h.Click(context.Background()); !errors.Is(err, driver.ErrNoElement) {
		t.Errorf("click on detached element: err = %v, want ErrNoElement", err)
	}
}
