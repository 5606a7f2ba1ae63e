package scenario

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"lightcheck/internal/artifact"
	"lightcheck/internal/catalog"
	"lightcheck/internal/config"
	"lightcheck/internal/driver"
	"lightcheck/internal/driver/fakepage"
	"lightcheck/internal/interact"
	"lightcheck/internal/metrics"
)

const (
	orgURL   = "https://acme.lightning.force.com"
	loginURL = "https://login.example.test"
)

func testConfig() *config.Config {
	c := config.Defaults()
	c.BaseURL = orgURL
	c.LoginURL = loginURL
	c.Username = "qa@acme.test"
	c.Password = "pw"
	c.Timeouts = interact.Timeouts{
		PageLoad:          time.Second,
		Toast:             80 * time.Millisecond,
		Modal:             60 * time.Millisecond,
		Spinner:           60 * time.Millisecond,
		Probe:             30 * time.Millisecond,
		PromptProbe:       20 * time.Millisecond,
		RedirectPrimary:   50 * time.Millisecond,
		RedirectSecondary: 100 * time.Millisecond,
		Settle:            -1,
		Poll:              5 * time.Millisecond,
		Navigation:        80 * time.Millisecond,
		Action:            time.Second,
	}.WithDefaults()
	return c
}

// fakeOrg renders a login form that signs straight in and a Lead form whose
// save lands on a detail page showing what was typed.
func fakeOrg(p *fakepage.Page) {
	submit := driver.CSS("#Login")
	p.Show(driver.CSS("#username")).Show(driver.CSS("#password")).Show(submit)
	p.OnClick(submit, func(p *fakepage.Page) {
		p.SetURL(orgURL + "/lightning/page/home")
		p.Show(driver.CSS("one-app-nav-bar"))
	})

	newBtn := driver.CSS("a[title='New']")
	save := driver.CSS("button[name='SaveEdit']")
	p.Show(newBtn).OnClick(newBtn, func(p *fakepage.Page) {
		for _, sel := range []string{"input[name='firstName']", "input[name='lastName']", "input[name='Company']", "input[name='Title']", "input[name='Email']", "input[name='Phone']"} {
			p.Show(driver.CSS(sel))
		}
		p.Show(save)
	})
	for label, option := range map[string]string{"Salutation": "Mr.", "Lead Status": "Open - Not Contacted"} {
		trigger := driver.CSS("button[aria-label='" + label + "']")
		opt := interact.OptionLocator(option)
		p.Show(trigger).OnClick(trigger, func(p *fakepage.Page) { p.Show(opt) })
	}
	p.OnClick(save, func(p *fakepage.Page) {
		p.Set(driver.CSS("div.slds-notify_toast"), fakepage.Element{
			Visible: true, Text: `Lead "x" was created.`,
			Attrs: map[string]string{"class": "slds-theme_success"},
		})
		p.SetURL(orgURL + "/lightning/r/Lead/00Q5g00000AbCde/view")
		for _, f := range p.Fills() {
			switch f.Locator {
			case "css=input[name='lastName']":
				p.Show(interact.HeadingMatching(f.Value))
			case "css=input[name='Company']":
				p.Show(driver.Text(f.Value))
			}
		}
	})
}

func newTestRunner(t *testing.T, cfg *config.Config) (*Runner, *fakepage.Browser, *artifact.Dir) {
	t.Helper()
	b := fakepage.NewBrowser()
	b.Setup = fakeOrg
	dir, err := artifact.New(t.TempDir(), "run")
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(b, cfg, catalog.Default(), dir), b, dir
}

func TestRunner_LeadEndToEnd(t *testing.T) {
	r, b, _ := newTestRunner(t, testConfig())
	s, err := Builtin().Get("TC-LEAD-001")
	if err != nil {
		t.Fatal(err)
	}

	sum, err := r.Run(context.Background(), "r1", []Scenario{s})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := sum.Results[0]
	if res.Status != Passed {
		t.Fatalf("status %s: %s", res.Status, res.Error)
	}
	if res.RecordID != "00Q5g00000AbCde" {
		t.Errorf("RecordID = %q", res.RecordID)
	}
	if res.Session != interact.Authenticated.String() {
		t.Errorf("Session = %q", res.Session)
	}
	if len(res.Screenshots) != 1 || !strings.HasSuffix(res.Screenshots[0], "TC-LEAD-001__lead-created-detail.png") {
		t.Errorf("Screenshots = %v", res.Screenshots)
	}
	if !strings.HasPrefix(res.Notes["last_name"], "Lead_") {
		t.Errorf("Notes = %v", res.Notes)
	}
	if opened := b.Opened(); len(opened) != 1 || !opened[0].Closed() {
		t.Error("scenario page not closed")
	}
	if !sum.OK() {
		t.Error("summary not OK")
	}
}

func TestRunner_LoginScenarios(t *testing.T) {
	r, b, _ := newTestRunner(t, testConfig())
	pagesOpened := 0
	b.Setup = func(p *fakepage.Page) {
		fakeOrg(p)
		pagesOpened++
		// Second page: the org rejects the login.
		if pagesOpened == 2 {
			p.OnClick(driver.CSS("#Login"), func(p *fakepage.Page) {
				p.Set(driver.CSS("#error"), fakepage.Element{Visible: true, Text: "Please check your username and password."})
			})
		}
	}
	ss, err := Builtin().Select(Filter{Tags: []string{"login"}})
	if err != nil {
		t.Fatal(err)
	}

	sum, err := r.Run(context.Background(), "r2", ss)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, res := range sum.Results {
		if res.Status != Passed {
			t.Errorf("%s: %s %s", res.Name, res.Status, res.Error)
		}
	}
	if got := sum.Results[0].Notes["login_path"]; got != "Awaiting Redirect → Resolved" {
		t.Errorf("login_path = %q", got)
	}
	if got := sum.Results[1].Notes["login_error"]; got != "Please check your username and password." {
		t.Errorf("login_error = %q", got)
	}
}

func TestRunner_FailureCapturesScreenshot(t *testing.T) {
	r, b, _ := newTestRunner(t, testConfig())
	boom := &interact.NotFoundError{Target: "widget"}
	s := Scenario{Name: "broken", Run: func(context.Context, *Env) error { return boom }}

	sum, err := r.Run(context.Background(), "r3", []Scenario{s})
	if err != nil {
		t.Fatal(err)
	}
	res := sum.Results[0]
	if res.Status != Failed || res.ErrorKind != "not-found" {
		t.Errorf("got %s/%s: %s", res.Status, res.ErrorKind, res.Error)
	}
	if len(res.Screenshots) != 1 {
		t.Fatalf("Screenshots = %v", res.Screenshots)
	}
	if _, err := os.Stat(res.Screenshots[0]); err != nil {
		t.Errorf("screenshot not written: %v", err)
	}
	if b.Opened()[0].Screenshots() != 1 {
		t.Error("page screenshot not taken")
	}
	if sum.OK() {
		t.Error("summary OK with a failure")
	}
}

func TestRunner_WithArtifacts(t *testing.T) {
	b := fakepage.NewBrowser()
	b.Setup = fakeOrg
	bare := NewRunner(b, testConfig(), catalog.Default(), nil)
	s := Scenario{Name: "broken", Run: func(context.Context, *Env) error { return errors.New("boom") }}

	sum, err := bare.Run(context.Background(), "no-dir", []Scenario{s})
	if err != nil {
		t.Fatal(err)
	}
	if got := sum.Results[0].Screenshots; len(got) != 0 {
		t.Errorf("runner without artifacts saved %v", got)
	}

	dir, err := artifact.New(t.TempDir(), "with-dir")
	if err != nil {
		t.Fatal(err)
	}
	sum, err = bare.WithArtifacts(dir).Run(context.Background(), "with-dir", []Scenario{s})
	if err != nil {
		t.Fatal(err)
	}
	shots := sum.Results[0].Screenshots
	if len(shots) != 1 || !strings.HasPrefix(shots[0], dir.Path()) {
		t.Errorf("Screenshots = %v, want one under %s", shots, dir.Path())
	}
}

func TestRunner_ToastOnlySavePasses(t *testing.T) {
	r, b, _ := newTestRunner(t, testConfig())
	b.Setup = func(p *fakepage.Page) {
		fakeOrg(p)
		p.OnClick(driver.CSS("button[name='SaveEdit']"), func(p *fakepage.Page) {
			p.Set(driver.CSS("div.slds-notify_toast"), fakepage.Element{
				Visible: true, Text: `Lead "x" was CREATED.`,
				Attrs: map[string]string{"class": "slds-theme_success"},
			})
		})
	}
	s, err := Builtin().Get("TC-LEAD-002")
	if err != nil {
		t.Fatal(err)
	}

	sum, err := r.Run(context.Background(), "r-toast", []Scenario{s})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := sum.Results[0]
	if res.Status != Passed {
		t.Fatalf("status %s (%s): %s", res.Status, res.ErrorKind, res.Error)
	}
	if res.RecordID != "" {
		t.Errorf("RecordID = %q, want none", res.RecordID)
	}
	if res.Notes["confirmed_by"] != "toast" {
		t.Errorf("Notes = %v", res.Notes)
	}
}

func TestRunner_MetricsAndSpans(t *testing.T) {
	r, _, _ := newTestRunner(t, testConfig())
	rec := tracetest.NewSpanRecorder()
	r.tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)).Tracer("test")
	m := metrics.New()
	r = r.WithMetrics(m)

	ok := Scenario{Name: "fine", Run: func(context.Context, *Env) error { return nil }}
	bad := Scenario{Name: "broken", Run: func(context.Context, *Env) error { return &interact.NotFoundError{Target: "widget"} }}
	if _, err := r.Run(context.Background(), "m1", []Scenario{ok, bad}); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(m.Scenarios().WithLabelValues("broken", "failed")); got != 1 {
		t.Errorf("broken failed count = %v", got)
	}
	if got := testutil.ToFloat64(m.Scenarios().WithLabelValues("fine", "passed")); got != 1 {
		t.Errorf("fine passed count = %v", got)
	}

	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, sp := range rec.Ended() {
		byName[sp.Name()] = sp
	}
	if _, ok := byName["suite"]; !ok {
		t.Fatalf("no suite span in %v", byName)
	}
	broken, found := byName["scenario broken"]
	if !found {
		t.Fatalf("no scenario span in %v", byName)
	}
	if broken.Status().Code != codes.Error {
		t.Errorf("broken span status = %v", broken.Status())
	}
	if broken.Parent().SpanID() != byName["suite"].SpanContext().SpanID() {
		t.Error("scenario span not parented on the suite span")
	}
}

func TestRunner_MissingCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.Password = ""
	r, b, _ := newTestRunner(t, cfg)
	ran := false
	s := Scenario{Name: "needs-login", Auth: true, Run: func(context.Context, *Env) error { ran = true; return nil }}

	sum, err := r.Run(context.Background(), "r4", []Scenario{s})
	if err != nil {
		t.Fatal(err)
	}
	if ran {
		t.Error("body ran without a session")
	}
	if res := sum.Results[0]; res.ErrorKind != "authentication" || !strings.Contains(res.Error, config.KeyPassword) {
		t.Errorf("got %s: %s", res.ErrorKind, res.Error)
	}
	if got := sum.Results[0].Session; got != interact.AuthenticationFailed.String() {
		t.Errorf("Session = %q, want %q", got, interact.AuthenticationFailed)
	}
	if u, _ := b.Opened()[0].URL(context.Background()); u != "about:blank" {
		t.Errorf("navigated to %s", u)
	}
}

func TestRunner_SkipsAfterCancel(t *testing.T) {
	r, _, _ := newTestRunner(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	first := Scenario{Name: "first", Run: func(context.Context, *Env) error { cancel(); return nil }}
	second := Scenario{Name: "second", Run: func(context.Context, *Env) error { return nil }}

	sum, err := r.Run(ctx, "r5", []Scenario{first, second})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Results[0].Status != Passed || sum.Results[1].Status != Skipped {
		t.Errorf("statuses %s, %s", sum.Results[0].Status, sum.Results[1].Status)
	}
}

func TestRunner_SerializesRuns(t *testing.T) {
	r, _, _ := newTestRunner(t, testConfig())
	var active, peak atomic.Int32
	s := Scenario{Name: "slow", Run: func(context.Context, *Env) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		return nil
	}}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Run(context.Background(), "par", []Scenario{s}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if peak.Load() != 1 {
		t.Errorf("peak concurrency %d, want 1", peak.Load())
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]error{
		"":                   nil,
		"authentication":     &interact.AuthenticationError{Reason: "x"},
		"toast-timeout":      &interact.ToastTimeoutError{},
		"navigation-timeout": &interact.NavigationTimeoutError{},
		"cancelled":          context.Canceled,
		"error":              errors.New("other"),
	}
	for want, err := range tests {
		if got := Classify(err); got != want {
			t.Errorf("Classify(%v) = %q, want %q", err, got, want)
		}
	}
}
