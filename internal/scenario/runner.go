package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"lightcheck/internal/artifact"
	"lightcheck/internal/catalog"
	"lightcheck/internal/config"
	"lightcheck/internal/driver"
	"lightcheck/internal/interact"
	"lightcheck/internal/logging"
	"lightcheck/internal/metrics"
	"lightcheck/internal/pages"
)

// Status is a scenario outcome.
type Status string

const (
	Passed  Status = "passed"
	Failed  Status = "failed"
	Skipped Status = "skipped"
)

// Result records one scenario run.
type Result struct {
	Name        string            `json:"name"`
	Title       string            `json:"title"`
	Tags        []string          `json:"tags,omitempty"`
	Status      Status            `json:"status"`
	StartedAt   time.Time         `json:"started_at"`
	Duration    time.Duration     `json:"duration_ns"`
	Error       string            `json:"error,omitempty"`
	ErrorKind   string            `json:"error_kind,omitempty"`
	RecordID    string            `json:"record_id,omitempty"`
	Session     string            `json:"session"`
	Screenshots []string          `json:"screenshots,omitempty"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// Summary is one Run call.
type Summary struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Results   []Result      `json:"results"`
}

// Counts tallies results by status.
func (s Summary) Counts() (passed, failed, skipped int) {
	for _, r := range s.Results {
		switch r.Status {
		case Passed:
			passed++
		case Failed:
			failed++
		default:
			skipped++
		}
	}
	return
}

// OK reports whether nothing failed.
func (s Summary) OK() bool {
	_, failed, _ := s.Counts()
	return failed == 0
}

// teardownTimeout bounds failure screenshots taken after ctx is done.
const teardownTimeout = 10 * time.Second

// Runner executes scenarios one at a time, each on a fresh page. The org
// behind the run is shared state, so concurrent Run calls queue.
type Runner struct {
	browser   driver.Browser
	cfg       *config.Config
	cat       *catalog.Catalog
	artifacts *artifact.Dir
	sem       *semaphore.Weighted
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
	log       *slog.Logger
}

// NewRunner returns a runner drawing pages from browser. artifacts may be
// nil, in which case nothing is captured.
func NewRunner(browser driver.Browser, cfg *config.Config, cat *catalog.Catalog, artifacts *artifact.Dir) *Runner {
	return &Runner{
		browser:   browser,
		cfg:       cfg,
		cat:       cat,
		artifacts: artifacts,
		sem:       semaphore.NewWeighted(1),
		tracer:    otel.Tracer("lightcheck/scenario"),
		now:       time.Now,
		log:       logging.New("runner"),
	}
}

// WithArtifacts returns a runner that stores captures in dir. It shares
// r's browser and run queue.
func (r *Runner) WithArtifacts(dir *artifact.Dir) *Runner {
	cp := *r
	cp.artifacts = dir
	return &cp
}

// WithMetrics returns a runner that records outcomes in m.
func (r *Runner) WithMetrics(m *metrics.Metrics) *Runner {
	cp := *r
	cp.metrics = m
	return &cp
}

// Run executes scenarios in order. It waits for any other Run to finish
// first. Scenario failures are reported in the Summary; the error is only
// for ctx ending while queued.
func (r *Runner) Run(ctx context.Context, runID string, scenarios []Scenario) (Summary, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return Summary{}, fmt.Errorf("wait for running suite: %w", err)
	}
	defer r.sem.Release(1)

	ctx, span := r.tracer.Start(ctx, "suite", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("scenario.count", len(scenarios)),
	))
	defer span.End()
	if r.metrics != nil {
		r.metrics.RunStarted()
	}

	sum := Summary{RunID: runID, StartedAt: r.now()}
	r.log.Info("run started", "run_id", runID, "scenarios", len(scenarios))
	for _, s := range scenarios {
		var res Result
		if ctx.Err() != nil {
			res = Result{
				Name: s.Name, Title: s.Title, Tags: s.Tags,
				Status: Skipped, Error: ctx.Err().Error(), Session: interact.Unauthenticated.String(),
			}
		} else {
			res = r.runOne(ctx, s)
		}
		if r.metrics != nil {
			r.metrics.ScenarioFinished(res.Name, string(res.Status), res.ErrorKind, res.Duration)
		}
		sum.Results = append(sum.Results, res)
	}
	sum.Duration = r.now().Sub(sum.StartedAt)
	if r.metrics != nil {
		r.metrics.RunFinished(r.now())
	}
	p, f, sk := sum.Counts()
	r.log.Info("run finished", "run_id", runID, "passed", p, "failed", f, "skipped", sk, "duration", sum.Duration)
	return sum, nil
}

func (r *Runner) runOne(ctx context.Context, s Scenario) (res Result) {
	log := logging.ForScenario("runner", s.Name)
	ctx, span := r.tracer.Start(ctx, "scenario "+s.Name, trace.WithAttributes(
		attribute.String("scenario.name", s.Name),
		attribute.StringSlice("scenario.tags", s.Tags),
	))
	defer func() {
		span.SetAttributes(attribute.String("scenario.status", string(res.Status)))
		if res.RecordID != "" {
			span.SetAttributes(attribute.String("record.id", res.RecordID))
		}
		if res.Status == Failed {
			span.SetAttributes(attribute.String("error.kind", res.ErrorKind))
			span.SetStatus(codes.Error, res.Error)
		}
		span.End()
	}()
	res = Result{Name: s.Name, Title: s.Title, Tags: s.Tags, StartedAt: r.now(), Session: interact.Unauthenticated.String()}
	defer func() { res.Duration = r.now().Sub(res.StartedAt) }()

	page, err := r.browser.NewPage(ctx)
	if err != nil {
		return r.fail(res, fmt.Errorf("open page: %w", err), log)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("close page", "error", err)
		}
	}()

	var shots interact.ScreenshotSink
	if r.artifacts != nil {
		shots = r.artifacts.ForScenario(s.Name)
	}
	kit, err := interact.NewKit(page, pages.KitOptions(r.cat, r.cfg.BaseURL, r.cfg.Timeouts, shots))
	if err != nil {
		return r.fail(res, err, log)
	}
	sess, err := pages.NewSession(kit, r.cat, r.cfg.LoginURL)
	if err != nil {
		return r.fail(res, err, log)
	}
	env := &Env{Session: sess, Config: r.cfg, Now: r.now, Log: log}

	log.Info("scenario started", "title", s.Title)
	err = r.body(ctx, s, env)
	res.Session = sess.Login.State().String()
	var ae *interact.AuthenticationError
	if errors.As(err, &ae) {
		res.Session = ae.State.String()
	}

	env.mu.Lock()
	res.RecordID = env.recordID
	res.Notes = env.notes
	env.mu.Unlock()

	if err != nil {
		if shots != nil {
			tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
			env.Screenshot(tctx, "failure")
			cancel()
		}
		env.mu.Lock()
		res.Screenshots = env.shots
		env.mu.Unlock()
		return r.fail(res, err, log)
	}
	env.mu.Lock()
	res.Screenshots = env.shots
	env.mu.Unlock()
	res.Status = Passed
	log.Info("scenario passed", "record_id", res.RecordID)
	return res
}

func (r *Runner) body(ctx context.Context, s Scenario, env *Env) error {
	if s.Auth {
		user, pass, err := r.cfg.Credentials()
		if err != nil {
			return err
		}
		if err := env.Login.Login(ctx, user, pass); err != nil {
			return err
		}
	}
	return s.Run(ctx, env)
}

func (r *Runner) fail(res Result, err error, log *slog.Logger) Result {
	res.Status = Failed
	res.Error = err.Error()
	res.ErrorKind = Classify(err)
	log.Error("scenario failed", "kind", res.ErrorKind, "error", err)
	return res
}

// Classify names the failure class of err for reports.
func Classify(err error) string {
	var (
		nf   *interact.NotFoundError
		st   *interact.SpinnerTimeoutError
		tt   *interact.ToastTimeoutError
		tm   *interact.ToastMismatchError
		nav  *interact.NavigationTimeoutError
		auth *interact.AuthenticationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &auth):
		return "authentication"
	case errors.As(err, &nf):
		return "not-found"
	case errors.As(err, &tm):
		return "toast-mismatch"
	case errors.As(err, &tt):
		return "toast-timeout"
	case errors.As(err, &nav):
		return "navigation-timeout"
	case errors.As(err, &st):
		return "spinner-timeout"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "error"
}
