package main

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"lightcheck/internal/artifact"
	"lightcheck/internal/catalog"
	"lightcheck/internal/config"
	"lightcheck/internal/driver"
	"lightcheck/internal/logging"
	"lightcheck/internal/metrics"
	"lightcheck/internal/rp"
	"lightcheck/internal/scenario"
	"lightcheck/internal/store"
)

func loadCatalog(c *config.Config) (*catalog.Catalog, error) {
	if c.Catalog == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFromPath(c.Catalog)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.KeyCatalog, err)
	}
	return cat, nil
}

func driverOptions(c *config.Config) driver.Options {
	opts := driver.DefaultOptions()
	opts.Headless = c.Headless
	return opts
}

// historyPath is SF_HISTORY_DB, or lightcheck.db under the output directory.
func historyPath(c *config.Config) string {
	if c.HistoryDB != "" {
		return c.HistoryDB
	}
	return filepath.Join(c.OutputDir, store.DefaultDBName)
}

func openHistory(c *config.Config) (*store.SqlStore, error) {
	st, err := store.Open(historyPath(c))
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	return st, nil
}

func newPublisher(c *config.Config) (*rp.Publisher, error) {
	rc := c.ReportPortal
	if !rc.Enabled() {
		return nil, fmt.Errorf("report portal is not configured; set %s", config.KeyRPURL)
	}
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	token := rc.Token
	if token == "" {
		t, err := rp.ReadAPIKey(rc.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.KeyRPTokenFile, err)
		}
		token = t
	}
	client, err := rp.New(rc.URL, token, rp.WithTimeout(30*time.Second), rp.WithLogger(logging.New("rp")))
	if err != nil {
		return nil, err
	}
	pub := rp.NewPublisher(client, rc.Project, rc.Launch)
	if u, err := url.Parse(c.BaseURL); err == nil && u.Host != "" {
		pub.WithAttributes(rp.Attribute{Key: "org", Value: u.Host})
	}
	return pub.WithDescription("lightcheck " + version), nil
}

func newRunID() string {
	return strings.ToLower(ulid.Make().String())
}

// browserRunner launches the browser on first use and reuses it for every
// later run. It satisfies the MCP server's Runner.
type browserRunner struct {
	cfg *config.Config
	cat *catalog.Catalog
	// metrics, when set, receives every scenario outcome.
	metrics *metrics.Metrics

	mu      sync.Mutex
	browser driver.Browser
	runner  *scenario.Runner
}

func newBrowserRunner(c *config.Config) (*browserRunner, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cat, err := loadCatalog(c)
	if err != nil {
		return nil, err
	}
	return &browserRunner{cfg: c, cat: cat}, nil
}

func (b *browserRunner) start(ctx context.Context) (*scenario.Runner, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.runner != nil {
		return b.runner, nil
	}
	browser, err := driver.Launch(ctx, b.cfg.Driver, driverOptions(b.cfg))
	if err != nil {
		return nil, err
	}
	b.browser = browser
	b.runner = scenario.NewRunner(browser, b.cfg, b.cat, nil)
	return b.runner, nil
}

// Run executes ss with artifacts under <output>/<runID>.
func (b *browserRunner) Run(ctx context.Context, runID string, ss []scenario.Scenario) (scenario.Summary, error) {
	r, err := b.start(ctx)
	if err != nil {
		return scenario.Summary{}, err
	}
	dir, err := artifact.New(b.cfg.OutputDir, runID)
	if err != nil {
		return scenario.Summary{}, err
	}
	return r.WithArtifacts(dir).WithMetrics(b.metrics).Run(ctx, runID, ss)
}

func (b *browserRunner) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser, b.runner = nil, nil
	if err != nil {
		logging.New("driver").Warn("browser close failed", "error", err)
	}
	return err
}
