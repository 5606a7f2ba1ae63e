// Package pwdriver implements driver.Page on top of playwright-go.
package pwdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pw "github.com/playwright-community/playwright-go"

	"lightcheck/internal/driver"
	"lightcheck/internal/logging"
)

// Name is the registry key for this backend.
const Name = "playwright"

// defaultActionTimeout bounds calls made with a context that has no deadline.
const defaultActionTimeout = 30 * time.Second

func init() {
	driver.Register(Name, Launch)
}

// Browser is a Playwright-managed Chromium.
type Browser struct {
	pw      *pw.Playwright
	browser pw.Browser
	opts    driver.Options
}

// Launch starts the Playwright driver and a Chromium instance.
func Launch(_ context.Context, opts driver.Options) (driver.Browser, error) {
	instance, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	launchOpts := pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(opts.Headless),
		Args:     opts.ExtraArgs,
	}
	if opts.ExecPath != "" {
		launchOpts.ExecutablePath = pw.String(opts.ExecPath)
	}
	browser, err := instance.Chromium.Launch(launchOpts)
	if err != nil {
		_ = instance.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	logging.New("pwdriver").Debug("chromium started", "headless", opts.Headless)
	return &Browser{pw: instance, browser: browser, opts: opts}, nil
}

// NewPage opens a page in a fresh browser context.
func (b *Browser) NewPage(_ context.Context) (driver.Page, error) {
	ctxOpts := pw.BrowserNewContextOptions{
		IgnoreHttpsErrors: pw.Bool(b.opts.IgnoreHTTPSErrors),
	}
	if b.opts.WindowWidth > 0 && b.opts.WindowHeight > 0 {
		ctxOpts.Viewport = &pw.Size{Width: b.opts.WindowWidth, Height: b.opts.WindowHeight}
	}
	bctx, err := b.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	return &Page{page: page, bctx: bctx}, nil
}

// Close shuts Chromium and the Playwright driver down.
func (b *Browser) Close() error {
	if err := b.browser.Close(); err != nil {
		_ = b.pw.Stop()
		return err
	}
	return b.pw.Stop()
}

// Page wraps a Playwright page.
type Page struct {
	page pw.Page
	bctx pw.BrowserContext
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	_, err := p.page.Goto(url, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateDomcontentloaded,
		Timeout:   timeoutMS(ctx),
	})
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *Page) WaitDOMContentLoaded(ctx context.Context) error {
	return p.page.WaitForLoadState(pw.PageWaitForLoadStateOptions{
		State:   pw.LoadStateDomcontentloaded,
		Timeout: timeoutMS(ctx),
	})
}

func (p *Page) URL(_ context.Context) (string, error) {
	return p.page.URL(), nil
}

func (p *Page) Visible(_ context.Context, loc driver.Locator) (bool, error) {
	return p.locate(loc).IsVisible()
}

func (p *Page) AllHidden(_ context.Context, selectors []string) (bool, error) {
	v, err := p.page.Evaluate(driver.AllHiddenScript(selectors))
	if err != nil {
		return false, err
	}
	hidden, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("all-hidden check returned %T", v)
	}
	return hidden, nil
}

func (p *Page) Click(ctx context.Context, loc driver.Locator) error {
	return p.locate(loc).Click(pw.LocatorClickOptions{Timeout: timeoutMS(ctx)})
}

func (p *Page) Fill(ctx context.Context, loc driver.Locator, value string) error {
	l := p.locate(loc)
	if err := l.Click(pw.LocatorClickOptions{Timeout: timeoutMS(ctx)}); err != nil {
		return err
	}
	if err := l.Fill("", pw.LocatorFillOptions{Timeout: timeoutMS(ctx)}); err != nil {
		return err
	}
	return l.Fill(value, pw.LocatorFillOptions{Timeout: timeoutMS(ctx)})
}

func (p *Page) Text(ctx context.Context, loc driver.Locator) (string, error) {
	return p.locate(loc).TextContent(pw.LocatorTextContentOptions{Timeout: timeoutMS(ctx)})
}

func (p *Page) Attribute(ctx context.Context, loc driver.Locator, name string) (string, bool, error) {
	l := p.locate(loc)
	v, err := l.Evaluate(fmt.Sprintf(`el => el.getAttribute(%s)`, jsString(name)), nil,
		pw.LocatorEvaluateOptions{Timeout: timeoutMS(ctx)})
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("attribute %s returned %T", name, v)
	}
	return s, true, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	buf, err := p.page.Screenshot(pw.PageScreenshotOptions{
		FullPage: pw.Bool(true),
		Timeout:  timeoutMS(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (p *Page) Close() error {
	if err := p.page.Close(); err != nil {
		return err
	}
	return p.bctx.Close()
}

func (p *Page) locate(loc driver.Locator) pw.Locator {
	switch loc.Strategy {
	case driver.ByRole:
		opts := pw.PageGetByRoleOptions{}
		if loc.Name != nil {
			opts.Name = loc.Name
		}
		return p.page.GetByRole(pw.AriaRole(loc.Value), opts).First()
	case driver.ByText:
		return p.page.GetByText(loc.Value).First()
	}
	return p.page.Locator(loc.Value).First()
}

// timeoutMS converts the remaining time on ctx into Playwright's millisecond
// timeout option.
func timeoutMS(ctx context.Context) *float64 {
	d := defaultActionTimeout
	if deadline, ok := ctx.Deadline(); ok {
		d = time.Until(deadline)
		if d <= 0 {
			d = time.Millisecond
		}
	}
	return pw.Float(float64(d.Milliseconds()))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
