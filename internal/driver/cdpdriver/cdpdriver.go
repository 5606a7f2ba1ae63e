// Package cdpdriver implements driver.Page on top of chromedp.
package cdpdriver

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"lightcheck/internal/driver"
	"lightcheck/internal/logging"
)

// Name is the registry key for this backend.
const Name = "chromedp"

func init() {
	driver.Register(Name, Launch)
}

// Browser is a Chrome process driven over the DevTools protocol.
type Browser struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// Launch starts Chrome with opts and connects to it.
func Launch(ctx context.Context, opts driver.Options) (driver.Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.IgnoreHTTPSErrors {
		allocOpts = append(allocOpts, chromedp.Flag("ignore-certificate-errors", true))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	for _, arg := range opts.ExtraArgs {
		name, value := splitFlag(arg)
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}

	// The allocator outlives the launch call, so it hangs off Background
	// rather than ctx; Close tears it down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	b := &Browser{allocCancel: allocCancel, browserCtx: browserCtx, browserCancel: browserCancel}
	if err := runWith(ctx, browserCtx); err != nil {
		b.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	logging.New("cdpdriver").Debug("chrome started", "headless", opts.Headless)
	return b, nil
}

// NewPage opens a new tab.
func (b *Browser) NewPage(ctx context.Context) (driver.Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	if err := runWith(ctx, tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &Page{ctx: tabCtx, cancel: cancel}, nil
}

// Close shuts Chrome down.
func (b *Browser) Close() error {
	err := chromedp.Cancel(b.browserCtx)
	b.browserCancel()
	b.allocCancel()
	return err
}

// Page is a single Chrome tab.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	refs   atomic.Int64
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := runWith(ctx, p.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return p.WaitDOMContentLoaded(ctx)
}

func (p *Page) WaitDOMContentLoaded(ctx context.Context) error {
	return runWith(ctx, p.ctx, chromedp.Poll(driver.DOMReadyScript, nil,
		chromedp.WithPollingInterval(100*time.Millisecond)))
}

func (p *Page) URL(ctx context.Context) (string, error) {
	var url string
	if err := runWith(ctx, p.ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (p *Page) Visible(ctx context.Context, loc driver.Locator) (bool, error) {
	var visible bool
	err := runWith(ctx, p.ctx, chromedp.Evaluate(elementScript(loc, `return !!el && isVisible(el);`), &visible))
	return visible, err
}

func (p *Page) AllHidden(ctx context.Context, selectors []string) (bool, error) {
	var hidden bool
	err := runWith(ctx, p.ctx, chromedp.Evaluate(driver.AllHiddenScript(selectors), &hidden))
	return hidden, err
}

func (p *Page) Click(ctx context.Context, loc driver.Locator) error {
	sel, err := p.selectorFor(ctx, loc)
	if err != nil {
		return err
	}
	return runWith(ctx, p.ctx, chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible))
}

func (p *Page) Fill(ctx context.Context, loc driver.Locator, value string) error {
	sel, err := p.selectorFor(ctx, loc)
	if err != nil {
		return err
	}
	actions := []chromedp.Action{
		chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.Clear(sel, chromedp.ByQuery),
	}
	if value != "" {
		actions = append(actions, chromedp.SendKeys(sel, value, chromedp.ByQuery))
	}
	return runWith(ctx, p.ctx, actions...)
}

type textResult struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

func (p *Page) Text(ctx context.Context, loc driver.Locator) (string, error) {
	var res textResult
	script := elementScript(loc, `return el ? {found: true, text: el.textContent || ''} : {found: false, text: ''};`)
	if err := runWith(ctx, p.ctx, chromedp.Evaluate(script, &res)); err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("%w: %s", driver.ErrNoElement, loc)
	}
	return res.Text, nil
}

type attrResult struct {
	Found   bool   `json:"found"`
	Present bool   `json:"present"`
	Value   string `json:"value"`
}

func (p *Page) Attribute(ctx context.Context, loc driver.Locator, name string) (string, bool, error) {
	var res attrResult
	body := fmt.Sprintf(`if (!el) return {found: false, present: false, value: ''};
const v = el.getAttribute(%q);
return {found: true, present: v !== null, value: v || ''};`, name)
	if err := runWith(ctx, p.ctx, chromedp.Evaluate(elementScript(loc, body), &res)); err != nil {
		return "", false, err
	}
	if !res.Found {
		return "", false, fmt.Errorf("%w: %s", driver.ErrNoElement, loc)
	}
	return res.Value, res.Present, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			Do(ctx)
		return err
	})
	if err := runWith(ctx, p.ctx, capture); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (p *Page) Close() error {
	p.cancel()
	return nil
}

// selectorFor turns any locator into a CSS selector chromedp can act on.
// Role and text locators are resolved in the page and tagged with a
// one-off data attribute.
func (p *Page) selectorFor(ctx context.Context, loc driver.Locator) (string, error) {
	if loc.Strategy == driver.ByCSS {
		return loc.Value, nil
	}
	ref := p.refs.Add(1)
	var found bool
	body := fmt.Sprintf(`if (!el) return false; el.setAttribute(%q, %q); return true;`, refAttr, fmt.Sprint(ref))
	if err := runWith(ctx, p.ctx, chromedp.Evaluate(elementScript(loc, body), &found)); err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: %s", driver.ErrNoElement, loc)
	}
	return fmt.Sprintf(`[%s="%d"]`, refAttr, ref), nil
}

// runWith runs actions on target while honoring the deadline and
// cancellation of ctx.
func runWith(ctx, target context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(target)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func splitFlag(arg string) (string, any) {
	arg = strings.TrimLeft(arg, "-")
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		return name, true
	}
	return name, value
}
