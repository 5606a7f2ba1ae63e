// Package fakepage is an in-memory driver.Page for tests. Elements are keyed
// by the locator's String form, so tests register exactly the locators the
// code under test will query.
package fakepage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lightcheck/internal/driver"
)

// Element is the observable state of one fake element.
type Element struct {
	Visible bool
	Text    string
	Attrs   map[string]string
	// Value holds what Fill last typed.
	Value string
}

// Page implements driver.Page. All methods are safe for concurrent use so
// tests can mutate the page from timers while the code under test polls.
type Page struct {
	mu       sync.Mutex
	url      string
	elements map[string]*Element
	spinners map[string]bool
	onClick  map[string]func(*Page)
	probeErr map[string]error

	probes  []string
	clicks  []string
	fills   []Fill
	shots   int
	closed  bool
	timers  []*time.Timer
	domWait time.Duration
}

// Fill records one Fill call.
type Fill struct {
	Locator string
	Value   string
}

var _ driver.Page = (*Page)(nil)

// New returns an empty page at url.
func New(url string) *Page {
	return &Page{
		url:      url,
		elements: map[string]*Element{},
		spinners: map[string]bool{},
		onClick:  map[string]func(*Page){},
		probeErr: map[string]error{},
	}
}

// Set registers or replaces the element behind loc.
func (p *Page) Set(loc driver.Locator, el Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := el
	p.elements[loc.String()] = &cp
	return p
}

// Show makes loc visible, creating it if needed.
func (p *Page) Show(loc driver.Locator) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[loc.String()]
	if !ok {
		el = &Element{}
		p.elements[loc.String()] = el
	}
	el.Visible = true
	return p
}

// Hide keeps loc in the DOM but stops rendering it.
func (p *Page) Hide(loc driver.Locator) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[loc.String()]; ok {
		el.Visible = false
	}
	return p
}

// Remove deletes loc from the DOM.
func (p *Page) Remove(loc driver.Locator) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, loc.String())
	return p
}

// SetURL simulates a navigation.
func (p *Page) SetURL(url string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	return p
}

// SetSpinner adds a loading indicator matched by selector.
func (p *Page) SetSpinner(selector string, visible bool) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spinners[selector] = visible
	return p
}

// ClearSpinners removes every loading indicator from the DOM.
func (p *Page) ClearSpinners() *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spinners = map[string]bool{}
	return p
}

// OnClick runs fn (without the page lock held) after loc is clicked.
func (p *Page) OnClick(loc driver.Locator, fn func(*Page)) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick[loc.String()] = fn
	return p
}

// FailVisible makes every visibility check of loc return err.
func (p *Page) FailVisible(loc driver.Locator, err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probeErr[loc.String()] = err
	return p
}

// After runs fn on the page once d has elapsed.
func (p *Page) After(d time.Duration, fn func(*Page)) *Page {
	t := time.AfterFunc(d, func() { fn(p) })
	p.mu.Lock()
	p.timers = append(p.timers, t)
	p.mu.Unlock()
	return p
}

// SlowDOM delays WaitDOMContentLoaded by d.
func (p *Page) SlowDOM(d time.Duration) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.domWait = d
	return p
}

// Probes lists the locators passed to Visible, in call order.
func (p *Page) Probes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.probes...)
}

// Clicks lists clicked locators, in call order.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// Fills lists Fill calls, in call order.
func (p *Page) Fills() []Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Fill(nil), p.fills...)
}

// Element returns a copy of the element behind loc.
func (p *Page) Element(loc driver.Locator) (Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[loc.String()]
	if !ok {
		return Element{}, false
	}
	return *el, true
}

// Screenshots counts Screenshot calls.
func (p *Page) Screenshots() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shots
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.SetURL(url)
	return p.WaitDOMContentLoaded(ctx)
}

func (p *Page) WaitDOMContentLoaded(ctx context.Context) error {
	p.mu.Lock()
	d := p.domWait
	p.mu.Unlock()
	if d == 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, ctx.Err()
}

func (p *Page) Visible(ctx context.Context, loc driver.Locator) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := loc.String()
	p.probes = append(p.probes, key)
	if err := p.probeErr[key]; err != nil {
		return false, err
	}
	el, ok := p.elements[key]
	return ok && el.Visible, ctx.Err()
}

func (p *Page) AllHidden(ctx context.Context, selectors []string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sel := range selectors {
		if p.spinners[sel] {
			return false, ctx.Err()
		}
	}
	return true, ctx.Err()
}

func (p *Page) Click(ctx context.Context, loc driver.Locator) error {
	p.mu.Lock()
	key := loc.String()
	if _, ok := p.elements[key]; !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", driver.ErrNoElement, loc)
	}
	p.clicks = append(p.clicks, key)
	fn := p.onClick[key]
	p.mu.Unlock()
	if fn != nil {
		fn(p)
	}
	return ctx.Err()
}

func (p *Page) Fill(ctx context.Context, loc driver.Locator, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := loc.String()
	el, ok := p.elements[key]
	if !ok {
		return fmt.Errorf("%w: %s", driver.ErrNoElement, loc)
	}
	el.Value = value
	p.fills = append(p.fills, Fill{Locator: key, Value: value})
	return ctx.Err()
}

func (p *Page) Text(ctx context.Context, loc driver.Locator) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[loc.String()]
	if !ok {
		return "", fmt.Errorf("%w: %s", driver.ErrNoElement, loc)
	}
	return el.Text, ctx.Err()
}

func (p *Page) Attribute(ctx context.Context, loc driver.Locator, name string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[loc.String()]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", driver.ErrNoElement, loc)
	}
	v, present := el.Attrs[name]
	return v, present, ctx.Err()
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shots++
	return []byte("\x89PNG fake"), ctx.Err()
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, t := range p.timers {
		t.Stop()
	}
	return nil
}

// Browser hands out pre-built fake pages in order, then empty ones.
type Browser struct {
	mu     sync.Mutex
	pages  []*Page
	opened []*Page
	closed bool
	// Setup, when set, prepares every page the browser hands out.
	Setup func(*Page)
}

var _ driver.Browser = (*Browser)(nil)

// NewBrowser returns a browser that serves pages in order.
func NewBrowser(pages ...*Page) *Browser {
	return &Browser{pages: pages}
}

func (b *Browser) NewPage(_ context.Context) (driver.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var p *Page
	if len(b.pages) > 0 {
		p, b.pages = b.pages[0], b.pages[1:]
	} else {
		p = New("about:blank")
	}
	if b.Setup != nil {
		b.Setup(p)
	}
	b.opened = append(b.opened, p)
	return p, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Opened returns the pages handed out so far.
func (b *Browser) Opened() []*Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Page(nil), b.opened...)
}

// Closed reports whether Close was called.
func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
