package interact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"lightcheck/internal/driver"
	"lightcheck/internal/logging"
)

// ScreenshotSink stores a named screenshot and returns where it went.
type ScreenshotSink interface {
	Save(name string, png []byte) (string, error)
}

// KitOptions configures NewKit.
type KitOptions struct {
	BaseURL  string
	Timeouts Timeouts
	// Spinners and ToastContainers default to the Lightning markers.
	Spinners        []string
	ToastContainers []string
	Screenshots     ScreenshotSink
}

// Kit is the interaction capability set page objects are built on.
type Kit struct {
	Page     driver.Page
	BaseURL  string
	Timeouts Timeouts

	Resolver *Resolver
	Waiter   *Waiter
	Toasts   *ToastObserver
	Records  *RecordIDExtractor

	shots ScreenshotSink
	log   *slog.Logger
}

// NewKit wires every component onto page.
func NewKit(page driver.Page, opts KitOptions) (*Kit, error) {
	t := opts.Timeouts.WithDefaults()
	containers := opts.ToastContainers
	if len(containers) == 0 {
		containers = DefaultToastContainers
	}
	toastTarget, err := CSSTarget("toast container", containers...)
	if err != nil {
		return nil, err
	}
	w := NewWaiter(page, t, opts.Spinners)
	return &Kit{
		Page:     page,
		BaseURL:  strings.TrimRight(opts.BaseURL, "/"),
		Timeouts: t,
		Resolver: NewResolver(page, w),
		Waiter:   w,
		Toasts:   NewToastObserver(page, w, toastTarget),
		Records:  NewRecordIDExtractor(w, t.Navigation),
		shots:    opts.Screenshots,
		log:      logging.New("kit"),
	}, nil
}

// Interstitials returns a handler sharing this kit's page and waiter.
func (k *Kit) Interstitials(prompts []driver.Locator) *InterstitialHandler {
	return NewInterstitialHandler(k.Page, k.Waiter, prompts, k.Timeouts)
}

// WaitForPageReady is Waiter.WaitForPageReady on the kit's page.
func (k *Kit) WaitForPageReady(ctx context.Context) error {
	return k.Waiter.WaitForPageReady(ctx)
}

// NavigateToObject opens an object path such as /lightning/o/Lead/list
// under the base URL and waits until the page is ready.
func (k *Kit) NavigateToObject(ctx context.Context, segment string) error {
	url := k.BaseURL + segment
	nctx, cancel := context.WithTimeout(ctx, k.Timeouts.PageLoad)
	err := k.Page.Navigate(nctx, url)
	cancel()
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", segment, err)
	}
	return k.WaitForPageReady(ctx)
}

// Resolve waits out spinners, then resolves t with the probe timeout.
func (k *Kit) Resolve(ctx context.Context, t Target) (Handle, error) {
	if err := k.Waiter.SettleSpinners(ctx); err != nil {
		return Handle{}, err
	}
	return k.Resolver.Resolve(ctx, t, k.Timeouts.Probe)
}

// Click resolves t, clicks it, then waits out spinners.
func (k *Kit) Click(ctx context.Context, t Target) error {
	h, err := k.Resolve(ctx, t)
	if err != nil {
		return err
	}
	if err := k.act(ctx, h.Click); err != nil {
		return err
	}
	return k.Waiter.SettleSpinners(ctx)
}

// ClickNew opens the "New" record form from a list view. A button named
// "new" is tried when no configured candidate shows.
func (k *Kit) ClickNew(ctx context.Context, t Target) error {
	if err := k.WaitForPageReady(ctx); err != nil {
		return err
	}
	if _, ok := t.Fallback(); !ok {
		t = t.WithFallback(ButtonNamed("new"))
	}
	return k.Click(ctx, t)
}

// FillField types value into the first visible candidate of t, replacing
// whatever it held.
func (k *Kit) FillField(ctx context.Context, t Target, value string) error {
	h, err := k.Resolve(ctx, t)
	if err != nil {
		return err
	}
	return k.act(ctx, func(ctx context.Context) error { return h.Fill(ctx, value) })
}

// SelectPicklist opens a combobox and picks the option labelled option.
func (k *Kit) SelectPicklist(ctx context.Context, trigger Target, option string) error {
	h, err := k.Resolve(ctx, trigger)
	if err != nil {
		return err
	}
	if err := k.act(ctx, h.Click); err != nil {
		return err
	}
	opt, err := NewTarget(trigger.Name()+" option "+option, OptionLocator(option))
	if err != nil {
		return err
	}
	oh, err := k.Resolver.Resolve(ctx, opt, k.Timeouts.Modal)
	if err != nil {
		return err
	}
	if err := k.act(ctx, oh.Click); err != nil {
		return err
	}
	return k.Waiter.SettleSpinners(ctx)
}

// ClickSave presses the record form's save button. A button named "save"
// is tried when no configured candidate shows.
func (k *Kit) ClickSave(ctx context.Context, t Target) error {
	if _, ok := t.Fallback(); !ok {
		t = t.WithFallback(ButtonNamed("save"))
	}
	return k.Click(ctx, t)
}

// SaveConfirmation is the evidence that a save went through.
type SaveConfirmation struct {
	Toast   *ToastMessage     `json:"toast,omitempty"`
	Outcome NavigationOutcome `json:"outcome"`
}

// RecordID is the new record's id, or "" if only the toast confirmed.
func (c SaveConfirmation) RecordID() string { return c.Outcome.RecordID }

// ConfirmSave looks for the success toast first, because it disappears,
// then for the record view URL. Either confirms the save. A toast with the
// wrong text or type fails immediately; with neither signal the navigation
// error is returned.
func (k *Kit) ConfirmSave(ctx context.Context, expectedToast string) (SaveConfirmation, error) {
	var conf SaveConfirmation
	msg, err := k.Toasts.Capture(ctx, expectedToast, ToastSuccess, k.Timeouts.Toast)
	var mismatch *ToastMismatchError
	switch {
	case err == nil:
		conf.Toast = &msg
	case errors.As(err, &mismatch):
		return conf, err
	case ctx.Err() != nil:
		return conf, ctx.Err()
	default:
		k.log.Info("save toast not observed, checking navigation", "error", err)
	}

	out, err := k.Records.Extract(ctx)
	conf.Outcome = out
	if err != nil {
		if conf.Toast != nil && ctx.Err() == nil {
			k.log.Warn("save confirmed by toast only", "error", err)
			return conf, nil
		}
		return conf, err
	}
	return conf, nil
}

// Screenshot captures the page and stores it under name.
func (k *Kit) Screenshot(ctx context.Context, name string) (string, error) {
	if k.shots == nil {
		return "", errors.New("interact: no screenshot sink configured")
	}
	png, err := k.Page.Screenshot(ctx)
	if err != nil {
		return "", err
	}
	path, err := k.shots.Save(name, png)
	if err != nil {
		return "", fmt.Errorf("save screenshot %s: %w", name, err)
	}
	k.log.Debug("screenshot saved", "name", name, "path", path)
	return path, nil
}

// act runs a state-changing action under the action timeout.
func (k *Kit) act(ctx context.Context, fn func(context.Context) error) error {
	actx, cancel := context.WithTimeout(ctx, k.Timeouts.Action)
	defer cancel()
	return fn(actx)
}
