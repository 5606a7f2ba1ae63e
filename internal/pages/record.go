package pages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lightcheck/internal/catalog"
	"lightcheck/internal/driver"
	"lightcheck/internal/interact"
	"lightcheck/internal/logging"
)

type stepKind int

const (
	textField stepKind = iota
	picklist
)

// formStep is one entry on a record form. Steps with an empty value are
// skipped so optional fields stay untouched.
type formStep struct {
	kind  stepKind
	key   string
	value string
}

func field(key, value string) formStep    { return formStep{kind: textField, key: key, value: value} }
func pickList(key, value string) formStep { return formStep{kind: picklist, key: key, value: value} }

// recordPage drives the list view → New → form → Save flow shared by every
// standard object.
type recordPage struct {
	*interact.Kit
	object string
	sel    catalog.Object
	modal  interact.Target
	save   interact.Target
	log    *slog.Logger
}

func newRecordPage(kit *interact.Kit, cat *catalog.Catalog, object string) (*recordPage, error) {
	sel, err := cat.Object(object)
	if err != nil {
		return nil, err
	}
	modal, err := cat.Lightning.Modal.Target("record form modal")
	if err != nil {
		return nil, err
	}
	save, err := mergeSelectors(sel.SaveButton, cat.Lightning.ModalSave).Target(object + " save button")
	if err != nil {
		return nil, err
	}
	return &recordPage{
		Kit:    kit,
		object: object,
		sel:    sel,
		modal:  modal,
		save:   save,
		log:    logging.New("pages").With("object", object),
	}, nil
}

// mergeSelectors appends extra to primary, dropping duplicates.
func mergeSelectors(primary, extra catalog.Selectors) catalog.Selectors {
	seen := make(map[string]bool, len(primary)+len(extra))
	out := make(catalog.Selectors, 0, len(primary)+len(extra))
	for _, s := range append(append(catalog.Selectors{}, primary...), extra...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Open navigates to the object's list view.
func (p *recordPage) Open(ctx context.Context) error {
	return p.NavigateToObject(ctx, p.sel.ListPath)
}

// create opens a New form, enters steps in order and saves.
func (p *recordPage) create(ctx context.Context, steps []formStep) (interact.SaveConfirmation, error) {
	if err := p.Open(ctx); err != nil {
		return interact.SaveConfirmation{}, err
	}
	newBtn, err := p.sel.NewButton.Target(p.object + " new button")
	if err != nil {
		return interact.SaveConfirmation{}, err
	}
	if err := p.ClickNew(ctx, newBtn); err != nil {
		return interact.SaveConfirmation{}, err
	}
	if _, err := p.Resolver.Resolve(ctx, p.modal, p.Timeouts.Modal); err != nil {
		if ctx.Err() != nil {
			return interact.SaveConfirmation{}, ctx.Err()
		}
		p.log.Info("record form is not a modal, continuing", "error", err)
	}

	for _, s := range steps {
		if s.value == "" {
			continue
		}
		if err := p.enter(ctx, s); err != nil {
			return interact.SaveConfirmation{}, err
		}
	}

	if err := p.ClickSave(ctx, p.save); err != nil {
		return interact.SaveConfirmation{}, err
	}
	conf, err := p.ConfirmSave(ctx, p.createdToast())
	if err != nil {
		return conf, fmt.Errorf("save %s: %w", p.object, err)
	}
	p.log.Info("record created", "id", conf.RecordID(), "toast", conf.Toast != nil)
	return conf, nil
}

func (p *recordPage) enter(ctx context.Context, s formStep) error {
	switch s.kind {
	case picklist:
		t, err := p.sel.Picklist(s.key)
		if err != nil {
			return err
		}
		return p.SelectPicklist(ctx, t, s.value)
	default:
		t, err := p.sel.Field(s.key)
		if err != nil {
			return err
		}
		return p.FillField(ctx, t, s.value)
	}
}

func (p *recordPage) createdToast() string {
	if p.sel.CreatedToast != "" {
		return p.sel.CreatedToast
	}
	return "was created"
}

// verifyVisible resolves each target within timeout, failing on the first
// that never shows.
func (p *recordPage) verifyVisible(ctx context.Context, timeout time.Duration, targets ...interact.Target) error {
	if err := p.Waiter.SettleSpinners(ctx); err != nil {
		return err
	}
	for _, t := range targets {
		if _, err := p.Resolver.Resolve(ctx, t, timeout); err != nil {
			return fmt.Errorf("verify %s detail: %w", p.object, err)
		}
	}
	return nil
}

// headingTarget matches the record detail heading.
func headingTarget(text string) (interact.Target, error) {
	return interact.NewTarget("record heading "+text, interact.HeadingMatching(text))
}

// textTarget matches visible text, trying an attribute selector first.
func textTarget(name, text string, css ...string) (interact.Target, error) {
	locs := make([]driver.Locator, 0, len(css)+1)
	for _, c := range css {
		locs = append(locs, driver.CSS(c))
	}
	locs = append(locs, driver.Text(text))
	return interact.NewTarget(name, locs...)
}

func cssAttrValue(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}
