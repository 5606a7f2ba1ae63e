package interact

import "time"

// Fallback values used when configuration leaves a timeout unset.
const (
	DefaultPageLoadTimeout   = 60 * time.Second
	DefaultToastTimeout      = 15 * time.Second
	DefaultModalTimeout      = 10 * time.Second
	DefaultSpinnerTimeout    = 30 * time.Second
	DefaultProbeTimeout      = 5 * time.Second
	DefaultPromptProbe       = 3 * time.Second
	DefaultRedirectTimeout   = 30 * time.Second
	DefaultSettleDelay       = 1 * time.Second
	DefaultPollInterval      = 200 * time.Millisecond
	DefaultNavigationTimeout = 60 * time.Second
	DefaultActionTimeout     = 30 * time.Second
)

// Timeouts groups every bound the layer waits under.
type Timeouts struct {
	PageLoad time.Duration `yaml:"page_load" json:"page_load"`
	Toast    time.Duration `yaml:"toast" json:"toast"`
	// Modal bounds dropdowns, listboxes and dialogs.
	Modal   time.Duration `yaml:"modal" json:"modal"`
	Spinner time.Duration `yaml:"spinner" json:"spinner"`
	// Probe is the per-candidate visibility probe.
	Probe       time.Duration `yaml:"probe" json:"probe"`
	PromptProbe time.Duration `yaml:"prompt_probe" json:"prompt_probe"`
	// RedirectPrimary and RedirectSecondary bound the two waits for the
	// post-login redirect, before and after interstitial handling.
	RedirectPrimary   time.Duration `yaml:"redirect_primary" json:"redirect_primary"`
	RedirectSecondary time.Duration `yaml:"redirect_secondary" json:"redirect_secondary"`
	// Settle is the fixed pause after spinners clear. It papers over
	// hydration that finishes after the spinner is gone and is a known
	// source of residual flakiness.
	Settle     time.Duration `yaml:"settle" json:"settle"`
	Poll       time.Duration `yaml:"poll" json:"poll"`
	Navigation time.Duration `yaml:"navigation" json:"navigation"`
	Action     time.Duration `yaml:"action" json:"action"`
}

// DefaultTimeouts returns the documented fallback constants.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		PageLoad:          DefaultPageLoadTimeout,
		Toast:             DefaultToastTimeout,
		Modal:             DefaultModalTimeout,
		Spinner:           DefaultSpinnerTimeout,
		Probe:             DefaultProbeTimeout,
		PromptProbe:       DefaultPromptProbe,
		RedirectPrimary:   DefaultRedirectTimeout,
		RedirectSecondary: DefaultRedirectTimeout,
		Settle:            DefaultSettleDelay,
		Poll:              DefaultPollInterval,
		Navigation:        DefaultNavigationTimeout,
		Action:            DefaultActionTimeout,
	}
}

// WithDefaults fills zero fields from DefaultTimeouts. Settle is left alone
// when negative so callers can disable it with -1.
func (t Timeouts) WithDefaults() Timeouts {
	d := DefaultTimeouts()
	fill := func(v *time.Duration, def time.Duration) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&t.PageLoad, d.PageLoad)
	fill(&t.Toast, d.Toast)
	fill(&t.Modal, d.Modal)
	fill(&t.Spinner, d.Spinner)
	fill(&t.Probe, d.Probe)
	fill(&t.PromptProbe, d.PromptProbe)
	fill(&t.RedirectPrimary, d.RedirectPrimary)
	fill(&t.RedirectSecondary, d.RedirectSecondary)
	fill(&t.Settle, d.Settle)
	fill(&t.Poll, d.Poll)
	fill(&t.Navigation, d.Navigation)
	fill(&t.Action, d.Action)
	if t.Settle < 0 {
		t.Settle = 0
	}
	return t
}
