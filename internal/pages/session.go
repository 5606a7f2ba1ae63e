package pages

import (
	"lightcheck/internal/catalog"
	"lightcheck/internal/interact"
)

// Session is every page object bound to one browser page.
type Session struct {
	Kit           *interact.Kit
	Login         *LoginPage
	Leads         *LeadPage
	Opportunities *OpportunityPage
}

// NewSession builds the page objects over kit.
func NewSession(kit *interact.Kit, cat *catalog.Catalog, loginURL string) (*Session, error) {
	login, err := NewLoginPage(kit, cat, loginURL)
	if err != nil {
		return nil, err
	}
	leads, err := NewLeadPage(kit, cat)
	if err != nil {
		return nil, err
	}
	opps, err := NewOpportunityPage(kit, cat)
	if err != nil {
		return nil, err
	}
	return &Session{Kit: kit, Login: login, Leads: leads, Opportunities: opps}, nil
}

// KitOptions derives kit settings from the catalog's global selectors.
func KitOptions(cat *catalog.Catalog, baseURL string, t interact.Timeouts, shots interact.ScreenshotSink) interact.KitOptions {
	return interact.KitOptions{
		BaseURL:         baseURL,
		Timeouts:        t,
		Spinners:        cat.Lightning.Spinners,
		ToastContainers: cat.Lightning.ToastContainer,
		Screenshots:     shots,
	}
}
