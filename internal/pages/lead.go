package pages

import (
	"context"

	"lightcheck/internal/catalog"
	"lightcheck/internal/fixture"
	"lightcheck/internal/interact"
)

// LeadObject is the Lead sObject's API name.
const LeadObject = "Lead"

// LeadPage creates and checks Lead records.
type LeadPage struct {
	*recordPage
}

func NewLeadPage(kit *interact.Kit, cat *catalog.Catalog) (*LeadPage, error) {
	rp, err := newRecordPage(kit, cat, LeadObject)
	if err != nil {
		return nil, err
	}
	return &LeadPage{rp}, nil
}

// CreateLead fills the New Lead form with l and saves it.
func (p *LeadPage) CreateLead(ctx context.Context, l fixture.Lead) (interact.SaveConfirmation, error) {
	return p.create(ctx, []formStep{
		pickList("salutation", l.Salutation),
		field("first_name", l.FirstName),
		field("last_name", l.LastName),
		field("company", l.Company),
		field("title", l.Title),
		field("email", l.Email),
		field("phone", l.Phone),
		pickList("lead_status", l.LeadStatus),
	})
}

// VerifyLeadDetail checks the detail page heading names the lead and the
// company is shown.
func (p *LeadPage) VerifyLeadDetail(ctx context.Context, l fixture.Lead) error {
	heading, err := headingTarget(l.LastName)
	if err != nil {
		return err
	}
	if err := p.verifyVisible(ctx, p.Timeouts.Toast, heading); err != nil {
		return err
	}
	company, err := textTarget("company "+l.Company, l.Company)
	if err != nil {
		return err
	}
	return p.verifyVisible(ctx, p.Timeouts.Modal, company)
}
