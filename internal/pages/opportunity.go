package pages

import (
	"context"

	"lightcheck/internal/catalog"
	"lightcheck/internal/fixture"
	"lightcheck/internal/interact"
)

const OpportunityObject = "Opportunity"

// OpportunityPage creates and checks Opportunity records.
type OpportunityPage struct {
	*recordPage
}

func NewOpportunityPage(kit *interact.Kit, cat *catalog.Catalog) (*OpportunityPage, error) {
	rp, err := newRecordPage(kit, cat, OpportunityObject)
	if err != nil {
		return nil, err
	}
	return &OpportunityPage{rp}, nil
}

// CreateOpportunity fills the New Opportunity form with o and saves it.
func (p *OpportunityPage) CreateOpportunity(ctx context.Context, o fixture.Opportunity) (interact.SaveConfirmation, error) {
	return p.create(ctx, []formStep{
		field("name", o.Name),
		field("close_date", o.CloseDate),
		pickList("stage", o.Stage),
		field("amount", o.Amount),
		field("account_name", o.AccountName),
	})
}

// VerifyOpportunityDetail checks the heading names the opportunity and the
// stage shows on the path or in the details.
func (p *OpportunityPage) VerifyOpportunityDetail(ctx context.Context, o fixture.Opportunity) error {
	heading, err := headingTarget(o.Name)
	if err != nil {
		return err
	}
	if err := p.verifyVisible(ctx, p.Timeouts.Toast, heading); err != nil {
		return err
	}
	stage, err := textTarget("stage "+o.Stage, o.Stage, "a[title="+cssAttrValue(o.Stage)+"]")
	if err != nil {
		return err
	}
	return p.verifyVisible(ctx, p.Timeouts.Modal, stage)
}
