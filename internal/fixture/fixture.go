// Package fixture generates unique record data so repeated runs never
// collide and created records can be traced back to a run.
package fixture

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// CloseDateLayout is the record form's date format (en_US locale).
const CloseDateLayout = "01/02/2006"

// CloseDateOffset is how far ahead generated opportunities close.
const CloseDateOffset = 30 * 24 * time.Hour

// UID returns a short lowercase unique suffix. ULIDs from one process are
// monotonic, so two calls in the same millisecond still differ.
func UID() string {
	return strings.ToLower(ulid.Make().String())
}

// Lead is the data entered on the New Lead form. Empty fields are left
// untouched on the form.
type Lead struct {
	UID        string `json:"uid"`
	Salutation string `json:"salutation,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name"`
	Company    string `json:"company"`
	Title      string `json:"title,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	LeadStatus string `json:"lead_status,omitempty"`
}

// GenerateLead returns a fully populated lead, then applies overrides.
func GenerateLead(overrides ...func(*Lead)) Lead {
	id := UID()
	l := Lead{
		UID:        id,
		Salutation: "Mr.",
		FirstName:  "AutoTest",
		LastName:   "Lead_" + id,
		Company:    "TestCorp_" + id,
		Title:      "QA Engineer",
		Email:      "lead_" + id + "@testautomation.dev",
		Phone:      "5551234567",
		LeadStatus: "Open - Not Contacted",
	}
	for _, o := range overrides {
		o(&l)
	}
	return l
}

// RequiredOnly keeps only the fields the Lead object requires.
func RequiredOnly(l *Lead) {
	l.Salutation = ""
	l.FirstName = ""
	l.Title = ""
	l.Email = ""
	l.Phone = ""
}

// Opportunity is the data entered on the New Opportunity form.
type Opportunity struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	CloseDate   string `json:"close_date"`
	Stage       string `json:"stage"`
	Amount      string `json:"amount,omitempty"`
	AccountName string `json:"account_name,omitempty"`
}

// GenerateOpportunity returns an opportunity closing CloseDateOffset after
// now, then applies overrides.
func GenerateOpportunity(now time.Time, overrides ...func(*Opportunity)) Opportunity {
	id := UID()
	o := Opportunity{
		UID:       id,
		Name:      "AutoTest_Opp_" + id,
		CloseDate: now.Add(CloseDateOffset).Format(CloseDateLayout),
		Stage:     "Prospecting",
		Amount:    "25000",
	}
	for _, fn := range overrides {
		fn(&o)
	}
	return o
}

// AtStage overrides the stage and amount.
func AtStage(stage, amount string) func(*Opportunity) {
	return func(o *Opportunity) {
		o.Stage = stage
		o.Amount = amount
	}
}
