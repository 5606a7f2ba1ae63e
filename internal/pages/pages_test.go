package pages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lightcheck/internal/catalog"
	"lightcheck/internal/driver"
	"lightcheck/internal/driver/fakepage"
	"lightcheck/internal/fixture"
	"lightcheck/internal/interact"
)

const (
	baseURL  = "https://acme.lightning.force.com"
	loginURL = "https://login.example.test"
)

func testTimeouts() interact.Timeouts {
	return interact.Timeouts{
		PageLoad:          time.Second,
		Toast:             80 * time.Millisecond,
		Modal:             60 * time.Millisecond,
		Spinner:           60 * time.Millisecond,
		Probe:             30 * time.Millisecond,
		PromptProbe:       20 * time.Millisecond,
		RedirectPrimary:   50 * time.Millisecond,
		RedirectSecondary: 100 * time.Millisecond,
		Settle:            -1,
		Poll:              5 * time.Millisecond,
		Navigation:        80 * time.Millisecond,
		Action:            time.Second,
	}
}

func newSession(t *testing.T, p *fakepage.Page) *Session {
	t.Helper()
	cat := catalog.Default()
	kit, err := interact.NewKit(p, KitOptions(cat, baseURL, testTimeouts(), nil))
	if err != nil {
		t.Fatalf("NewKit: %v", err)
	}
	s, err := NewSession(kit, cat, loginURL)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

var (
	newButton  = driver.CSS("a[title='New']")
	saveButton = driver.CSS("button[name='SaveEdit']")
	modal      = driver.CSS("div.slds-modal__container")
	toast      = driver.CSS("div.slds-notify_toast")
)

// leadForm renders a New Lead modal whose picklists open their options.
func leadForm(p *fakepage.Page, l fixture.Lead) {
	p.Show(newButton).OnClick(newButton, func(p *fakepage.Page) {
		p.Show(modal)
		for _, sel := range []string{"input[name='firstName']", "input[name='lastName']", "input[name='Company']", "input[name='Title']", "input[name='Email']", "input[name='Phone']"} {
			p.Show(driver.CSS(sel))
		}
		p.Show(saveButton)
	})
	salutation := driver.CSS("button[aria-label='Salutation']")
	status := driver.CSS("button[aria-label='Lead Status']")
	p.Show(salutation).OnClick(salutation, func(p *fakepage.Page) { p.Show(interact.OptionLocator(l.Salutation)) })
	p.Show(status).OnClick(status, func(p *fakepage.Page) { p.Show(interact.OptionLocator(l.LeadStatus)) })
}

func savesRecord(object, id string) func(*fakepage.Page) {
	return func(p *fakepage.Page) {
		p.Set(toast, fakepage.Element{Visible: true, Text: object + ` "x" was created.`, Attrs: map[string]string{"class": "slds-notify_toast slds-theme_success"}})
		p.SetURL(baseURL + "/lightning/r/" + object + "/" + id + "/view")
	}
}

func TestLeadPage_CreateLead(t *testing.T) {
	l := fixture.GenerateLead()
	p := fakepage.New("about:blank")
	leadForm(p, l)
	p.OnClick(saveButton, savesRecord("Lead", "00Q5g00000AbCde"))
	s := newSession(t, p)

	conf, err := s.Leads.CreateLead(context.Background(), l)
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if conf.RecordID() != "00Q5g00000AbCde" || conf.Toast == nil {
		t.Errorf("confirmation = %+v", conf)
	}

	var got []string
	for _, f := range p.Fills() {
		got = append(got, f.Value)
	}
	want := []string{l.FirstName, l.LastName, l.Company, l.Title, l.Email, l.Phone}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filled values (-want +got):\n%s", diff)
	}
	clicks := p.Clicks()
	if clicks[0] != newButton.String() || clicks[len(clicks)-1] != saveButton.String() {
		t.Errorf("clicks = %v", clicks)
	}
	if n := len(clicks); n != 6 {
		t.Errorf("%d clicks, want new, 2 picklists with options, save", n)
	}
}

func TestLeadPage_RequiredOnlySkipsEmptyFields(t *testing.T) {
	l := fixture.GenerateLead(fixture.RequiredOnly)
	p := fakepage.New("about:blank")
	leadForm(p, l)
	p.OnClick(saveButton, savesRecord("Lead", "00Q000000000001"))
	s := newSession(t, p)

	if _, err := s.Leads.CreateLead(context.Background(), l); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	want := []fakepage.Fill{
		{Locator: "css=input[name='lastName']", Value: l.LastName},
		{Locator: "css=input[name='Company']", Value: l.Company},
	}
	if diff := cmp.Diff(want, p.Fills()); diff != "" {
		t.Errorf("fills (-want +got):\n%s", diff)
	}
}

func TestLeadPage_ValidationErrorKeepsForm(t *testing.T) {
	l := fixture.GenerateLead()
	p := fakepage.New("about:blank")
	leadForm(p, l)
	s := newSession(t, p)

	_, err := s.Leads.CreateLead(context.Background(), l)
	var nav *interact.NavigationTimeoutError
	if !errors.As(err, &nav) {
		t.Fatalf("err = %v, want *NavigationTimeoutError", err)
	}
	if nav.LastURL != baseURL+"/lightning/o/Lead/list" {
		t.Errorf("LastURL = %q", nav.LastURL)
	}
}

func TestLeadPage_VerifyLeadDetail(t *testing.T) {
	l := fixture.GenerateLead()
	p := fakepage.New(baseURL + "/lightning/r/Lead/00Q5g00000AbCde/view")
	s := newSession(t, p)

	if err := s.Leads.VerifyLeadDetail(context.Background(), l); err == nil {
		t.Fatal("verified an empty detail page")
	}
	p.Show(interact.HeadingMatching(l.LastName)).Show(driver.Text(l.Company))
	if err := s.Leads.VerifyLeadDetail(context.Background(), l); err != nil {
		t.Fatalf("VerifyLeadDetail: %v", err)
	}
}

func TestOpportunityPage_CreateAndVerify(t *testing.T) {
	o := fixture.GenerateOpportunity(time.Now(), fixture.AtStage("Qualification", "50000"))
	stage := driver.CSS("button[aria-label='Stage']")
	p := fakepage.New("about:blank")
	p.Show(newButton).OnClick(newButton, func(p *fakepage.Page) {
		p.Show(modal).Show(stage).Show(saveButton)
		p.Show(driver.CSS("input[name='Name']")).Show(driver.CSS("input[name='CloseDate']")).Show(driver.CSS("input[name='Amount']"))
	})
	p.OnClick(stage, func(p *fakepage.Page) { p.Show(interact.OptionLocator("Qualification")) })
	p.OnClick(saveButton, func(p *fakepage.Page) {
		savesRecord("Opportunity", "0065g00000XyZ12AAB")(p)
		p.Show(interact.HeadingMatching(o.Name)).Show(driver.CSS(`a[title="Qualification"]`))
	})
	s := newSession(t, p)

	conf, err := s.Opportunities.CreateOpportunity(context.Background(), o)
	if err != nil {
		t.Fatalf("CreateOpportunity: %v", err)
	}
	if conf.Outcome.Object != "Opportunity" || conf.RecordID() != "0065g00000XyZ12AAB" {
		t.Errorf("outcome = %+v", conf.Outcome)
	}
	if err := s.Opportunities.VerifyOpportunityDetail(context.Background(), o); err != nil {
		t.Fatalf("VerifyOpportunityDetail: %v", err)
	}
}

func loginForm(p *fakepage.Page) {
	p.Show(driver.CSS("#username")).Show(driver.CSS("#password")).Show(driver.CSS("#Login"))
}

func TestLoginPage_Login(t *testing.T) {
	p := fakepage.New("about:blank")
	loginForm(p)
	p.OnClick(driver.CSS("#Login"), func(p *fakepage.Page) { p.SetURL(baseURL + "/lightning/page/home") })
	s := newSession(t, p)

	if s.Login.State() != interact.Unauthenticated {
		t.Errorf("initial state = %s", s.Login.State())
	}
	if err := s.Login.Login(context.Background(), "qa@acme.test", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.Login.State() != interact.Authenticated {
		t.Errorf("state = %s, want authenticated", s.Login.State())
	}
	want := []fakepage.Fill{
		{Locator: "css=#username", Value: "qa@acme.test"},
		{Locator: "css=#password", Value: "pw"},
	}
	if diff := cmp.Diff(want, p.Fills()); diff != "" {
		t.Errorf("fills (-want +got):\n%s", diff)
	}
}

func TestLoginPage_InterstitialThenHome(t *testing.T) {
	skip := interact.ButtonNamed("skip")
	p := fakepage.New("about:blank")
	loginForm(p)
	p.OnClick(driver.CSS("#Login"), func(p *fakepage.Page) {
		p.SetURL(loginURL + "/_ui/identity/phone/AddPhoneNumber")
		p.Show(skip)
	})
	p.OnClick(skip, func(p *fakepage.Page) { p.SetURL(baseURL + "/lightning/page/home") })
	s := newSession(t, p)

	if err := s.Login.Login(context.Background(), "qa@acme.test", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.Login.State() != interact.Authenticated {
		t.Errorf("state = %s", s.Login.State())
	}
	if len(s.Login.Transitions()) != 2 {
		t.Errorf("transitions = %+v", s.Login.Transitions())
	}
}

func TestLoginPage_MissingCredentials(t *testing.T) {
	p := fakepage.New("about:blank")
	s := newSession(t, p)

	err := s.Login.Login(context.Background(), "", "")
	var ae *interact.AuthenticationError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *AuthenticationError", err)
	}
	if diff := cmp.Diff([]string{"SF_USERNAME", "SF_PASSWORD"}, ae.Missing); diff != "" {
		t.Errorf("Missing (-want +got):\n%s", diff)
	}
	if s.Login.State() != interact.AuthenticationFailed {
		t.Errorf("state = %s", s.Login.State())
	}
	if u, _ := p.URL(context.Background()); u != "about:blank" {
		t.Errorf("navigated to %s without credentials", u)
	}
}

func TestLoginPage_InvalidCredentials(t *testing.T) {
	p := fakepage.New("about:blank")
	loginForm(p)
	p.OnClick(driver.CSS("#Login"), func(p *fakepage.Page) {
		p.Set(driver.CSS("#error"), fakepage.Element{Visible: true, Text: " Please check your username and password. "})
	})
	s := newSession(t, p)

	if err := s.Login.Goto(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Login.Submit(context.Background(), "bad_user@invalid.test", "wrong"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	msg, err := s.Login.LoginError(context.Background())
	if err != nil {
		t.Fatalf("LoginError: %v", err)
	}
	if msg != "Please check your username and password." {
		t.Errorf("msg = %q", msg)
	}
}
