package scenario

import (
	"context"
	"fmt"

	"lightcheck/internal/display"
	"lightcheck/internal/fixture"
	"lightcheck/internal/interact"
)

// invalidUsername is never a real org user.
const invalidUsername = "bad_user@invalid.test"

// Builtin returns the standard suite.
func Builtin() *Registry {
	return NewRegistry().MustRegister(
		Scenario{
			Name:  "login/valid",
			Title: "log in with valid credentials and reach Lightning home",
			Tags:  []string{"smoke", "login"},
			Run:   loginValid,
		},
		Scenario{
			Name:  "login/invalid",
			Title: "show an error for invalid credentials",
			Tags:  []string{"smoke", "login"},
			Run:   loginInvalid,
		},
		Scenario{
			Name:  "TC-LEAD-001",
			Title: "create Lead with all standard fields",
			Tags:  []string{"smoke", "lead"},
			Auth:  true,
			Run: func(ctx context.Context, env *Env) error {
				l := fixture.GenerateLead()
				if err := createLead(ctx, env, l); err != nil {
					return err
				}
				if err := env.Leads.VerifyLeadDetail(ctx, l); err != nil {
					return err
				}
				env.Screenshot(ctx, "lead-created-detail")
				return nil
			},
		},
		Scenario{
			Name:  "TC-LEAD-002",
			Title: "create Lead with required fields only",
			Tags:  []string{"regression", "lead"},
			Auth:  true,
			Run: func(ctx context.Context, env *Env) error {
				if err := createLead(ctx, env, fixture.GenerateLead(fixture.RequiredOnly)); err != nil {
					return err
				}
				env.Screenshot(ctx, "lead-minimal-created")
				return nil
			},
		},
		Scenario{
			Name:  "TC-LEAD-003",
			Title: "Lead detail page displays correct data",
			Tags:  []string{"regression", "lead"},
			Auth:  true,
			Run: func(ctx context.Context, env *Env) error {
				l := fixture.GenerateLead()
				if err := createLead(ctx, env, l); err != nil {
					return err
				}
				if err := env.Leads.VerifyLeadDetail(ctx, l); err != nil {
					return err
				}
				env.Screenshot(ctx, "lead-detail-verified")
				return nil
			},
		},
		Scenario{
			Name:  "TC-OPP-001",
			Title: "create Opportunity with standard fields",
			Tags:  []string{"smoke", "opportunity"},
			Auth:  true,
			Run: func(ctx context.Context, env *Env) error {
				o := fixture.GenerateOpportunity(env.Now())
				if err := createOpportunity(ctx, env, o); err != nil {
					return err
				}
				if err := env.Opportunities.VerifyOpportunityDetail(ctx, o); err != nil {
					return err
				}
				env.Screenshot(ctx, "opportunity-created-detail")
				return nil
			},
		},
		stageScenario("TC-OPP-002", "Qualification", "50000", "opportunity-qualification"),
		stageScenario("TC-OPP-003", "Needs Analysis", "100000", "opportunity-needs-analysis"),
		Scenario{
			Name:  "TC-OPP-004",
			Title: "Opportunity detail page displays correct data",
			Tags:  []string{"regression", "opportunity"},
			Auth:  true,
			Run: func(ctx context.Context, env *Env) error {
				o := fixture.GenerateOpportunity(env.Now())
				if err := createOpportunity(ctx, env, o); err != nil {
					return err
				}
				if err := env.Opportunities.VerifyOpportunityDetail(ctx, o); err != nil {
					return err
				}
				env.Screenshot(ctx, "opportunity-detail-verified")
				return nil
			},
		},
	)
}

func stageScenario(name, stage, amount, shot string) Scenario {
	return Scenario{
		Name:  name,
		Title: "create Opportunity at " + stage + " stage",
		Tags:  []string{"regression", "opportunity"},
		Auth:  true,
		Run: func(ctx context.Context, env *Env) error {
			o := fixture.GenerateOpportunity(env.Now(), fixture.AtStage(stage, amount))
			if err := createOpportunity(ctx, env, o); err != nil {
				return err
			}
			env.Screenshot(ctx, shot)
			return nil
		},
	}
}

func loginValid(ctx context.Context, env *Env) error {
	user, pass, err := env.Config.Credentials()
	if err != nil {
		return err
	}
	err = env.Login.Login(ctx, user, pass)
	if path := loginPath(env.Login.Transitions()); path != "" {
		env.Note("login_path", path)
	}
	if err != nil {
		return err
	}
	url, err := env.Kit.Page.URL(ctx)
	if err != nil {
		return err
	}
	if !interact.AuthenticatedPattern.MatchString(url) {
		return fmt.Errorf("landed on %s, want the Lightning app", url)
	}
	return env.Login.WaitForNavBar(ctx)
}

// loginPath renders the interstitial state sequence for the report.
func loginPath(ts []interact.Transition) string {
	if len(ts) == 0 {
		return ""
	}
	codes := []string{ts[0].From.String()}
	for _, t := range ts {
		codes = append(codes, t.To.String())
	}
	return display.StatePath(codes)
}

func loginInvalid(ctx context.Context, env *Env) error {
	if err := env.Login.Goto(ctx); err != nil {
		return err
	}
	if err := env.Login.Submit(ctx, invalidUsername, "wrongpassword"); err != nil {
		return err
	}
	msg, err := env.Login.LoginError(ctx)
	if err != nil {
		return fmt.Errorf("no login error shown: %w", err)
	}
	env.Note("login_error", msg)
	return nil
}

func createLead(ctx context.Context, env *Env, l fixture.Lead) error {
	conf, err := env.Leads.CreateLead(ctx, l)
	if err != nil {
		return err
	}
	env.Note("last_name", l.LastName)
	env.Note("company", l.Company)
	noteSave(env, conf)
	return nil
}

func createOpportunity(ctx context.Context, env *Env, o fixture.Opportunity) error {
	conf, err := env.Opportunities.CreateOpportunity(ctx, o)
	if err != nil {
		return err
	}
	env.Note("name", o.Name)
	env.Note("stage", o.Stage)
	env.Note("close_date", o.CloseDate)
	noteSave(env, conf)
	return nil
}

// noteSave records the new id when the save navigated to the record.
// A toast-only confirmation still counts as created.
func noteSave(env *Env, conf interact.SaveConfirmation) {
	if id := conf.RecordID(); id != "" {
		env.RecordCreated(id)
		return
	}
	env.Note("confirmed_by", "toast")
}
