package rp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lightcheck/internal/display"
	"lightcheck/internal/scenario"
)

// Publisher turns run summaries into launches.
type Publisher struct {
	client      *Client
	project     string
	launchName  string
	attributes  []Attribute
	description string
}

// NewPublisher returns a Publisher that opens launches named launchName in
// project.
func NewPublisher(client *Client, project, launchName string) *Publisher {
	return &Publisher{client: client, project: project, launchName: launchName}
}

// WithAttributes adds attrs to every launch, e.g. the org under test.
func (p *Publisher) WithAttributes(attrs ...Attribute) *Publisher {
	p.attributes = append(p.attributes, attrs...)
	return p
}

func (p *Publisher) WithDescription(d string) *Publisher {
	p.description = d
	return p
}

// Published identifies the launch a summary became.
type Published struct {
	LaunchUUID string
	Number     int
	Link       string
	Items      int
}

// Publish reports sum as one launch. An item failure aborts the publish
// but the launch is still finished so it does not stay in progress.
func (p *Publisher) Publish(ctx context.Context, sum scenario.Summary) (*Published, error) {
	proj := p.client.Project(p.project)
	log := p.client.log.With("project", p.project, "run_id", sum.RunID)

	attrs := append([]Attribute{{Key: "run_id", Value: sum.RunID}}, p.attributes...)
	launch, err := proj.Launches().Start(ctx, StartLaunchRQ{
		Name:        p.launchName,
		Description: p.description,
		StartTime:   EpochMillis(sum.StartedAt),
		Attributes:  attrs,
	})
	if err != nil {
		return nil, err
	}
	log.Info("launch started", "launch", launch)

	out := &Published{LaunchUUID: launch}
	var itemErr error
	for _, res := range sum.Results {
		if err := p.publishResult(ctx, proj, launch, res); err != nil {
			itemErr = fmt.Errorf("publish %s: %w", res.Name, err)
			break
		}
		out.Items++
	}

	end := sum.StartedAt.Add(sum.Duration)
	if end.Before(sum.StartedAt) || sum.Duration == 0 {
		end = time.Now()
	}
	fin, err := proj.Launches().Finish(ctx, launch, FinishLaunchRQ{EndTime: EpochMillis(end)})
	if itemErr != nil {
		return out, itemErr
	}
	if err != nil {
		return out, err
	}
	out.Number, out.Link = fin.Number, fin.Link
	log.Info("launch finished", "launch", launch, "items", out.Items, "link", fin.Link)
	return out, nil
}

func (p *Publisher) publishResult(ctx context.Context, proj *ProjectScope, launch string, res scenario.Result) error {
	start := res.StartedAt
	attrs := make([]Attribute, 0, len(res.Tags)+1)
	for _, t := range res.Tags {
		attrs = append(attrs, Attribute{Value: t})
	}
	if res.RecordID != "" {
		attrs = append(attrs, Attribute{Key: "record_id", Value: res.RecordID})
	}
	item, err := proj.Items().Start(ctx, StartItemRQ{
		Name:        res.Name,
		Description: res.Title,
		StartTime:   EpochMillis(start),
		Type:        "TEST",
		LaunchUUID:  launch,
		CodeRef:     "lightcheck/" + res.Name,
		TestCaseID:  res.Name,
		Attributes:  attrs,
	})
	if err != nil {
		return err
	}

	end := start.Add(res.Duration)
	if res.Status == scenario.Failed {
		if err := proj.Logs().Save(ctx, SaveLogRQ{
			LaunchUUID: launch,
			ItemUUID:   item,
			Time:       EpochMillis(end),
			Message:    failureMessage(res),
			Level:      LevelError,
		}); err != nil {
			return err
		}
	}

	rq := FinishItemRQ{EndTime: EpochMillis(end), Status: itemStatus(res.Status), LaunchUUID: launch}
	if res.Status == scenario.Failed {
		rq.Issue = &Issue{IssueType: DefectType(res.ErrorKind), Comment: display.ErrorKindWithCode(res.ErrorKind)}
	}
	return proj.Items().Finish(ctx, item, rq)
}

func itemStatus(s scenario.Status) string {
	switch s {
	case scenario.Passed:
		return StatusPassed
	case scenario.Failed:
		return StatusFailed
	}
	return StatusSkipped
}

// DefectType maps a failure kind to a default defect locator. Failures of
// the org or network are system issues, a wrong or missing outcome is a
// product bug, and a selector that no longer matches is an automation bug.
func DefectType(kind string) string {
	switch kind {
	case "authentication", "navigation-timeout", "spinner-timeout", "cancelled":
		return DefectSystemIssue
	case "toast-mismatch", "toast-timeout":
		return DefectProductBug
	case "not-found":
		return DefectAutomationBug
	}
	return DefectToInvestigate
}

func failureMessage(res scenario.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", display.ErrorKindWithCode(res.ErrorKind), res.Error)
	for _, s := range res.Screenshots {
		fmt.Fprintf(&b, "\nscreenshot: %s", s)
	}
	return b.String()
}
