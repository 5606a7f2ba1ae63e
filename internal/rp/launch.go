package rp

import "context"

// LaunchScope starts and finishes launches within a project.
type LaunchScope struct {
	project *ProjectScope
}

// Start opens a launch and returns its UUID.
func (l *LaunchScope) Start(ctx context.Context, rq StartLaunchRQ) (string, error) {
	if rq.Mode == "" {
		rq.Mode = "DEFAULT"
	}
	var rs EntryCreatedRS
	if err := l.project.client.doJSON(ctx, "POST", l.project.url("/launch"), "start launch", rq, &rs); err != nil {
		return "", err
	}
	return rs.ID, nil
}

// Finish closes the launch. Report Portal derives the launch status from
// its items when rq.Status is empty.
func (l *LaunchScope) Finish(ctx context.Context, uuid string, rq FinishLaunchRQ) (*FinishLaunchRS, error) {
	var rs FinishLaunchRS
	if err := l.project.client.doJSON(ctx, "PUT", l.project.url("/launch/%s/finish", uuid), "finish launch", rq, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}
