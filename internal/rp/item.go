package rp

import "context"

// ItemScope starts and finishes test items within a project.
type ItemScope struct {
	project *ProjectScope
}

// Start opens a root item of the launch named in rq and returns its UUID.
func (s *ItemScope) Start(ctx context.Context, rq StartItemRQ) (string, error) {
	var rs EntryCreatedRS
	if err := s.project.client.doJSON(ctx, "POST", s.project.url("/item"), "start item", rq, &rs); err != nil {
		return "", err
	}
	return rs.ID, nil
}

// StartChild opens an item nested under parent.
func (s *ItemScope) StartChild(ctx context.Context, parent string, rq StartItemRQ) (string, error) {
	var rs EntryCreatedRS
	if err := s.project.client.doJSON(ctx, "POST", s.project.url("/item/%s", parent), "start child item", rq, &rs); err != nil {
		return "", err
	}
	return rs.ID, nil
}

func (s *ItemScope) Finish(ctx context.Context, uuid string, rq FinishItemRQ) error {
	return s.project.client.doJSON(ctx, "PUT", s.project.url("/item/%s", uuid), "finish item", rq, &OperationCompletionRS{})
}

// LogScope attaches log entries to items.
type LogScope struct {
	project *ProjectScope
}

func (s *LogScope) Save(ctx context.Context, rq SaveLogRQ) error {
	return s.project.client.doJSON(ctx, "POST", s.project.url("/log/entry"), "save log", rq, &EntryCreatedRS{})
}
