package interact

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"lightcheck/internal/logging"
)

// RecordViewPattern matches a record detail URL, capturing the object API
// name and the record id. Waiting and parsing share this one value so the
// two cannot drift apart.
var RecordViewPattern = regexp.MustCompile(`(?i)/lightning/r/(\w+)/(\w+)/view`)

// NavigationOutcome is where a save landed.
type NavigationOutcome struct {
	URL      string `json:"url"`
	Object   string `json:"object,omitempty"`
	RecordID string `json:"record_id,omitempty"`
}

// ParseRecordID extracts the record id from a record detail URL.
func ParseRecordID(url string) (NavigationOutcome, bool) {
	m := RecordViewPattern.FindStringSubmatch(url)
	if m == nil {
		return NavigationOutcome{URL: url}, false
	}
	return NavigationOutcome{URL: url, Object: m[1], RecordID: m[2]}, true
}

// RecordIDExtractor reads the new record's id after a save.
type RecordIDExtractor struct {
	waiter  *Waiter
	timeout time.Duration
	log     *slog.Logger
}

// NewRecordIDExtractor waits up to timeout for the record view.
func NewRecordIDExtractor(waiter *Waiter, timeout time.Duration) *RecordIDExtractor {
	return &RecordIDExtractor{waiter: waiter, timeout: timeout, log: logging.New("recordid")}
}

// Extract waits for the record detail URL and parses the id out of it. A
// save that did not navigate (validation errors keep the form open) yields
// *NavigationTimeoutError. RecordID is only empty if the parse fails after
// the wait matched, which the shared pattern rules out.
func (x *RecordIDExtractor) Extract(ctx context.Context) (NavigationOutcome, error) {
	url, err := x.waiter.WaitForURL(ctx, RecordViewPattern, x.timeout)
	if err != nil {
		return NavigationOutcome{URL: url}, err
	}
	out, ok := ParseRecordID(url)
	if !ok {
		x.log.Warn("record url matched wait but not parse", "url", url)
		return out, nil
	}
	x.log.Info("record id extracted", "object", out.Object, "id", out.RecordID)
	return out, nil
}
