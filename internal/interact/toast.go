package interact

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"lightcheck/internal/driver"
	"lightcheck/internal/logging"
)

// ToastType classifies a captured toast.
type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastOther   ToastType = "other"
)

// successClass marks a success-styled toast container.
var successClass = regexp.MustCompile(`(?i)slds-theme_success|toastMessage`)

// DefaultToastContainers are the Lightning toast container markers.
var DefaultToastContainers = []string{"div.slds-notify_toast", "div.toastContainer"}

// ToastMessage is a toast read while it was on screen.
type ToastMessage struct {
	Text       string    `json:"text"`
	Type       ToastType `json:"type"`
	Classes    string    `json:"classes,omitempty"`
	Locator    string    `json:"locator"`
	CapturedAt time.Time `json:"captured_at"`
}

// ToastObserver captures toasts. A toast is shown once; nothing here retries.
type ToastObserver struct {
	page       driver.Page
	waiter     *Waiter
	containers Target
	log        *slog.Logger
}

// NewToastObserver watches the candidate container locators of containers.
func NewToastObserver(page driver.Page, waiter *Waiter, containers Target) *ToastObserver {
	return &ToastObserver{page: page, waiter: waiter, containers: containers, log: logging.New("toast")}
}

// Capture waits up to timeout for any toast container to show, reads its
// text and asserts that it contains expected, ignoring case. When want is
// ToastSuccess the container must also carry a success marker class. A
// toast that never shows yields *ToastTimeoutError; wrong content or type
// yields *ToastMismatchError.
func (o *ToastObserver) Capture(ctx context.Context, expected string, want ToastType, timeout time.Duration) (ToastMessage, error) {
	var found driver.Locator
	err := o.waiter.Until(ctx, Condition{
		Name:    "toast visible",
		Timeout: timeout,
		Check: func(ctx context.Context) (bool, error) {
			var lastErr error
			for _, loc := range o.containers.candidates {
				ok, err := o.page.Visible(ctx, loc)
				if err != nil {
					lastErr = err
					continue
				}
				if ok {
					found = loc
					return true, nil
				}
			}
			return false, lastErr
		},
	})
	if err != nil {
		if IsTimeout(err) {
			return ToastMessage{}, &ToastTimeoutError{Expected: expected, Candidates: o.containers.Strings(), Timeout: timeout}
		}
		return ToastMessage{}, err
	}

	msg := ToastMessage{Locator: found.String(), CapturedAt: time.Now()}
	text, err := o.page.Text(ctx, found)
	if err != nil {
		return msg, fmt.Errorf("read toast %s: %w", found, err)
	}
	msg.Text = strings.TrimSpace(text)
	classes, _, err := o.page.Attribute(ctx, found, "class")
	if err != nil {
		return msg, fmt.Errorf("read toast class %s: %w", found, err)
	}
	msg.Classes = classes
	msg.Type = classify(classes)
	o.log.Info("toast captured", "text", msg.Text, "type", msg.Type)

	if !strings.Contains(strings.ToLower(msg.Text), strings.ToLower(expected)) {
		return msg, &ToastMismatchError{Expected: expected, Actual: msg.Text, WantType: want, GotType: msg.Type, Classes: classes}
	}
	if want == ToastSuccess && msg.Type != ToastSuccess {
		return msg, &ToastMismatchError{Expected: expected, Actual: msg.Text, WantType: want, GotType: msg.Type, Classes: classes}
	}
	return msg, nil
}

func classify(classes string) ToastType {
	if successClass.MatchString(classes) {
		return ToastSuccess
	}
	return ToastOther
}
