package rp

import (
	"encoding/json"
	"fmt"
	"time"
)

// maxMillisTimestamp is the upper bound for a value to be read as
// milliseconds (about year 2286). Larger values are microseconds.
const maxMillisTimestamp int64 = 1e13

// EpochMillis is a time serialized as Unix milliseconds. Decoding also
// accepts microseconds, which newer Report Portal versions return.
type EpochMillis time.Time

func (e EpochMillis) Time() time.Time { return time.Time(e) }

func (e EpochMillis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(e).UnixMilli())
}

func (e *EpochMillis) UnmarshalJSON(data []byte) error {
	var value int64
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("unmarshal epoch millis: %w", err)
	}
	if value >= maxMillisTimestamp {
		*e = EpochMillis(time.UnixMicro(value))
	} else {
		*e = EpochMillis(time.UnixMilli(value))
	}
	return nil
}

// Item and launch statuses.
const (
	StatusPassed  = "PASSED"
	StatusFailed  = "FAILED"
	StatusSkipped = "SKIPPED"
)

// Default defect type locators.
const (
	DefectProductBug    = "pb001"
	DefectAutomationBug = "ab001"
	DefectSystemIssue   = "si001"
	DefectToInvestigate = "ti001"
	DefectNoDefect      = "nd001"
)

// Log levels.
const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Attribute is a key/value label on a launch or item.
type Attribute struct {
	Key    string `json:"key,omitempty"`
	Value  string `json:"value"`
	System bool   `json:"system,omitempty"`
}

// --- Requests ---

type StartLaunchRQ struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	StartTime   EpochMillis `json:"startTime"`
	Mode        string      `json:"mode,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

type FinishLaunchRQ struct {
	EndTime EpochMillis `json:"endTime"`
	Status  string      `json:"status,omitempty"`
}

type StartItemRQ struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	StartTime   EpochMillis `json:"startTime"`
	Type        string      `json:"type"`
	LaunchUUID  string      `json:"launchUuid"`
	CodeRef     string      `json:"codeRef,omitempty"`
	TestCaseID  string      `json:"testCaseId,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

type FinishItemRQ struct {
	EndTime    EpochMillis `json:"endTime"`
	Status     string      `json:"status"`
	LaunchUUID string      `json:"launchUuid"`
	Issue      *Issue      `json:"issue,omitempty"`
}

// Issue is the defect attached to a failed item.
type Issue struct {
	IssueType string `json:"issueType"`
	Comment   string `json:"comment,omitempty"`
}

type SaveLogRQ struct {
	LaunchUUID string      `json:"launchUuid"`
	ItemUUID   string      `json:"itemUuid,omitempty"`
	Time       EpochMillis `json:"time"`
	Message    string      `json:"message"`
	Level      string      `json:"level"`
}

// --- Responses ---

// EntryCreatedRS carries the UUID of a started launch, item or log.
type EntryCreatedRS struct {
	ID string `json:"id"`
}

type FinishLaunchRS struct {
	ID     string `json:"id"`
	Number int    `json:"number,omitempty"`
	Link   string `json:"link,omitempty"`
}

type OperationCompletionRS struct {
	Message string `json:"message"`
}

// ErrorRS is the standard error body.
type ErrorRS struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
}
