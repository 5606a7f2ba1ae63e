package rp

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx reply from Report Portal.
type APIError struct {
	Op      string // e.g. "start launch"
	Status  int    // HTTP status
	Code    int    // Report Portal errorCode, 0 when the body had none
	Message string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: HTTP %d: [%d] %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Message)
}

func newAPIError(op string, status, code int, message string) *APIError {
	return &APIError{Op: op, Status: status, Code: code, Message: message}
}

func IsNotFound(err error) bool { return statusIs(err, http.StatusNotFound) }

// IsUnauthorized covers both a missing and a rejected token.
func IsUnauthorized(err error) bool {
	return statusIs(err, http.StatusUnauthorized) || statusIs(err, http.StatusForbidden)
}

func statusIs(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
