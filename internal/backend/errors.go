package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingLatex is wrapped in a NetworkError when /get_tex answers with a
// success status but no latex string.
var ErrMissingLatex = errors.New("response has no latex field")

// ValidationError is a request rejected locally, before any network call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// UpstreamError means the backend answered with a non-success status.
type UpstreamError struct {
	Op      string
	Status  int
	Details string
}

func (e *UpstreamError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("backend %s failed with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("backend %s failed with status %d: %s", e.Op, e.Status, e.Details)
}

// NetworkError means the backend could not be reached or its response could
// not be used.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// newUpstreamError builds an UpstreamError from a raw response body. Bodies
// that parse as JSON are re-serialized compactly; anything else is kept as
// plain text.
func newUpstreamError(op string, status int, body []byte) *UpstreamError {
	details := strings.TrimSpace(string(body))
	var buf bytes.Buffer
	if json.Valid(body) && json.Compact(&buf, body) == nil {
		details = buf.String()
	}
	return &UpstreamError{Op: op, Status: status, Details: details}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
