package s3client

import (
	"fmt"
	"net/http"

	"emperror.dev/errors"
)

// ErrNotFound is matched by rejections with a not found status.
var ErrNotFound = errors.Sentinel("not found")

// ErrPreconditionFailed is matched by rejections with a precondition failed status.
var ErrPreconditionFailed = errors.Sentinel("precondition failed")

// S3 error codes raised when the proxy itself is misconfigured.
var signingErrorCodes = []string{
	"SignatureDoesNotMatch",
	"InvalidAccessKeyId",
	"RequestTimeTooSkewed",
	"AuthorizationHeaderMalformed",
	"InvalidToken",
	"ExpiredToken",
	"MissingSecurityHeader",
}

// UnavailableError is returned when the object storage couldn't be reached
// or didn't answer in time.
type UnavailableError struct {
	err       error
	Operation string
	Timeout   bool
}

// NewUnavailableError wraps a transport error.
func NewUnavailableError(operation string, timeout bool, err error) *UnavailableError {
	return &UnavailableError{err: err, Operation: operation, Timeout: timeout}
}

func (e *UnavailableError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("upstream %s timed out: %s", e.Operation, e.err.Error())
	}

	return fmt.Sprintf("upstream %s unavailable: %s", e.Operation, e.err.Error())
}

func (e *UnavailableError) Unwrap() error { return e.err }

// RejectedError is returned when the object storage answered with an error status.
type RejectedError struct {
	Operation  string
	Code       string
	StatusCode int
}

func (e *RejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("upstream %s rejected with status %d (%s)", e.Operation, e.StatusCode, e.Code)
	}

	return fmt.Sprintf("upstream %s rejected with status %d", e.Operation, e.StatusCode)
}

// Is allows to match status sentinels with errors.Is.
func (e *RejectedError) Is(target error) bool {
	// nolint: errorlint // Sentinel comparison
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrPreconditionFailed:
		return e.StatusCode == http.StatusPreconditionFailed
	default:
		return false
	}
}

// IsSigningFailure returns true when the rejection comes from the request signature or credentials.
func (e *RejectedError) IsSigningFailure() bool {
	for _, c := range signingErrorCodes {
		if c == e.Code {
			return true
		}
	}

	return false
}
