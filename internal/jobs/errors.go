package jobs

import (
	"errors"
	"fmt"
)

// ErrAuth is returned when the OAuth credentials for an external service are
// missing, expired or rejected.
var ErrAuth = errors.New("authentication failed")

// MailServiceError wraps a failure talking to the mailbox provider.
type MailServiceError struct {
	Op  string
	Err error
}

func (e *MailServiceError) Error() string {
	return fmt.Sprintf("mail service %s: %v", e.Op, e.Err)
}

func (e *MailServiceError) Unwrap() error { return e.Err }

// ClassificationServiceError is returned once retries against the completion
// service are exhausted.
type ClassificationServiceError struct {
	Attempts int
	Err      error
}

func (e *ClassificationServiceError) Error() string {
	return fmt.Sprintf("classification service failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ClassificationServiceError) Unwrap() error { return e.Err }

// ParseError describes a model reply that matched neither expected shape.
type ParseError struct {
	Reply  string
	Reason string
}

func (e *ParseError) Error() string {
	return "unparseable classification reply: " + e.Reason
}

// ValidationError reports a bad argument detected before any remote call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports that no spreadsheet row matched a lookup key.
type NotFoundError struct {
	Role    string
	Company string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no application found for role %q at company %q", e.Role, e.Company)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
