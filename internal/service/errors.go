package service

import "fmt"

// ValidationError is a missing or malformed input field. It is raised before any I/O.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UpstreamError is a failed or unparsable call to the store, classifier, or another
// collaborator. The event's already-committed writes are not rolled back.
type UpstreamError struct {
	Service string
	Op      string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(service, op string, err error) error {
	return &UpstreamError{Service: service, Op: op, Err: err}
}
