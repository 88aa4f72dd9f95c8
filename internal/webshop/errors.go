package webshop

import (
	"errors"
	"fmt"

	"webshopsync/internal/entity"
)

// ReasonResultSetTooBig is the reason the webshop gives when a list query
// would return more rows than it is willing to send.
const ReasonResultSetTooBig = "result_set_to_big"

// ErrResultSetTooBig matches an ApplicationError carrying
// ReasonResultSetTooBig. Callers narrow the time window and retry.
var ErrResultSetTooBig = errors.New("webshop: result set too big")

// ErrInvalidRequest marks a request the transport could not even build.
// It is never retried.
var ErrInvalidRequest = errors.New("webshop: invalid request")

// TransportError is returned when the webshop could not be reached after
// the retry budget was spent, or the failure was not worth retrying.
type TransportError struct {
	Kind     entity.Kind
	Action   string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("webshop %s/%s: transport failed after %d attempt(s): %v", e.Kind, e.Action, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError is a well-formed "error…" answer. It is a normal protocol
// outcome (not found, rejected, referenced) and is never retried.
type ApplicationError struct {
	Raw    string
	Reason string
}

func (e *ApplicationError) Error() string {
	return e.Raw
}

func (e *ApplicationError) Is(target error) bool {
	return target == ErrResultSetTooBig && e.Reason == ReasonResultSetTooBig
}

// ProtocolViolation is a data payload that does not match the documented
// schema for its kind.
type ProtocolViolation struct {
	Kind    entity.Kind
	Action  string
	Payload string
	Err     error
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("webshop %s/%s: protocol violation: %v", e.Kind, e.Action, e.Err)
}

func (e *ProtocolViolation) Unwrap() error {
	return e.Err
}

// StatusError is a non-200 HTTP answer.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
