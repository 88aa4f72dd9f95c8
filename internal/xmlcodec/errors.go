package xmlcodec

import (
	"fmt"

	"webshopsync/internal/entity"
)

// ValidationError reports XML that does not have the documented shape for
// its kind, or a field whose text cannot be parsed.
type ValidationError struct {
	Kind   entity.Kind
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("xml %s", e.Kind)
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
