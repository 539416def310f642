package assistant

import (
	"errors"
	"fmt"
)

// Kind classifies failures at the dispatcher boundary.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUpstream     Kind = "upstream"
	KindToolDispatch Kind = "tool_dispatch"
	KindPersistence  Kind = "persistence"
)

var (
	ErrMissingQuery    = errors.New("query is required")
	ErrMissingSender   = errors.New("sender_id is required")
	ErrMissingBusiness = errors.New("business_id is required")
)

// Error is the only error type Handle returns. Message and Code are safe to
// show to callers; Err carries the underlying cause for logs.
type Error struct {
	Kind Kind
	Op   string
	Tool string
	Err  error
}

func (e *Error) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("assistant: %s %s (%s): %v", e.Op, e.Kind, e.Tool, e.Err)
	}
	return fmt.Sprintf("assistant: %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the stable, user-facing description.
func (e *Error) Message() string {
	switch e.Kind {
	case KindValidation:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "invalid request"
	case KindToolDispatch:
		return "The assistant requested an action it is not allowed to perform."
	default:
		return "Sorry, the assistant is unavailable right now. Please try again shortly."
	}
}

// Code is the operator-facing detail returned alongside Message.
func (e *Error) Code() string {
	switch e.Kind {
	case KindUpstream:
		return "upstream_model_error"
	case KindToolDispatch:
		if e.Tool != "" {
			return "unknown_tool:" + e.Tool
		}
		return "tool_dispatch_error"
	case KindPersistence:
		return "persistence_error"
	default:
		return string(e.Kind)
	}
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
