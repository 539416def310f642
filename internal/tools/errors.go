package tools

import (
	"errors"
	"fmt"

	"github.com/wolfman30/tradeezy-assistant/internal/bookings"
	"github.com/wolfman30/tradeezy-assistant/internal/business"
	"github.com/wolfman30/tradeezy-assistant/internal/catalog"
	"github.com/wolfman30/tradeezy-assistant/internal/users"
)

// Error codes carried in tool endpoint error bodies.
const (
	CodeServiceNotFound  = "service_not_found"
	CodeAmbiguousService = "ambiguous_service"
	CodeBusinessNotFound = "business_not_found"
	CodeSlotUnavailable  = "slot_unavailable"
	CodeLockBusy         = "lock_busy"
	CodeMissingContact   = "missing_contact"
	CodeInvalidArguments = "invalid_arguments"
	CodeInternal         = "internal"
)

// ErrorBody is the JSON body of a failed tool endpoint call.
type ErrorBody struct {
	Error      string   `json:"error"`
	Code       string   `json:"code"`
	Candidates []string `json:"candidates,omitempty"`
}

// ErrorCode classifies an executor error. Unclassified errors are CodeInternal.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, catalog.ErrAmbiguousService):
		return CodeAmbiguousService
	case errors.Is(err, catalog.ErrServiceNotFound):
		return CodeServiceNotFound
	case errors.Is(err, business.ErrNotFound):
		return CodeBusinessNotFound
	case errors.Is(err, bookings.ErrSlotUnavailable):
		return CodeSlotUnavailable
	case errors.Is(err, bookings.ErrLockBusy):
		return CodeLockBusy
	case errors.Is(err, bookings.ErrMissingContact):
		return CodeMissingContact
	case errors.Is(err, ErrInvalidArguments), errors.Is(err, bookings.ErrInvalidRequest), errors.Is(err, users.ErrSenderRequired):
		return CodeInvalidArguments
	default:
		return CodeInternal
	}
}

// NewErrorBody builds the wire form of err.
func NewErrorBody(err error) ErrorBody {
	body := ErrorBody{Error: err.Error(), Code: ErrorCode(err)}
	var amb *catalog.AmbiguousError
	if errors.As(err, &amb) {
		body.Candidates = amb.Candidates
	}
	return body
}

// sentinel maps a decoded body back onto the executor's errors. It is nil for
// bodies without a code this package knows.
func (b ErrorBody) sentinel() error {
	switch b.Code {
	case CodeServiceNotFound:
		return catalog.ErrServiceNotFound
	case CodeAmbiguousService:
		return &catalog.AmbiguousError{Candidates: b.Candidates}
	case CodeBusinessNotFound:
		return business.ErrNotFound
	case CodeSlotUnavailable:
		return bookings.ErrSlotUnavailable
	case CodeLockBusy:
		return bookings.ErrLockBusy
	case CodeMissingContact:
		return fmt.Errorf("%w: %s", bookings.ErrMissingContact, b.Error)
	case CodeInvalidArguments:
		return fmt.Errorf("%w: %s", ErrInvalidArguments, b.Error)
	}
	return nil
}
