package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wolfman30/tradeezy-assistant/internal/llm"
)

var (
	// ErrUnknownTool means the model named a tool that was never declared.
	ErrUnknownTool = errors.New("tools: unknown tool")
	// ErrInvalidArguments covers undecodable, extra or missing arguments.
	ErrInvalidArguments = errors.New("tools: invalid arguments")
)

// Trusted carries the identifiers taken from the inbound request. They always
// replace whatever the model put in its arguments.
type Trusted struct {
	BusinessID string
	SenderID   string
}

// ServicesArgs are the model-facing arguments of getBusinessServices.
type ServicesArgs struct {
	Fields      []string `json:"fields,omitempty"`
	ServiceName string   `json:"service_name,omitempty"`
}

// SlotArgs are the model-facing arguments of checkSlot.
type SlotArgs struct {
	ServiceName       string `json:"service_name"`
	PreferredDateTime string `json:"preferredDateTime"`
	DurationMinutes   int    `json:"durationMinutes,omitempty"`
	BusinessID        string `json:"business_id,omitempty"`
}

// BookArgs are the model-facing arguments of bookSlot.
type BookArgs struct {
	SlotArgs
	ClientName  string `json:"clientName"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
}

// UserArgs are the model-facing arguments of create_or_update_user.
type UserArgs struct {
	Name        *string `json:"name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// Call is a parsed tool call. Exactly one of the argument pointers is set.
type Call struct {
	ID      string
	Name    string
	Raw     json.RawMessage
	Trusted Trusted

	Services *ServicesArgs
	Slot     *SlotArgs
	Book     *BookArgs
	User     *UserArgs
}

// Parse validates a model tool call against its declared shape.
func Parse(tc llm.ToolCall, trusted Trusted) (Call, error) {
	call := Call{ID: tc.ID, Name: tc.Name, Raw: tc.Arguments, Trusted: trusted}
	switch tc.Name {
	case GetBusinessServices:
		var args ServicesArgs
		if err := decodeStrict(tc.Arguments, &args); err != nil {
			return call, err
		}
		call.Services = &args
	case CheckSlot:
		var args SlotArgs
		if err := decodeStrict(tc.Arguments, &args); err != nil {
			return call, err
		}
		if err := args.validate(); err != nil {
			return call, err
		}
		args.BusinessID = trusted.BusinessID
		call.Slot = &args
	case BookSlot:
		var args BookArgs
		if err := decodeStrict(tc.Arguments, &args); err != nil {
			return call, err
		}
		if err := args.validate(); err != nil {
			return call, err
		}
		args.BusinessID = trusted.BusinessID
		call.Book = &args
	case CreateOrUpdateUser:
		var args UserArgs
		if err := decodeStrict(tc.Arguments, &args); err != nil {
			return call, err
		}
		call.User = &args
	default:
		return call, fmt.Errorf("%w: %q", ErrUnknownTool, tc.Name)
	}
	return call, nil
}

func (a SlotArgs) validate() error {
	if strings.TrimSpace(a.ServiceName) == "" {
		return fmt.Errorf("%w: service_name is required", ErrInvalidArguments)
	}
	if strings.TrimSpace(a.PreferredDateTime) == "" {
		return fmt.Errorf("%w: preferredDateTime is required", ErrInvalidArguments)
	}
	if a.DurationMinutes < 0 {
		return fmt.Errorf("%w: durationMinutes must not be negative", ErrInvalidArguments)
	}
	return nil
}

// SlotKey identifies a (service, start, duration) triple within one flow.
func (a SlotArgs) SlotKey() string {
	return strings.ToLower(strings.TrimSpace(a.ServiceName)) + "|" + strings.TrimSpace(a.PreferredDateTime) + "|" + fmt.Sprint(a.DurationMinutes)
}

func decodeStrict(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after arguments", ErrInvalidArguments)
	}
	return nil
}
