package tools

import (
	"context"
	"strings"

	"github.com/wolfman30/tradeezy-assistant/internal/bookings"
	"github.com/wolfman30/tradeezy-assistant/internal/catalog"
	"github.com/wolfman30/tradeezy-assistant/internal/users"
)

// ServicesRequest is the body of POST /getBusinessServices.
type ServicesRequest struct {
	BusinessID  string   `json:"business_id"`
	Fields      []string `json:"fields,omitempty"`
	ServiceName string   `json:"service_name,omitempty"`
}

// CheckSlotRequest is the body of POST /checkSlot.
type CheckSlotRequest struct {
	BusinessID        string `json:"business_id"`
	SenderID          string `json:"sender_id"`
	ServiceName       string `json:"service_name"`
	PreferredDateTime string `json:"preferredDateTime"`
	DurationMinutes   int    `json:"durationMinutes,omitempty"`
}

// CheckSlotResponse echoes the resolved slot so callers can phrase the answer.
type CheckSlotResponse struct {
	SenderID        string `json:"sender_id"`
	IsAvailable     bool   `json:"isAvailable"`
	ServiceName     string `json:"service_name,omitempty"`
	Start           string `json:"start,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
}

// BookSlotRequest is the body of POST /bookSlot.
type BookSlotRequest struct {
	BusinessID        string `json:"business_id"`
	SenderID          string `json:"sender_id"`
	ServiceName       string `json:"service_name"`
	PreferredDateTime string `json:"preferredDateTime"`
	DurationMinutes   int    `json:"durationMinutes,omitempty"`
	ClientName        string `json:"clientName"`
	PhoneNumber       string `json:"phoneNumber"`
	Email             string `json:"emailAddress"`
}

// UserRequest is the body of POST /create_or_update_user.
type UserRequest struct {
	SenderID    string  `json:"sender_id"`
	Name        *string `json:"name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// Details converts the request to a profile merge.
func (r UserRequest) Details() users.Details {
	return users.Details{Name: r.Name, PhoneNumber: r.PhoneNumber, Email: r.Email}
}

// UserResponse reports the merged profile.
type UserResponse struct {
	Message string        `json:"message"`
	Action  string        `json:"action"`
	User    users.Profile `json:"user"`
}

// Executor runs the four tools. Errors keep their package sentinels
// (catalog.ErrServiceNotFound, bookings.ErrSlotUnavailable,
// bookings.ErrMissingContact, ErrInvalidArguments) so callers can branch.
type Executor interface {
	GetBusinessServices(ctx context.Context, req ServicesRequest) (catalog.Listing, error)
	CheckSlot(ctx context.Context, req CheckSlotRequest) (CheckSlotResponse, error)
	BookSlot(ctx context.Context, req BookSlotRequest) (bookings.Confirmation, error)
	CreateOrUpdateUser(ctx context.Context, req UserRequest) (UserResponse, error)
}

func userMessage(action string) string {
	switch action {
	case users.ActionCreated:
		return "User created successfully"
	case users.ActionUpdated:
		return "User details updated successfully"
	default:
		return "No changes to user details"
	}
}

// ServicesRequestFor builds the endpoint request for a parsed call.
func ServicesRequestFor(c Call) ServicesRequest {
	return ServicesRequest{BusinessID: c.Trusted.BusinessID, Fields: c.Services.Fields, ServiceName: strings.TrimSpace(c.Services.ServiceName)}
}

// CheckSlotRequestFor builds the endpoint request for a checkSlot call, or
// for the check preceding a bookSlot call.
func CheckSlotRequestFor(t Trusted, a SlotArgs) CheckSlotRequest {
	return CheckSlotRequest{
		BusinessID:        t.BusinessID,
		SenderID:          t.SenderID,
		ServiceName:       strings.TrimSpace(a.ServiceName),
		PreferredDateTime: strings.TrimSpace(a.PreferredDateTime),
		DurationMinutes:   a.DurationMinutes,
	}
}

// BookSlotRequestFor builds the endpoint request for a bookSlot call using
// the merged contact profile.
func BookSlotRequestFor(t Trusted, a BookArgs, p users.Profile) BookSlotRequest {
	return BookSlotRequest{
		BusinessID:        t.BusinessID,
		SenderID:          t.SenderID,
		ServiceName:       strings.TrimSpace(a.ServiceName),
		PreferredDateTime: strings.TrimSpace(a.PreferredDateTime),
		DurationMinutes:   a.DurationMinutes,
		ClientName:        p.Name,
		PhoneNumber:       p.PhoneNumber,
		Email:             p.Email,
	}
}

// ContactRequestFor turns the contact values carried by a bookSlot call into a
// profile merge.
func ContactRequestFor(t Trusted, a BookArgs) UserRequest {
	return UserRequest{
		SenderID:    t.SenderID,
		Name:        optional(a.ClientName),
		PhoneNumber: optional(a.PhoneNumber),
		Email:       optional(a.Email),
	}
}

// UserRequestFor builds the endpoint request for a create_or_update_user call.
func UserRequestFor(c Call) UserRequest {
	return UserRequest{SenderID: c.Trusted.SenderID, Name: c.User.Name, PhoneNumber: c.User.PhoneNumber, Email: c.User.Email}
}

func optional(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return users.StringPtr(strings.TrimSpace(v))
}
