// Package users stores per-sender contact details.
package users

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrSenderRequired is returned when no sender id is given.
var ErrSenderRequired = errors.New("users: sender id required")

// Profile is the contact record of a single sender.
type Profile struct {
	SenderID    string    `json:"sender_id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Missing lists the contact fields still empty, in a stable order.
func (p Profile) Missing() []string {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(p.PhoneNumber) == "" {
		missing = append(missing, "phone number")
	}
	if strings.TrimSpace(p.Email) == "" {
		missing = append(missing, "email")
	}
	return missing
}

// Details carries optionally-present contact fields. A nil or blank field is
// absent and never clears a stored value.
type Details struct {
	Name        *string
	PhoneNumber *string
	Email       *string
}

// Empty reports whether no field is present.
func (d Details) Empty() bool {
	d = d.normalized()
	return d.Name == nil && d.PhoneNumber == nil && d.Email == nil
}

// Apply merges the present fields onto p.
func (d Details) Apply(p Profile) Profile {
	d = d.normalized()
	if d.Name != nil {
		p.Name = *d.Name
	}
	if d.PhoneNumber != nil {
		p.PhoneNumber = *d.PhoneNumber
	}
	if d.Email != nil {
		p.Email = *d.Email
	}
	return p
}

func (d Details) normalized() Details {
	return Details{Name: present(d.Name), PhoneNumber: present(d.PhoneNumber), Email: present(d.Email)}
}

func present(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Merge outcomes reported to callers.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionUnchanged = "unchanged"
)

// MergeResult is the profile after a merge and what happened to it.
type MergeResult struct {
	Profile Profile
	Action  string
}

// Store persists profiles.
type Store interface {
	// GetOrCreate returns the sender's profile, inserting a blank one if needed.
	GetOrCreate(ctx context.Context, senderID string) (Profile, error)
	// MergeDetails applies fill-if-present semantics. Absent details are a no-op.
	MergeDetails(ctx context.Context, senderID string, details Details) (MergeResult, error)
}

// StringPtr is a convenience for building Details.
func StringPtr(v string) *string {
	return &v
}
