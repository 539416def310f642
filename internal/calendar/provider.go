// Package calendar talks to the calendar that owns a business's appointments.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrCalendarUnavailable wraps transport and API failures from the provider.
var ErrCalendarUnavailable = errors.New("calendar: unavailable")

// Event is the minimal appointment shape written to a calendar.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// Provider is the narrow calendar surface the booking flow needs.
// Ranges are half-open: an event ending exactly at start does not collide.
type Provider interface {
	CheckAvailability(ctx context.Context, calendarID string, start, end time.Time) (bool, error)
	CreateEvent(ctx context.Context, calendarID string, event Event) (string, error)
}
