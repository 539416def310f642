package bookings

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrSlotUnavailable means the window was taken before the event was written.
	ErrSlotUnavailable = errors.New("bookings: slot no longer available")
	// ErrMissingContact means a required contact field is empty.
	ErrMissingContact = errors.New("bookings: contact details incomplete")
	// ErrInvalidRequest covers other malformed booking requests.
	ErrInvalidRequest = errors.New("bookings: invalid request")
)

// Booking is the audit row written after a calendar event is created.
type Booking struct {
	ID                string    `json:"booking_id"`
	SenderID          string    `json:"sender_id"`
	BusinessID        string    `json:"business_id"`
	ServiceName       string    `json:"service_name"`
	PreferredDateTime time.Time `json:"preferred_date_time"`
	DurationMinutes   int       `json:"duration_minutes"`
	EventID           string    `json:"event_id"`
	Confirmed         bool      `json:"confirmed"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Populated by portal listings joined with users.
	ClientName  string `json:"client_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Request is everything needed to book one slot.
type Request struct {
	BusinessID      string
	SenderID        string
	CalendarID      string
	TimeZone        string
	ServiceName     string
	Start           time.Time
	DurationMinutes int
	ClientName      string
	PhoneNumber     string
	Email           string
	Notes           string
}

// End is the exclusive end of the booked window.
func (r Request) End() time.Time {
	return r.Start.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// Validate checks identifiers, window and contact details.
func (r Request) Validate() error {
	if strings.TrimSpace(r.BusinessID) == "" || strings.TrimSpace(r.SenderID) == "" {
		return fmt.Errorf("%w: business and sender ids required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.ServiceName) == "" {
		return fmt.Errorf("%w: service name required", ErrInvalidRequest)
	}
	if r.Start.IsZero() || r.DurationMinutes <= 0 {
		return fmt.Errorf("%w: start and positive duration required", ErrInvalidRequest)
	}
	var missing []string
	if strings.TrimSpace(r.ClientName) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		missing = append(missing, "phone number")
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMissingContact, strings.Join(missing, ", "))
	}
	return nil
}

// Confirmation is returned to the caller once the event exists.
type Confirmation struct {
	SenderID    string    `json:"senderID"`
	Result      string    `json:"result"`
	EventID     string    `json:"eventId"`
	BookingID   string    `json:"bookingId,omitempty"`
	ServiceName string    `json:"-"`
	Start       time.Time `json:"-"`
}

// Query filters portal booking listings.
type Query struct {
	BusinessID string
	From       *time.Time
	To         *time.Time
}

func eventSummary(r Request) string {
	return "Appointment with " + r.ClientName
}

func eventDescription(r Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Service: %s\n", r.ServiceName)
	fmt.Fprintf(&b, "Client Name: %s\n", r.ClientName)
	fmt.Fprintf(&b, "Phone: %s\n", r.PhoneNumber)
	fmt.Fprintf(&b, "Email: %s", r.Email)
	if r.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s", r.Notes)
	}
	return b.String()
}

func resultMessage(r Request) string {
	return fmt.Sprintf("Appointment scheduled with %s for %s on %s",
		r.ClientName, r.ServiceName, r.Start.Format("Monday, January 2 2006 at 3:04 PM MST"))
}
