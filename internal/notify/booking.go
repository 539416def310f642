package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/tradeezy-assistant/internal/bookings"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// BusinessNamer resolves a business id to a display name for email copy.
type BusinessNamer interface {
	DisplayName(ctx context.Context, businessID string) string
}

// BookingNotifier emails the client once their appointment is on the calendar.
type BookingNotifier struct {
	email  EmailSender
	names  BusinessNamer
	logger *logging.Logger
}

// NewBookingNotifier wires an email sender. names may be nil.
func NewBookingNotifier(email EmailSender, names BusinessNamer, logger *logging.Logger) *BookingNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingNotifier{email: email, names: names, logger: logger}
}

// BookingConfirmed sends the confirmation. Missing sender or address is a
// logged no-op.
func (n *BookingNotifier) BookingConfirmed(ctx context.Context, b bookings.Booking) error {
	if n == nil || n.email == nil {
		return nil
	}
	if strings.TrimSpace(b.Email) == "" {
		n.logger.Debug("notify: booking has no client email, skipping confirmation", "event_id", b.EventID)
		return nil
	}
	business := b.BusinessID
	if n.names != nil {
		business = n.names.DisplayName(ctx, b.BusinessID)
	}
	msg := BookingConfirmationEmail(b, business)
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send booking confirmation: %w", err)
	}
	return nil
}

// BookingConfirmationEmail renders the client-facing confirmation.
func BookingConfirmationEmail(b bookings.Booking, businessName string) EmailMessage {
	when := b.PreferredDateTime.Format("Monday, January 2 at 3:04 PM MST")
	subject := fmt.Sprintf("Your %s appointment is confirmed", b.ServiceName)

	var body strings.Builder
	if b.ClientName != "" {
		fmt.Fprintf(&body, "Hi %s,\n\n", b.ClientName)
	} else {
		body.WriteString("Hi,\n\n")
	}
	fmt.Fprintf(&body, "Your appointment with %s is booked.\n\n", businessName)
	fmt.Fprintf(&body, "Service: %s\n", b.ServiceName)
	fmt.Fprintf(&body, "When: %s\n", when)
	if b.DurationMinutes > 0 {
		fmt.Fprintf(&body, "Duration: %d minutes\n", b.DurationMinutes)
	}
	if b.EventID != "" {
		fmt.Fprintf(&body, "Reference: %s\n", b.EventID)
	}
	body.WriteString("\nReply to this email if you need to change anything.")

	return EmailMessage{
		To:      b.Email,
		ToName:  b.ClientName,
		Subject: subject,
		Body:    body.String(),
	}
}

var _ bookings.Notifier = (*BookingNotifier)(nil)
