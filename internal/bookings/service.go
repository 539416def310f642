package bookings

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/tradeezy-assistant/internal/calendar"
	"github.com/wolfman30/tradeezy-assistant/internal/slots"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

var bookingsTracer = otel.Tracer("tradeezy.internal.bookings")

// AvailabilityChecker re-checks a window while the booking lock is held.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, req slots.Request) (bool, error)
}

// Notifier is told about each confirmed booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b Booking) error
}

// Service books slots: calendar event first, then the audit row.
type Service struct {
	calendar calendar.Provider
	checker  AvailabilityChecker
	repo     Repository
	locker   Locker
	notifier Notifier
	logger   *logging.Logger
}

// NewService constructs a bookings service. A nil locker falls back to an
// in-process lock.
func NewService(provider calendar.Provider, checker AvailabilityChecker, repo Repository, locker Locker, logger *logging.Logger) *Service {
	if provider == nil {
		panic("bookings: calendar provider required")
	}
	if checker == nil {
		panic("bookings: availability checker required")
	}
	if repo == nil {
		panic("bookings: repository required")
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{calendar: provider, checker: checker, repo: repo, locker: locker, logger: logger}
}

// WithNotifier attaches a confirmation notifier.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// CreateBooking holds the per-calendar lock across a final availability check
// and the event insert. The booking row is written after the lock is released
// and its failure does not undo the event.
func (s *Service) CreateBooking(ctx context.Context, req Request) (Confirmation, error) {
	if err := req.Validate(); err != nil {
		return Confirmation{}, err
	}
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("tradeezy.business_id", req.BusinessID),
		attribute.String("tradeezy.sender_id", req.SenderID),
		attribute.String("tradeezy.service", req.ServiceName),
	)

	eventID, err := s.createEventLocked(ctx, req)
	if err != nil {
		span.RecordError(err)
		return Confirmation{}, err
	}

	booking := Booking{
		SenderID:          req.SenderID,
		BusinessID:        req.BusinessID,
		ServiceName:       req.ServiceName,
		PreferredDateTime: req.Start,
		DurationMinutes:   req.DurationMinutes,
		EventID:           eventID,
		Confirmed:         true,
		Notes:             req.Notes,
		ClientName:        req.ClientName,
		PhoneNumber:       req.PhoneNumber,
		Email:             req.Email,
	}
	stored, err := s.repo.Insert(ctx, booking)
	if err != nil {
		// The calendar event stands; the row is an audit record only.
		s.logger.Error("booking row insert failed after event creation",
			"error", err, "business_id", req.BusinessID, "sender_id", req.SenderID, "event_id", eventID)
	} else {
		booking.ID = stored.ID
		booking.CreatedAt = stored.CreatedAt
		booking.UpdatedAt = stored.UpdatedAt
	}

	s.logger.Info("booking confirmed",
		"business_id", req.BusinessID,
		"sender_id", req.SenderID,
		"service", req.ServiceName,
		"start", req.Start.Format(time.RFC3339),
		"event_id", eventID,
		"booking_id", booking.ID,
	)

	if s.notifier != nil {
		if err := s.notifier.BookingConfirmed(ctx, booking); err != nil {
			s.logger.Warn("booking confirmation notification failed", "error", err, "event_id", eventID)
		}
	}

	return Confirmation{
		SenderID:    req.SenderID,
		Result:      resultMessage(req),
		EventID:     eventID,
		BookingID:   booking.ID,
		ServiceName: req.ServiceName,
		Start:       req.Start,
	}, nil
}

func (s *Service) createEventLocked(ctx context.Context, req Request) (string, error) {
	release, err := s.locker.Acquire(ctx, lockKey(req))
	if err != nil {
		return "", fmt.Errorf("bookings: lock calendar: %w", err)
	}
	defer release()

	free, err := s.checker.IsAvailable(ctx, slots.Request{
		CalendarID:      req.CalendarID,
		ServiceName:     req.ServiceName,
		Start:           req.Start,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		return "", fmt.Errorf("bookings: recheck availability: %w", err)
	}
	if !free {
		return "", ErrSlotUnavailable
	}

	eventID, err := s.calendar.CreateEvent(ctx, req.CalendarID, calendar.Event{
		Summary:     eventSummary(req),
		Description: eventDescription(req),
		Start:       req.Start,
		End:         req.End(),
		TimeZone:    req.TimeZone,
	})
	if err != nil {
		return "", fmt.Errorf("bookings: create event: %w", err)
	}
	return eventID, nil
}

// List returns bookings for the client portal.
func (s *Service) List(ctx context.Context, q Query) ([]Booking, error) {
	return s.repo.ListForBusiness(ctx, q)
}
