package calendar

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

var calendarTracer = otel.Tracer("tradeezy.internal.calendar")

// GoogleProvider reads and writes events through the Google Calendar v3 API.
type GoogleProvider struct {
	events *gcal.EventsService
	logger *logging.Logger
}

// NewGoogleProvider builds a provider from client options, typically
// option.WithCredentialsJSON for a service account.
func NewGoogleProvider(ctx context.Context, logger *logging.Logger, opts ...option.ClientOption) (*GoogleProvider, error) {
	opts = append([]option.ClientOption{option.WithScopes(gcal.CalendarScope)}, opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: create google service: %w", err)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GoogleProvider{events: svc.Events, logger: logger}, nil
}

// CheckAvailability lists events overlapping [start, end). The range is free
// when none come back.
func (p *GoogleProvider) CheckAvailability(ctx context.Context, calendarID string, start, end time.Time) (bool, error) {
	ctx, span := calendarTracer.Start(ctx, "calendar.google.check")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.id", calendarID))

	resp, err := p.events.List(calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(10).
		Context(ctx).
		Do()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("%w: list events: %w", ErrCalendarUnavailable, err)
	}
	busy := 0
	for _, item := range resp.Items {
		if item == nil || item.Status == "cancelled" || item.Transparency == "transparent" {
			continue
		}
		busy++
	}
	p.logger.Debug("calendar: availability checked", "calendar_id", calendarID, "start", start, "end", end, "busy", busy)
	return busy == 0, nil
}

// CreateEvent inserts the appointment and returns the provider event id.
func (p *GoogleProvider) CreateEvent(ctx context.Context, calendarID string, event Event) (string, error) {
	ctx, span := calendarTracer.Start(ctx, "calendar.google.insert")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.id", calendarID))

	created, err := p.events.Insert(calendarID, &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       &gcal.EventDateTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: event.TimeZone},
		End:         &gcal.EventDateTime{DateTime: event.End.Format(time.RFC3339), TimeZone: event.TimeZone},
	}).Context(ctx).Do()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: insert event: %w", ErrCalendarUnavailable, err)
	}
	p.logger.Info("calendar: event created", "calendar_id", calendarID, "event_id", created.Id)
	return created.Id, nil
}
