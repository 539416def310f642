package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/tradeezy-assistant/internal/bookings"
	"github.com/wolfman30/tradeezy-assistant/internal/business"
	"github.com/wolfman30/tradeezy-assistant/internal/catalog"
	"github.com/wolfman30/tradeezy-assistant/internal/slots"
	"github.com/wolfman30/tradeezy-assistant/internal/users"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

var toolsTracer = otel.Tracer("tradeezy.internal.tools")

// Local executes tools against in-process clients. The HTTP tool endpoints
// are served by the same executor.
type Local struct {
	catalog    *catalog.Catalog
	checker    *slots.Checker
	bookings   *bookings.Service
	users      users.Store
	businesses *business.Directory
	logger     *logging.Logger
}

// LocalDeps groups the clients a Local executor needs.
type LocalDeps struct {
	Catalog    *catalog.Catalog
	Checker    *slots.Checker
	Bookings   *bookings.Service
	Users      users.Store
	Businesses *business.Directory
	Logger     *logging.Logger
}

func NewLocal(deps LocalDeps) *Local {
	if deps.Catalog == nil || deps.Checker == nil || deps.Bookings == nil || deps.Users == nil || deps.Businesses == nil {
		panic("tools: local executor requires catalog, checker, bookings, users and businesses")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Local{
		catalog:    deps.Catalog,
		checker:    deps.Checker,
		bookings:   deps.Bookings,
		users:      deps.Users,
		businesses: deps.Businesses,
		logger:     deps.Logger,
	}
}

func (l *Local) GetBusinessServices(ctx context.Context, req ServicesRequest) (catalog.Listing, error) {
	if req.BusinessID == "" {
		return catalog.Listing{}, fmt.Errorf("%w: business_id is required", ErrInvalidArguments)
	}
	return l.catalog.ListServices(ctx, req.BusinessID, req.Fields, req.ServiceName)
}

// resolvedSlot is a slot request after catalog and time zone resolution.
type resolvedSlot struct {
	biz      business.Business
	service  catalog.Service
	start    time.Time
	duration int
}

// resolve looks the service up, making its stored duration authoritative, and
// localizes the start in the business's zone.
func (l *Local) resolve(ctx context.Context, businessID, serviceName, rawStart string, duration int) (resolvedSlot, error) {
	if businessID == "" {
		return resolvedSlot{}, fmt.Errorf("%w: business_id is required", ErrInvalidArguments)
	}
	biz, err := l.businesses.Lookup(ctx, businessID)
	if err != nil {
		return resolvedSlot{}, err
	}
	svc, err := l.catalog.Resolve(ctx, businessID, serviceName)
	if err != nil {
		return resolvedSlot{}, err
	}
	start, err := slots.ParseStart(rawStart, biz.Location())
	if err != nil {
		return resolvedSlot{}, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	if svc.DurationMinutes > 0 {
		if duration > 0 && duration != svc.DurationMinutes {
			l.logger.Debug("catalog duration overrides requested duration",
				"service", svc.Name, "requested", duration, "catalog", svc.DurationMinutes)
		}
		duration = svc.DurationMinutes
	}
	if duration <= 0 {
		return resolvedSlot{}, fmt.Errorf("%w: durationMinutes is required for %s", ErrInvalidArguments, svc.Name)
	}
	return resolvedSlot{biz: biz, service: svc, start: start, duration: duration}, nil
}

func (l *Local) CheckSlot(ctx context.Context, req CheckSlotRequest) (CheckSlotResponse, error) {
	ctx, span := toolsTracer.Start(ctx, "tools.check_slot")
	defer span.End()
	span.SetAttributes(attribute.String("tradeezy.business_id", req.BusinessID), attribute.String("tradeezy.service", req.ServiceName))

	slot, err := l.resolve(ctx, req.BusinessID, req.ServiceName, req.PreferredDateTime, req.DurationMinutes)
	if err != nil {
		span.RecordError(err)
		return CheckSlotResponse{}, err
	}
	available, err := l.checker.IsAvailable(ctx, slots.Request{
		CalendarID:      slot.biz.CalendarID,
		ServiceName:     slot.service.Name,
		Start:           slot.start,
		DurationMinutes: slot.duration,
	})
	if err != nil {
		span.RecordError(err)
		return CheckSlotResponse{}, err
	}
	return CheckSlotResponse{
		SenderID:        req.SenderID,
		IsAvailable:     available,
		ServiceName:     slot.service.Name,
		Start:           slot.start.Format(time.RFC3339),
		DurationMinutes: slot.duration,
	}, nil
}

func (l *Local) BookSlot(ctx context.Context, req BookSlotRequest) (bookings.Confirmation, error) {
	ctx, span := toolsTracer.Start(ctx, "tools.book_slot")
	defer span.End()
	span.SetAttributes(attribute.String("tradeezy.business_id", req.BusinessID), attribute.String("tradeezy.service", req.ServiceName))

	slot, err := l.resolve(ctx, req.BusinessID, req.ServiceName, req.PreferredDateTime, req.DurationMinutes)
	if err != nil {
		span.RecordError(err)
		return bookings.Confirmation{}, err
	}
	conf, err := l.bookings.CreateBooking(ctx, bookings.Request{
		BusinessID:      req.BusinessID,
		SenderID:        req.SenderID,
		CalendarID:      slot.biz.CalendarID,
		TimeZone:        slot.biz.TimeZone,
		ServiceName:     slot.service.Name,
		Start:           slot.start,
		DurationMinutes: slot.duration,
		ClientName:      req.ClientName,
		PhoneNumber:     req.PhoneNumber,
		Email:           req.Email,
	})
	if err != nil && !errors.Is(err, bookings.ErrSlotUnavailable) {
		span.RecordError(err)
	}
	return conf, err
}

func (l *Local) CreateOrUpdateUser(ctx context.Context, req UserRequest) (UserResponse, error) {
	if req.SenderID == "" {
		return UserResponse{}, users.ErrSenderRequired
	}
	res, err := l.users.MergeDetails(ctx, req.SenderID, req.Details())
	if err != nil {
		return UserResponse{}, err
	}
	return UserResponse{Message: userMessage(res.Action), Action: res.Action, User: res.Profile}, nil
}

var _ Executor = (*Local)(nil)
