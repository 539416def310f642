// Package slots answers whether a requested appointment window is free.
package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/tradeezy-assistant/internal/calendar"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// ErrInvalidDuration is returned for non-positive durations.
var ErrInvalidDuration = errors.New("slots: duration must be positive")

// Request is a candidate window on a specific calendar.
type Request struct {
	CalendarID      string
	ServiceName     string
	Start           time.Time
	DurationMinutes int
}

// End is the exclusive end of the window.
func (r Request) End() time.Time {
	return r.Start.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// Checker asks the calendar about a window.
type Checker struct {
	calendar calendar.Provider
	logger   *logging.Logger
}

// NewChecker wires a checker to a calendar provider.
func NewChecker(provider calendar.Provider, logger *logging.Logger) *Checker {
	if provider == nil {
		panic("slots: calendar provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Checker{calendar: provider, logger: logger}
}

// IsAvailable is true iff no event overlaps [Start, Start+Duration).
func (c *Checker) IsAvailable(ctx context.Context, req Request) (bool, error) {
	if req.DurationMinutes <= 0 {
		return false, ErrInvalidDuration
	}
	if req.Start.IsZero() {
		return false, fmt.Errorf("%w: zero", ErrInvalidStart)
	}
	free, err := c.calendar.CheckAvailability(ctx, req.CalendarID, req.Start, req.End())
	if err != nil {
		return false, fmt.Errorf("slots: check availability: %w", err)
	}
	c.logger.Info("slot checked",
		"calendar_id", req.CalendarID,
		"service", req.ServiceName,
		"start", req.Start.Format(time.RFC3339),
		"duration_minutes", req.DurationMinutes,
		"available", free,
	)
	return free, nil
}
