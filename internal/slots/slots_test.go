package slots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wolfman30/tradeezy-assistant/internal/calendar"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

func TestParseStart(t *testing.T) {
	brisbane := Location("Australia/Brisbane")

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"naive localized", "2026-03-10T10:00:00", time.Date(2026, 3, 10, 10, 0, 0, 0, brisbane)},
		{"naive without seconds", "2026-03-10 14:30", time.Date(2026, 3, 10, 14, 30, 0, 0, brisbane)},
		{"utc keeps instant", "2026-03-10T00:00:00Z", time.Date(2026, 3, 10, 10, 0, 0, 0, brisbane)},
		{"explicit offset", "2026-03-10T09:00:00+09:00", time.Date(2026, 3, 10, 10, 0, 0, 0, brisbane)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStart(tt.raw, brisbane)
			if err != nil {
				t.Fatalf("ParseStart(%q): %v", tt.raw, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseStart(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseStartRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "tomorrow at 3", "2026-13-45T99:00"} {
		if _, err := ParseStart(raw, time.UTC); !errors.Is(err, ErrInvalidStart) {
			t.Errorf("ParseStart(%q) error = %v, want ErrInvalidStart", raw, err)
		}
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	if Location("") != time.UTC || Location("Mars/Olympus") != time.UTC {
		t.Fatal("expected UTC fallback")
	}
}

func TestIsAvailableAroundExistingEvent(t *testing.T) {
	ctx := context.Background()
	cal := calendar.NewMemoryProvider()
	checker := NewChecker(cal, logging.Discard())

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	req := Request{CalendarID: "cal", Start: start, DurationMinutes: 60}

	free, err := checker.IsAvailable(ctx, req)
	if err != nil || !free {
		t.Fatalf("expected empty calendar to be free, got %v %v", free, err)
	}

	if _, err := cal.CreateEvent(ctx, "cal", calendar.Event{Start: start, End: req.End()}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	free, _ = checker.IsAvailable(ctx, req)
	if free {
		t.Fatal("booked window must be unavailable")
	}
	free, _ = checker.IsAvailable(ctx, Request{CalendarID: "cal", Start: start.Add(time.Hour), DurationMinutes: 30})
	if !free {
		t.Fatal("back-to-back window must be available")
	}
}

func TestIsAvailableRejectsBadDuration(t *testing.T) {
	checker := NewChecker(calendar.NewMemoryProvider(), logging.Discard())
	_, err := checker.IsAvailable(context.Background(), Request{Start: time.Now(), DurationMinutes: 0})
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}
