package slots

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // the Lambda base image ships without zoneinfo
)

// ErrInvalidStart is returned when a requested start time cannot be read.
var ErrInvalidStart = errors.New("slots: invalid start time")

// Layouts carrying their own offset. Parsed values are converted into loc.
var offsetLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04-07:00",
	"2006-01-02 15:04:05-07:00",
}

// Naive layouts are interpreted as wall-clock time in loc.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseStart reads an ISO-8601 style start time. Values with an offset keep
// their instant; naive values are localized to loc.
func ParseStart(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidStart)
	}
	value = strings.Replace(value, "t", "T", 1)

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidStart, raw)
}

// Location returns the *time.Location for a zone name, falling back to UTC
// when the name is empty or unknown.
func Location(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
