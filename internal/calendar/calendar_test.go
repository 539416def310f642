package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"google.golang.org/api/option"

	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

func newTestGoogleProvider(t *testing.T, handler http.HandlerFunc) *GoogleProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := NewGoogleProvider(context.Background(), logging.Discard(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewGoogleProvider: %v", err)
	}
	return p
}

func TestGoogleCheckAvailability(t *testing.T) {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	var gotQuery map[string]string
	p := newTestGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/calendars/cal-1/events" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"timeMin":      q.Get("timeMin"),
			"timeMax":      q.Get("timeMax"),
			"singleEvents": q.Get("singleEvents"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"gone","status":"cancelled"}]}`))
	})

	free, err := p.CheckAvailability(context.Background(), "cal-1", start, end)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !free {
		t.Fatal("cancelled events should not block the slot")
	}
	if gotQuery["timeMin"] != "2026-03-10T10:00:00Z" || gotQuery["timeMax"] != "2026-03-10T11:00:00Z" || gotQuery["singleEvents"] != "true" {
		t.Fatalf("unexpected query: %v", gotQuery)
	}
}

func TestGoogleCheckAvailabilityBusy(t *testing.T) {
	p := newTestGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"e1","status":"confirmed"}]}`))
	})
	start := time.Now().UTC()
	free, err := p.CheckAvailability(context.Background(), "cal-1", start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if free {
		t.Fatal("expected busy slot")
	}
}

func TestGoogleCheckAvailabilityError(t *testing.T) {
	p := newTestGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":400,"message":"bad calendar"}}`, http.StatusBadRequest)
	})
	start := time.Now().UTC()
	_, err := p.CheckAvailability(context.Background(), "cal-1", start, start.Add(time.Hour))
	if !errors.Is(err, ErrCalendarUnavailable) {
		t.Fatalf("expected ErrCalendarUnavailable, got %v", err)
	}
}

func TestGoogleCreateEvent(t *testing.T) {
	var body map[string]any
	p := newTestGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/calendars/cal-1/events" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"evt-abc"}`))
	})

	loc, _ := time.LoadLocation("Australia/Brisbane")
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, loc)
	id, err := p.CreateEvent(context.Background(), "cal-1", Event{
		Summary:  "Appointment with Jane",
		Start:    start,
		End:      start.Add(time.Hour),
		TimeZone: "Australia/Brisbane",
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if id != "evt-abc" {
		t.Fatalf("event id = %q", id)
	}
	startField, _ := body["start"].(map[string]any)
	if body["summary"] != "Appointment with Jane" || startField["dateTime"] != "2026-03-10T10:00:00+10:00" || startField["timeZone"] != "Australia/Brisbane" {
		t.Fatalf("unexpected event body: %v", body)
	}
}

func TestMemoryProviderHalfOpen(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryProvider()
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	if _, err := m.CreateEvent(ctx, "cal", Event{Start: start, End: start.Add(time.Hour)}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	free, _ := m.CheckAvailability(ctx, "cal", start.Add(time.Hour), start.Add(2*time.Hour))
	if !free {
		t.Fatal("back-to-back slot should be free")
	}
	free, _ = m.CheckAvailability(ctx, "cal", start.Add(30*time.Minute), start.Add(90*time.Minute))
	if free {
		t.Fatal("overlapping slot should be busy")
	}
	free, _ = m.CheckAvailability(ctx, "other", start, start.Add(time.Hour))
	if !free {
		t.Fatal("calendars are independent")
	}
}
