package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/tradeezy-assistant/internal/bookings"
	"github.com/wolfman30/tradeezy-assistant/internal/chathistory"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// BookingLister reads bookings for the client portal.
type BookingLister interface {
	List(ctx context.Context, q bookings.Query) ([]bookings.Booking, error)
}

// PortalHandler serves the read-only client portal endpoints.
type PortalHandler struct {
	history  chathistory.Lister
	bookings BookingLister
	logger   *logging.Logger
}

// NewPortalHandler creates a portal handler. Either source may be nil, in
// which case its endpoint answers 503.
func NewPortalHandler(history chathistory.Lister, bookings BookingLister, logger *logging.Logger) *PortalHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PortalHandler{history: history, bookings: bookings, logger: logger}
}

// ChatHistory pages through a business's conversation turns.
// GET /chathistory?business_id=...&from_date=...&to_date=...&limit=...&offset=...
func (h *PortalHandler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		jsonError(w, "chat history disabled", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	businessID := strings.TrimSpace(q.Get("business_id"))
	if businessID == "" {
		jsonError(w, "business_id is required", http.StatusBadRequest)
		return
	}
	from, to, err := parseDateRange(q.Get("from_date"), q.Get("to_date"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := parseNonNegative(q.Get("limit"), "limit")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := parseNonNegative(q.Get("offset"), "offset")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := h.history.List(r.Context(), chathistory.Query{
		BusinessID: businessID,
		From:       from,
		To:         to,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.logger.Error("failed to list chat history", "business_id", businessID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Bookings lists a business's bookings with customer contact details.
// GET /bookings?business_id=...&from_date=...&to_date=...
func (h *PortalHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	if h.bookings == nil {
		jsonError(w, "bookings disabled", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	businessID := strings.TrimSpace(q.Get("business_id"))
	if businessID == "" {
		jsonError(w, "business_id is required", http.StatusBadRequest)
		return
	}
	from, to, err := parseDateRange(q.Get("from_date"), q.Get("to_date"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.bookings.List(r.Context(), bookings.Query{BusinessID: businessID, From: from, To: to})
	if err != nil {
		h.logger.Error("failed to list bookings", "business_id", businessID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []bookings.Booking{}
	}
	writeJSON(w, http.StatusOK, items)
}

// parseDateRange accepts RFC3339 timestamps or plain dates. A plain to_date
// includes the whole day.
func parseDateRange(fromRaw, toRaw string) (*time.Time, *time.Time, error) {
	from, err := parseDate(fromRaw, false)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid from_date, use RFC3339 or YYYY-MM-DD")
	}
	to, err := parseDate(toRaw, true)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid to_date, use RFC3339 or YYYY-MM-DD")
	}
	if from != nil && to != nil && !to.After(*from) {
		return nil, nil, fmt.Errorf("to_date must be after from_date")
	}
	return from, to, nil
}

func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24 * time.Hour)
	}
	return &t, nil
}

func parseNonNegative(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
