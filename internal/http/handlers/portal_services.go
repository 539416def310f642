package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/tradeezy-assistant/internal/catalog"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// ServicesHandler lets a business manage its service catalog from the portal.
type ServicesHandler struct {
	store  catalog.Store
	logger *logging.Logger
}

// NewServicesHandler wires the catalog write path.
func NewServicesHandler(store catalog.Store, logger *logging.Logger) *ServicesHandler {
	if store == nil {
		panic("handlers: catalog store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ServicesHandler{store: store, logger: logger}
}

type serviceRequest struct {
	ServiceID string `json:"service_id"`
	catalog.ServicePatch
}

// List returns every service of the business, or one when service_id is set.
// GET /services?business_id=...&service_id=...
func (h *ServicesHandler) List(w http.ResponseWriter, r *http.Request) {
	businessID, ok := requireBusinessID(w, r)
	if !ok {
		return
	}
	if serviceID := strings.TrimSpace(r.URL.Query().Get("service_id")); serviceID != "" {
		svc, err := h.store.Get(r.Context(), businessID, serviceID)
		if err != nil {
			h.writeStoreError(w, "get", businessID, err)
			return
		}
		writeJSON(w, http.StatusOK, []catalog.Service{svc})
		return
	}
	items, err := h.store.ListByBusiness(r.Context(), businessID)
	if err != nil {
		h.writeStoreError(w, "list", businessID, err)
		return
	}
	if items == nil {
		items = []catalog.Service{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Create adds a service.
// POST /services?business_id=... {"service_name","description","duration_minutes","price"}
func (h *ServicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	businessID, ok := requireBusinessID(w, r)
	if !ok {
		return
	}
	var req serviceRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == nil || req.DurationMinutes == nil || req.Price == nil {
		jsonError(w, "service_name, duration_minutes and price are required", http.StatusBadRequest)
		return
	}
	svc := req.Apply(catalog.Service{BusinessID: businessID})
	created, err := h.store.Create(r.Context(), svc)
	if err != nil {
		h.writeStoreError(w, "create", businessID, err)
		return
	}
	h.logger.Info("service added", "business_id", businessID, "service_id", created.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Service added",
		"service_id": created.ID,
		"service":    created,
	})
}

// Update changes the fields present in the body.
// PUT /services?business_id=... {"service_id", ...fields}
func (h *ServicesHandler) Update(w http.ResponseWriter, r *http.Request) {
	businessID, ok := requireBusinessID(w, r)
	if !ok {
		return
	}
	var req serviceRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	serviceID := strings.TrimSpace(req.ServiceID)
	if serviceID == "" {
		jsonError(w, "service_id is required", http.StatusBadRequest)
		return
	}
	updated, err := h.store.Update(r.Context(), businessID, serviceID, req.ServicePatch)
	if err != nil {
		h.writeStoreError(w, "update", businessID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Service updated", "service": updated})
}

// Delete removes a service.
// DELETE /services?business_id=...&service_id=...
func (h *ServicesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	businessID, ok := requireBusinessID(w, r)
	if !ok {
		return
	}
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	if serviceID == "" && r.ContentLength > 0 {
		var req serviceRequest
		if err := decodeBody(w, r, &req); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		serviceID = strings.TrimSpace(req.ServiceID)
	}
	if serviceID == "" {
		jsonError(w, "service_id is required", http.StatusBadRequest)
		return
	}
	if err := h.store.Delete(r.Context(), businessID, serviceID); err != nil {
		h.writeStoreError(w, "delete", businessID, err)
		return
	}
	h.logger.Info("service deleted", "business_id", businessID, "service_id", serviceID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Service deleted"})
}

func (h *ServicesHandler) writeStoreError(w http.ResponseWriter, op, businessID string, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidService):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, catalog.ErrServiceNotFound):
		jsonError(w, "service not found", http.StatusNotFound)
	default:
		h.logger.Error("service store failed", "op", op, "business_id", businessID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func requireBusinessID(w http.ResponseWriter, r *http.Request) (string, bool) {
	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	if businessID == "" {
		jsonError(w, "business_id is required", http.StatusBadRequest)
		return "", false
	}
	return businessID, true
}
