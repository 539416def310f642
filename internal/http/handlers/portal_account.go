package handlers

import (
	"errors"
	"net/http"

	"github.com/wolfman30/tradeezy-assistant/internal/business"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// AccountHandler serves the business profile of the client portal.
type AccountHandler struct {
	store  business.Store
	logger *logging.Logger
}

// NewAccountHandler wires the business store.
func NewAccountHandler(store business.Store, logger *logging.Logger) *AccountHandler {
	if store == nil {
		panic("handlers: business store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AccountHandler{store: store, logger: logger}
}

// Get returns the profile.
// GET /account?business_id=...
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	businessID, ok := requireBusinessID(w, r)
	if !ok {
		return
	}
	biz, err := h.store.Get(r.Context(), businessID)
	if err != nil {
		h.writeStoreError(w, "get", businessID, err)
		return
	}
	writeJSON(w, http.StatusOK, biz)
}

// Save creates or replaces the profile. The id always comes from the query.
// POST /account?business_id=...
func (h *AccountHandler) Save(w http.ResponseWriter, r *http.Request) {
	businessID, ok := requireBusinessID(w, r)
	if !ok {
		return
	}
	var biz business.Business
	if err := decodeBody(w, r, &biz); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	biz.ID = businessID
	saved, err := h.store.Save(r.Context(), biz)
	if err != nil {
		h.writeStoreError(w, "save", businessID, err)
		return
	}
	h.logger.Info("business profile saved", "business_id", businessID)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Business updated successfully", "business": saved})
}

// Delete removes the business and its services.
// DELETE /account?business_id=...
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	businessID, ok := requireBusinessID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), businessID); err != nil {
		h.writeStoreError(w, "delete", businessID, err)
		return
	}
	h.logger.Warn("business deleted", "business_id", businessID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Business deleted successfully"})
}

func (h *AccountHandler) writeStoreError(w http.ResponseWriter, op, businessID string, err error) {
	switch {
	case errors.Is(err, business.ErrInvalidProfile):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, business.ErrNotFound):
		jsonError(w, "business not found", http.StatusNotFound)
	default:
		h.logger.Error("business store failed", "op", op, "business_id", businessID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
