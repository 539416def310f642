package handlers

import (
	"net/http"

	"github.com/wolfman30/tradeezy-assistant/internal/tools"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// ToolHandler exposes each assistant tool as its own endpoint so the
// dispatcher (or another client) can call them over HTTP.
type ToolHandler struct {
	exec   tools.Executor
	logger *logging.Logger
}

func NewToolHandler(exec tools.Executor, logger *logging.Logger) *ToolHandler {
	if exec == nil {
		panic("handlers: tool executor is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ToolHandler{exec: exec, logger: logger}
}

// GetBusinessServices lists a business's services.
// POST /getBusinessServices {"business_id","fields"?,"service_name"?}
func (h *ToolHandler) GetBusinessServices(w http.ResponseWriter, r *http.Request) {
	var req tools.ServicesRequest
	if err := decodeBody(w, r, &req); err != nil {
		invalidToolArgs(w, err.Error())
		return
	}
	if req.BusinessID == "" {
		invalidToolArgs(w, "business_id is required")
		return
	}
	listing, err := h.exec.GetBusinessServices(r.Context(), req)
	if err != nil {
		h.writeToolError(w, tools.GetBusinessServices, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// CheckSlot reports whether a slot is free.
// POST /checkSlot {"business_id","sender_id","service_name","preferredDateTime","durationMinutes"?}
func (h *ToolHandler) CheckSlot(w http.ResponseWriter, r *http.Request) {
	var req tools.CheckSlotRequest
	if err := decodeBody(w, r, &req); err != nil {
		invalidToolArgs(w, err.Error())
		return
	}
	if req.BusinessID == "" || req.ServiceName == "" || req.PreferredDateTime == "" {
		invalidToolArgs(w, "business_id, service_name and preferredDateTime are required")
		return
	}
	resp, err := h.exec.CheckSlot(r.Context(), req)
	if err != nil {
		h.writeToolError(w, tools.CheckSlot, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// BookSlot books a slot and writes the calendar event.
// POST /bookSlot {"business_id","sender_id","service_name","preferredDateTime","clientName","phoneNumber","emailAddress"}
func (h *ToolHandler) BookSlot(w http.ResponseWriter, r *http.Request) {
	var req tools.BookSlotRequest
	if err := decodeBody(w, r, &req); err != nil {
		invalidToolArgs(w, err.Error())
		return
	}
	if req.BusinessID == "" || req.SenderID == "" || req.ServiceName == "" || req.PreferredDateTime == "" {
		invalidToolArgs(w, "business_id, sender_id, service_name and preferredDateTime are required")
		return
	}
	conf, err := h.exec.BookSlot(r.Context(), req)
	if err != nil {
		h.writeToolError(w, tools.BookSlot, err)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

// CreateOrUpdateUser merges contact details into the sender's profile.
// POST /create_or_update_user {"sender_id","name"?,"phone_number"?,"email"?}
func (h *ToolHandler) CreateOrUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req tools.UserRequest
	if err := decodeBody(w, r, &req); err != nil {
		invalidToolArgs(w, err.Error())
		return
	}
	if req.SenderID == "" {
		invalidToolArgs(w, "sender_id is required")
		return
	}
	resp, err := h.exec.CreateOrUpdateUser(r.Context(), req)
	if err != nil {
		h.writeToolError(w, tools.CreateOrUpdateUser, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

var toolErrorStatus = map[string]int{
	tools.CodeServiceNotFound:  http.StatusNotFound,
	tools.CodeBusinessNotFound: http.StatusNotFound,
	tools.CodeAmbiguousService: http.StatusUnprocessableEntity,
	tools.CodeMissingContact:   http.StatusUnprocessableEntity,
	tools.CodeSlotUnavailable:  http.StatusConflict,
	tools.CodeLockBusy:         http.StatusConflict,
	tools.CodeInvalidArguments: http.StatusBadRequest,
}

func invalidToolArgs(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, tools.ErrorBody{Error: msg, Code: tools.CodeInvalidArguments})
}

// writeToolError answers with the error's code so remote callers can tell
// failures sharing a status apart.
func (h *ToolHandler) writeToolError(w http.ResponseWriter, tool string, err error) {
	body := tools.NewErrorBody(err)
	status, ok := toolErrorStatus[body.Code]
	if !ok {
		h.logger.Error("tool endpoint failed", "tool", tool, "error", err)
		writeJSON(w, http.StatusInternalServerError, tools.ErrorBody{Error: "internal error", Code: tools.CodeInternal})
		return
	}
	writeJSON(w, status, body)
}
