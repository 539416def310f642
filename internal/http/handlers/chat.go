package handlers

import (
	"context"
	"net/http"

	"github.com/wolfman30/tradeezy-assistant/internal/assistant"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// Responder answers one chat message.
type Responder interface {
	Handle(ctx context.Context, req assistant.Request) (assistant.Reply, error)
}

// ChatHandler serves POST /chat.
type ChatHandler struct {
	assistant Responder
	logger    *logging.Logger
}

func NewChatHandler(responder Responder, logger *logging.Logger) *ChatHandler {
	if responder == nil {
		panic("handlers: chat responder is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{assistant: responder, logger: logger}
}

// Chat replies with the assistant's text as text/plain.
// POST /chat {"query","sender_id","business_id"}
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req assistant.Request
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	reply, err := h.assistant.Handle(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(reply.Text))
}

func (h *ChatHandler) writeError(w http.ResponseWriter, err error) {
	e, ok := assistant.AsError(err)
	if !ok {
		h.logger.Error("chat failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Sorry, the assistant is unavailable right now. Please try again shortly.",
			"details": "internal_error",
		})
		return
	}
	if e.Kind == assistant.KindValidation {
		jsonError(w, e.Message(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   e.Message(),
		"details": e.Code(),
	})
}
