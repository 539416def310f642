package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wolfman30/tradeezy-assistant/internal/assistant"
	"github.com/wolfman30/tradeezy-assistant/internal/tools"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

type stubResponder struct {
	reply assistant.Reply
	err   error
	got   []assistant.Request
}

func (s *stubResponder) Handle(_ context.Context, req assistant.Request) (assistant.Reply, error) {
	s.got = append(s.got, req)
	return s.reply, s.err
}

func postChat(t *testing.T, h *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec
}

func TestChatReturnsPlainText(t *testing.T) {
	stub := &stubResponder{reply: assistant.Reply{Text: "Here are the services we offer"}}
	rec := postChat(t, NewChatHandler(stub, logging.Discard()), `{"query":"hi","sender_id":"u1","business_id":"b1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Body.String() != "Here are the services we offer" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if len(stub.got) != 1 || stub.got[0].SenderID != "u1" || stub.got[0].BusinessID != "b1" {
		t.Fatalf("unexpected request %+v", stub.got)
	}
}

func TestChatValidationErrorIs400(t *testing.T) {
	stub := &stubResponder{err: &assistant.Error{Kind: assistant.KindValidation, Op: "validate", Err: assistant.ErrMissingQuery}}
	rec := postChat(t, NewChatHandler(stub, logging.Discard()), `{"sender_id":"u1","business_id":"b1"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != assistant.ErrMissingQuery.Error() {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestChatMalformedBodyIs400(t *testing.T) {
	stub := &stubResponder{}
	rec := postChat(t, NewChatHandler(stub, logging.Discard()), `{"query":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(stub.got) != 0 {
		t.Fatal("assistant should not be called")
	}
}

func TestChatDispatchErrorIs500WithDetails(t *testing.T) {
	stub := &stubResponder{err: &assistant.Error{Kind: assistant.KindToolDispatch, Op: "dispatch", Tool: "dropTables", Err: tools.ErrUnknownTool}}
	rec := postChat(t, NewChatHandler(stub, logging.Discard()), `{"query":"hi","sender_id":"u1","business_id":"b1"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["details"] != "unknown_tool:dropTables" || body["error"] == "" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestChatUpstreamErrorHidesCause(t *testing.T) {
	stub := &stubResponder{err: &assistant.Error{Kind: assistant.KindUpstream, Op: "infer", Err: errors.New("invalid api key sk-123")}}
	rec := postChat(t, NewChatHandler(stub, logging.Discard()), `{"query":"hi","sender_id":"u1","business_id":"b1"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "sk-123") {
		t.Fatalf("response leaks upstream error: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "upstream_model_error") {
		t.Fatalf("expected details code, got %s", rec.Body.String())
	}
}
