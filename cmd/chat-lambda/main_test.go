package main

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func event(method, path, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		Headers: map[string]string{"content-type": "application/json"},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   method,
				Path:     path,
				SourceIP: "203.0.113.7",
			},
		},
	}
}

func TestHandleReplaysRequest(t *testing.T) {
	var gotBody, gotIP, gotQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotIP = r.Header.Get("X-Real-Ip")
		gotQuery = r.URL.Query().Get("business_id")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	})

	evt := event(http.MethodPost, "/chat", `{"query":"hi"}`)
	evt.RawQueryString = "business_id=b1"
	resp, err := handle(context.Background(), handler, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated || resp.Body != "hello" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Headers["content-type"] != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected headers %+v", resp.Headers)
	}
	if gotBody != `{"query":"hi"}` || gotIP != "203.0.113.7" || gotQuery != "b1" {
		t.Fatalf("request not replayed: body=%q ip=%q query=%q", gotBody, gotIP, gotQuery)
	}
}

func TestHandleDecodesBase64Body(t *testing.T) {
	var gotBody string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	})
	evt := event(http.MethodPost, "/chat", base64.StdEncoding.EncodeToString([]byte(`{"query":"hi"}`)))
	evt.IsBase64Encoded = true

	resp, err := handle(context.Background(), handler, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || gotBody != `{"query":"hi"}` {
		t.Fatalf("unexpected result status=%d body=%q", resp.StatusCode, gotBody)
	}
}

func TestHandleRejectsBadBase64(t *testing.T) {
	evt := event(http.MethodPost, "/chat", "***")
	evt.IsBase64Encoded = true
	resp, err := handle(context.Background(), http.NotFoundHandler(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
