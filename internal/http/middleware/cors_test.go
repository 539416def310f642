package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveCORS(origins []string, method, origin, preflightMethod string) (*httptest.ResponseRecorder, bool) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(method, "/chat", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflightMethod != "" {
		req.Header.Set("Access-Control-Request-Method", preflightMethod)
	}
	rec := httptest.NewRecorder()
	CORS(origins)(handler).ServeHTTP(rec, req)
	return rec, called
}

func TestCORSWidgetOrigin(t *testing.T) {
	rec, called := serveCORS([]string{" https://widget.tradeezy.test ", ""}, http.MethodPost, "https://widget.tradeezy.test", "")

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, called=%v status=%d", called, rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://widget.tradeezy.test" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
}

func TestCORSAdvertisesPortalMethodsAndRequestID(t *testing.T) {
	rec, _ := serveCORS([]string{"https://portal.tradeezy.test"}, http.MethodGet, "https://portal.tradeezy.test", "")

	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Fatalf("unexpected allow methods %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Authorization, Content-Type, X-Request-ID" {
		t.Fatalf("unexpected allow headers %q", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("unexpected max age %q", got)
	}
}

func TestCORSSkipsUnlistedOrigin(t *testing.T) {
	rec, called := serveCORS([]string{"https://widget.tradeezy.test"}, http.MethodPost, "https://evil.test", "")

	if !called {
		t.Fatal("request without a CORS grant should still reach the handler")
	}
	for _, h := range []string{"Access-Control-Allow-Origin", "Access-Control-Allow-Methods", "Access-Control-Allow-Headers"} {
		if got := rec.Header().Get(h); got != "" {
			t.Fatalf("expected no %s, got %q", h, got)
		}
	}
}

func TestCORSWildcardEchoesOrigin(t *testing.T) {
	rec, _ := serveCORS([]string{"*"}, http.MethodGet, "https://shop.example", "")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example" {
		t.Fatalf("expected echoed origin, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	cases := []struct {
		name      string
		origin    string
		reqMethod string
		status    int
		called    bool
	}{
		{"portal delete", "https://portal.tradeezy.test", http.MethodDelete, http.StatusNoContent, false},
		{"plain options", "https://portal.tradeezy.test", "", http.StatusOK, true},
		{"no origin", "", http.MethodPut, http.StatusOK, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, called := serveCORS([]string{"https://portal.tradeezy.test"}, http.MethodOptions, tc.origin, tc.reqMethod)
			if rec.Code != tc.status || called != tc.called {
				t.Fatalf("expected status=%d called=%v, got %d %v", tc.status, tc.called, rec.Code, called)
			}
		})
	}
}
