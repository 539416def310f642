package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedPortalToken(t *testing.T, secret, businessID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, PortalClaims{
		BusinessID: businessID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "owner-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func servePortal(mw func(http.Handler) http.Handler, target, token string) (*httptest.ResponseRecorder, bool) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := PortalClaimsFromContext(r.Context()); !ok {
			w.WriteHeader(http.StatusTeapot)
		}
	})).ServeHTTP(rec, req)
	return rec, called
}

func TestPortalJWTMissingSecret(t *testing.T) {
	rec, called := servePortal(PortalJWT(""), "/bookings?business_id=b1", signedPortalToken(t, "secret", "b1"))
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPortalJWTMissingHeader(t *testing.T) {
	rec, called := servePortal(PortalJWT("secret"), "/bookings?business_id=b1", "")
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPortalJWTInvalidSignature(t *testing.T) {
	rec, called := servePortal(PortalJWT("secret"), "/bookings?business_id=b1", signedPortalToken(t, "wrong", "b1"))
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPortalJWTWrongBusiness(t *testing.T) {
	rec, called := servePortal(PortalJWT("secret"), "/bookings?business_id=b2", signedPortalToken(t, "secret", "b1"))
	if called || rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestPortalJWTValidToken(t *testing.T) {
	rec, called := servePortal(PortalJWT("secret"), "/bookings?business_id=b1", signedPortalToken(t, "secret", "b1"))
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected handler with claims, got %d called=%v", rec.Code, called)
	}
}
