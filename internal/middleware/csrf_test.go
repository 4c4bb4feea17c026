package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func csrfTestHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCSRFMiddleware_SafeMethodsSkipValidation(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(csrfTestHandler())

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/blog-posts", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
		})
	}
}

func TestCSRFMiddleware_SafeMethodSetsCookie(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(csrfTestHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/episodes", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "castport_csrf" {
			found = c
		}
	}
	if found == nil {
		t.Fatal("expected castport_csrf cookie to be set")
	}
	if found.HttpOnly {
		t.Error("castport_csrf cookie must be readable from the frontend (HttpOnly=false)")
	}
	if len(found.Value) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(found.Value))
	}
}

func TestCSRFMiddleware_UnsafeMethodRequiresMatchingTokens(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(csrfTestHandler())

	tests := []struct {
		name        string
		cookieValue string
		headerValue string
		wantStatus  int
	}{
		{
			name:        "Cookieとヘッダーが一致すれば許可",
			cookieValue: "token-abc",
			headerValue: "token-abc",
			wantStatus:  http.StatusOK,
		},
		{
			name:       "Cookieなしは拒否",
			wantStatus: http.StatusForbidden,
		},
		{
			name:        "ヘッダーなしは拒否",
			cookieValue: "token-abc",
			wantStatus:  http.StatusForbidden,
		},
		{
			name:        "トークン不一致は拒否",
			cookieValue: "token-abc",
			headerValue: "token-xyz",
			wantStatus:  http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/blog-posts", nil)
			if tt.cookieValue != "" {
				req.AddCookie(&http.Cookie{Name: "castport_csrf", Value: tt.cookieValue})
			}
			if tt.headerValue != "" {
				req.Header.Set("X-CSRF-Token", tt.headerValue)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestCSRFTokenHandler_IssuesNewToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["token"] == "" {
		t.Fatal("expected non-empty token in response")
	}

	var cookieToken string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "castport_csrf" {
			cookieToken = c.Value
		}
	}
	if cookieToken != body["token"] {
		t.Errorf("cookie token %q does not match response token %q", cookieToken, body["token"])
	}
}

func TestCSRFTokenHandler_ReusesExistingToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: "castport_csrf", Value: "existing-token"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["token"] != "existing-token" {
		t.Errorf("token = %q, want existing cookie value", body["token"])
	}
}
