package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newCSRFHandler() http.Handler {
	return NewCSRFMiddleware(CSRFConfig{})(okHandler())
}

func TestCSRFMiddleware_SafeMethod_SetsCookie(t *testing.T) {
	handler := newCSRFHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/assessments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var csrfCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			csrfCookie = c
		}
	}
	if csrfCookie == nil {
		t.Fatal("expected CSRF cookie to be set on safe method")
	}
	if csrfCookie.HttpOnly {
		t.Error("CSRF cookie must be readable from the frontend")
	}
	if len(csrfCookie.Value) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(csrfCookie.Value))
	}
}

func TestCSRFMiddleware_SafeMethod_KeepsExistingCookie(t *testing.T) {
	handler := newCSRFHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/assessments", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			t.Errorf("cookie must not be reissued, got %q", c.Value)
		}
	}
}

func TestCSRFMiddleware_MutatingWithoutToken_Returns403(t *testing.T) {
	handler := newCSRFHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/assessments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body["code"] != "CSRF_VALIDATION_FAILED" {
		t.Errorf("code = %q, want CSRF_VALIDATION_FAILED", body["code"])
	}
}

func TestCSRFMiddleware_TokenMismatch_Returns403(t *testing.T) {
	handler := newCSRFHandler()

	req := httptest.NewRequest(http.MethodPut, "/api/users/auth0%7Cparent-1", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "cookie-token"})
	req.Header.Set(csrfHeaderName, "different-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// ダブルサブミットCookie方式: Cookieとヘッダーのトークンが一致すれば通過。
func TestCSRFMiddleware_DoubleSubmit_Success(t *testing.T) {
	handler := newCSRFHandler()

	req := httptest.NewRequest(http.MethodDelete, "/api/assessments/a-1", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "matching-token"})
	req.Header.Set(csrfHeaderName, "matching-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestCSRFTokenHandler_IssuesToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if len(body["token"]) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(body["token"]))
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != body["token"] {
		t.Error("issued token must match the cookie value")
	}
}

func TestCSRFTokenHandler_ReturnsExistingToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body["token"] != "existing-token" {
		t.Errorf("token = %q, want existing token returned", body["token"])
	}
}
