package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// testRateLimiterConfig はバーストを小さくしたテスト用設定を返す。
func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0),
		GeneralBurst:    3,
		ReportRate:      rate.Limit(1.0 / 60.0),
		ReportBurst:     1,
		ChatRate:        rate.Limit(1.0 / 60.0),
		ChatBurst:       2,
		CleanupInterval: time.Hour,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doGeneralRequest(t *testing.T, handler http.Handler, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/assessments", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		if rec := doGeneralRequest(t, handler, "user-1"); rec.Code != http.StatusOK {
			t.Fatalf("request #%d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestGeneralMiddleware_BurstExceeded_Returns429(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		doGeneralRequest(t, handler, "user-1")
	}
	rec := doGeneralRequest(t, handler, "user-1")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header must be set")
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body["code"] != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q, want RATE_LIMIT_EXCEEDED", body["code"])
	}
}

// ユーザーごとに独立したリミッターを持つ。
func TestGeneralMiddleware_PerUserIsolation(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 4; i++ {
		doGeneralRequest(t, handler, "user-1")
	}
	if rec := doGeneralRequest(t, handler, "user-2"); rec.Code != http.StatusOK {
		t.Errorf("other user status = %d, want 200", rec.Code)
	}
	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("limiter count = %d, want 2", got)
	}
}

func TestGeneralMiddleware_WithoutUserID_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/assessments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// レポート生成のリミッターはAPI全般とは独立に消費される。
func TestReportMiddleware_IndependentFromGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	general := rl.GeneralMiddleware()(okHandler())
	report := rl.ReportMiddleware()(okHandler())

	if rec := doGeneralRequest(t, report, "user-1"); rec.Code != http.StatusOK {
		t.Fatalf("first report request status = %d, want 200", rec.Code)
	}
	if rec := doGeneralRequest(t, report, "user-1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second report request status = %d, want 429", rec.Code)
	}
	// レポート枠の消費はAPI全般の枠に影響しない
	if rec := doGeneralRequest(t, general, "user-1"); rec.Code != http.StatusOK {
		t.Errorf("general request status = %d, want 200", rec.Code)
	}
}

// チャットはセッションなしのエンドポイントのためIPをキーとする。
func TestChatMiddleware_KeyedByClientIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.ChatMiddleware()(okHandler())

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/ice-breaker/chat", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("203.0.113.10:51234"); rec.Code != http.StatusOK {
			t.Fatalf("request #%d: status = %d, want 200", i+1, rec.Code)
		}
	}
	if rec := send("203.0.113.10:51235"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("same IP different port status = %d, want 429", rec.Code)
	}
	if rec := send("198.51.100.7:40000"); rec.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", rec.Code)
	}
	if got := rl.ChatLimiterCount(); got != 2 {
		t.Errorf("chat limiter count = %d, want 2", got)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.10:51234", "203.0.113.10"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"no-port-value", "no-port-value"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remoteAddr
		if got := clientIP(req); got != tc.want {
			t.Errorf("clientIP(%q) = %q, want %q", tc.remoteAddr, got, tc.want)
		}
	}
}

func TestLimiterPool_CleanupRemovesStaleEntries(t *testing.T) {
	pool := newLimiterPool(rate.Limit(1), 1)
	pool.getOrCreate("stale")
	pool.limiters["stale"].lastAccess = time.Now().Add(-time.Hour)
	pool.getOrCreate("fresh")

	pool.cleanup(10 * time.Minute)

	if got := pool.count(); got != 1 {
		t.Errorf("count = %d, want 1 after cleanup", got)
	}
	if _, exists := pool.limiters["fresh"]; !exists {
		t.Error("fresh entry must survive cleanup")
	}
}
