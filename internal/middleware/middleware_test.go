package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/podcheck/internal/logger"
	"github.com/hitoshi/podcheck/internal/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDMiddleware_AssignsID(t *testing.T) {
	var seen string
	handler := NewRequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen == "" {
		t.Error("コンテキストにリクエストIDが設定されるべき")
	}
	if got := w.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("X-Request-ID = %q, want %q", got, seen)
	}
}

func TestRequestIDMiddleware_PropagatesClientID(t *testing.T) {
	handler := NewRequestIDMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-supplied-id" {
		t.Errorf("クライアント指定のIDを引き継ぐべき: %q", got)
	}
}

func TestLoggingMiddleware_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	l := logger.Setup(&buf, slog.LevelInfo)

	handler := NewRequestIDMiddleware()(NewLoggingMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("JSONログとして解析できない: %v\nraw: %s", err, buf.String())
	}
	if entry["method"] != "GET" || entry["path"] != "/api/feed" {
		t.Errorf("method/path = %v/%v", entry["method"], entry["path"])
	}
	if entry["status"] != float64(404) {
		t.Errorf("status = %v, want 404", entry["status"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("4xxはWARNレベルで記録されるべき: %v", entry["level"])
	}
	if _, ok := entry["request_id"]; !ok {
		t.Error("request_idがログに含まれるべき")
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("duration_msがログに含まれるべき")
	}
}

func TestCORSMiddleware_SetsHeaders(t *testing.T) {
	handler := NewCORSMiddleware("http://localhost:3000")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestCORSMiddleware_PreflightReturns204(t *testing.T) {
	handler := NewCORSMiddleware("http://localhost:3000")(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/feed", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("プリフライトのステータス = %d, want 204", w.Code)
	}
}

func TestRecoveryMiddleware_CatchesPanic(t *testing.T) {
	handler := NewRecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("panic時のステータス = %d, want 500", w.Code)
	}

	var body ErrorResponseBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("panic時のレスポンスはJSONであるべき: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("エラーコード = %q, want \"INTERNAL_ERROR\"", body.Code)
	}
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    3,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())

	var lastCode int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
		req.RemoteAddr = "203.0.113.7:51000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		lastCode = w.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("バースト超過後のステータス = %d, want 429", lastCode)
	}
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
		req.RemoteAddr = fmt.Sprintf("203.0.113.%d:51000", i+1)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("別クライアントのリクエストは制限されないべき: %d", w.Code)
		}
	}

	if rl.LimiterCount() != 3 {
		t.Errorf("リミッターのエントリ数 = %d, want 3", rl.LimiterCount())
	}
}

func TestRateLimiter_SetsRetryAfter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(0.5),
		GeneralBurst:    1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
		req.RemoteAddr = "203.0.113.9:51000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if i == 1 && w.Header().Get("Retry-After") != "2" {
			t.Errorf("Retry-After = %q, want \"2\"", w.Header().Get("Retry-After"))
		}
	}
}

func TestWriteErrorResponse_Format(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("スキームが不正です"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body ErrorResponseBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("JSONとして解析できない: %v", err)
	}
	if body.Code != "INVALID_URL" {
		t.Errorf("code = %q, want \"INVALID_URL\"", body.Code)
	}
	if body.Category == "" || body.Action == "" {
		t.Errorf("category/actionが設定されるべき: %+v", body)
	}
}
