// Package middleware はHTTPミドルウェア群を提供する。
// すべてのミドルウェアは func(http.Handler) http.Handler 形式で、
// chiのUseにそのまま渡せる。
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

// requestIDKey はコンテキストに格納するリクエストIDのキー。
const requestIDKey contextKey = "request_id"

// requestIDHeader はレスポンスに付与するリクエストIDヘッダー。
const requestIDHeader = "X-Request-ID"

// NewRequestIDMiddleware は各リクエストにUUIDを割り当てるミドルウェアを返す。
// クライアントがX-Request-IDを送信した場合はその値を引き継ぐ。
// IDはコンテキストとレスポンスヘッダーの両方に設定される。
func NewRequestIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), requestIDKey, id)
			w.Header().Set(requestIDHeader, id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext はコンテキストからリクエストIDを取得する。
// 未設定の場合は空文字列を返す。
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
