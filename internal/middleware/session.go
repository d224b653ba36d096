// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brainwave/brainwave/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
	userIDContextKey = contextKey("user_id")
	// auth0IDContextKey はリクエストコンテキストにIdPサブジェクトIDを格納するためのキー。
	auth0IDContextKey = contextKey("auth0_id")
)

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みユーザーIDとサブジェクトIDをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				writeUnauthenticated(w)
				return
			}

			// 2. セッションの有効性を検証
			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				writeUnauthenticated(w)
				return
			}
			if session == nil {
				writeUnauthenticated(w)
				return
			}

			// 3. 認証済みの識別子をコンテキストに注入
			ctx := context.WithValue(r.Context(), userIDContextKey, session.UserID)
			ctx = context.WithValue(ctx, auth0IDContextKey, session.Auth0ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthenticated は401レスポンスを統一形式のJSONで書き込む。
func writeUnauthenticated(w http.ResponseWriter) {
	apiErr := model.NewUnauthenticatedError()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": apiErr.Message,
		"code":  apiErr.Code,
	})
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// Auth0IDFromContext はリクエストコンテキストからIdPサブジェクトIDを取得する。
// 所有権検証で呼び出し元の識別に使用する。
func Auth0IDFromContext(ctx context.Context) (string, error) {
	auth0ID, ok := ctx.Value(auth0IDContextKey).(string)
	if !ok || auth0ID == "" {
		return "", fmt.Errorf("auth0 ID not found in context")
	}
	return auth0ID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextWithAuth0ID はコンテキストにIdPサブジェクトIDを注入する。
func ContextWithAuth0ID(ctx context.Context, auth0ID string) context.Context {
	return context.WithValue(ctx, auth0IDContextKey, auth0ID)
}
