package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brainwave/brainwave/internal/middleware"
	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, callerID string) (*model.User, error)
	Get(ctx context.Context, auth0ID string) (*model.User, error)
	List(ctx context.Context, limit, skip int) ([]*model.User, error)
	Update(ctx context.Context, callerID, targetAuth0ID string, input user.UpdateInput) (*model.User, error)
	Delete(ctx context.Context, callerID, targetAuth0ID string) error
	FetchAvatar(ctx context.Context, callerID string) (*user.Avatar, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// List はユーザー一覧を返す。
// GET /api/users?limit=50&skip=0
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)

	users, err := h.service.List(r.Context(), limit, skip)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponses(users))
}

// Profile は呼び出し元自身のプロフィールを返す。
// GET /api/users/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), callerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(profile))
}

// Get は指定サブジェクトIDのユーザーを返す。
// GET /api/users/{auth0ID}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth0ID := chi.URLParam(r, "auth0ID")

	u, err := h.service.Get(r.Context(), auth0ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// updateUserRequest はプロフィール更新のリクエストボディ。
// 許可リスト外のフィールドは単に無視される。
type updateUserRequest struct {
	Name    *string `json:"name"`
	Picture *string `json:"picture"`
}

// Update はプロフィールを部分更新する。
// PUT /api/users/{auth0ID}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	updated, err := h.service.Update(r.Context(), callerID, chi.URLParam(r, "auth0ID"), user.UpdateInput{
		Name:    req.Name,
		Picture: req.Picture,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// Delete はユーザーの退会処理を実行する。
// DELETE /api/users/{auth0ID}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	if err := h.service.Delete(r.Context(), callerID, chi.URLParam(r, "auth0ID")); err != nil {
		handleServiceError(w, err)
		return
	}

	// セッションはサーバー側で削除済み。Cookieもクリアする。
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// Avatar は呼び出し元のプロフィール画像をプロキシ配信する。
// 画像URLを直接クライアントに返さないことで、検証済みURL以外への
// アクセスを防ぐ。
// GET /api/users/me/avatar
func (h *UserHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	avatar, err := h.service.FetchAvatar(r.Context(), callerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", avatar.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(avatar.Data); err != nil {
		return
	}
}

// parsePagination はlimit/skipクエリパラメータを解析する。
// 不正値はサービス層のデフォルトに委ねるため0を返す。
func parsePagination(r *http.Request) (limit, skip int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			skip = n
		}
	}
	return limit, skip
}
