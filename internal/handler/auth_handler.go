package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/brainwave/brainwave/internal/model"
)

const (
	sessionCookieName = "session_id"
	oauthStateCookie  = "oauth_state"

	// screenHintSignup はIdPのサインアップ画面を直接開くためのヒント。
	screenHintSignup = "signup"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state, screenHint string) string
	GetLogoutURL(returnTo string) string
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
	GetSessionIdentity(ctx context.Context, sessionID string) (*model.UserInfo, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL   string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Login はログインフローを開始する。
// GET /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.startFlow(w, r, "")
}

// Register はサインアップ画面を開いた状態でログインフローを開始する。
// GET /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.startFlow(w, r, screenHintSignup)
}

// startFlow はstate Cookieを発行してIdPへリダイレクトする。
func (h *AuthHandler) startFlow(w http.ResponseWriter, r *http.Request, screenHint string) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.GetLoginURL(state, screenHint), http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /api/auth/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	// 1. stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch",
			slog.String("query_state", state),
		)
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 2. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	// 3. 認証処理
	session, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		// フロントエンドのログイン画面にエラーを伝える
		failureURL := h.config.FrontendURL + "/select-user?login=error&message=" + url.QueryEscape("authentication failed")
		http.Redirect(w, r, failureURL, http.StatusTemporaryRedirect)
		return
	}

	// 4. セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 5. フロントエンドの保護者画面にリダイレクト
	http.Redirect(w, r, h.config.FrontendURL+"/parent", http.StatusTemporaryRedirect)
}

// Logout はセッションを破棄し、IdP側ログアウトへリダイレクトする。
// GET/POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// セッションCookieの取得
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		// セッションをDBから削除
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	// セッションCookieをクリア
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// IdP側のセッションも破棄する
	http.Redirect(w, r, h.service.GetLogoutURL(h.config.FrontendURL), http.StatusTemporaryRedirect)
}

// Me はログイン時にセッションへ保存したuserinfoスナップショットを返す。
// usersレコードが未作成でもセッションが有効なら応答する。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := h.sessionIdentity(r)
	if identity == nil {
		writeUnauthenticated(w)
		return
	}

	writeJSON(w, http.StatusOK, toSessionIdentityResponse(identity))
}

// User はDBに保存された現在ユーザーのレコードを返す。
// セッションは有効だがレコードが見つからない場合は404を返す。
// GET /api/auth/user
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	if h.sessionIdentity(r) == nil {
		writeUnauthenticated(w)
		return
	}

	user := h.currentUser(r)
	if user == nil {
		handleServiceError(w, model.NewUserNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Check は認証状態を返す。未認証でも200で応答する。
// GET /api/auth/check
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          toUserResponse(user),
	})
}

// sessionIdentity はセッションCookieからuserinfoスナップショットを取得する。
// 未認証またはセッション無効の場合はnilを返す。
func (h *AuthHandler) sessionIdentity(r *http.Request) *model.UserInfo {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	identity, err := h.service.GetSessionIdentity(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to resolve session identity", slog.String("error", err.Error()))
		return nil
	}
	return identity
}

// currentUser はセッションCookieから現在のユーザーを取得する。
// 未認証またはセッション無効の場合はnilを返す。
func (h *AuthHandler) currentUser(r *http.Request) *model.User {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	user, err := h.service.GetCurrentUser(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to get current user", slog.String("error", err.Error()))
		return nil
	}
	return user
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
