// Package auth はAuth0による認証フローとセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/repository"
)

// Provider はOpenID Connect認証プロバイダーのインターフェース。
type Provider interface {
	// GetLoginURL は認証URLを生成する。screenHintで初期画面を切り替えられる。
	GetLoginURL(state, screenHint string) string
	// GetLogoutURL はIdP側セッションを破棄するログアウトURLを生成する。
	GetLogoutURL(returnTo string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*ExchangeResult, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	provider    Provider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	provider Provider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		provider:    provider,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// GetLoginURL は認証URLを生成する。
func (s *Service) GetLoginURL(state, screenHint string) string {
	return s.provider.GetLoginURL(state, screenHint)
}

// GetLogoutURL はIdP側ログアウトURLを生成する。
func (s *Service) GetLogoutURL(returnTo string) string {
	return s.provider.GetLogoutURL(returnTo)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// 未登録ユーザーの場合はusersレコードを自動作成する。
// 登録済みユーザーの場合はIdP側で変更されたプロフィールフィールドのみ更新する。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	// 1. 認可コードをトークンに交換し、ユーザー情報を取得
	result, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}
	info := result.UserInfo

	// 2. サブジェクトIDで既存ユーザーを検索
	user, err := s.userRepo.FindByAuth0ID(ctx, info.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user != nil {
		// 3a. 既存ユーザー: 変更されたフィールドのみ更新
		update := repository.UserUpdate{}
		if info.Name != "" && info.Name != user.Name {
			update.Name = &info.Name
		}
		if info.Picture != "" && info.Picture != user.Picture {
			update.Picture = &info.Picture
		}
		if info.EmailVerified != user.EmailVerified {
			update.EmailVerified = &info.EmailVerified
		}
		if !update.IsEmpty() {
			if _, err := s.userRepo.Update(ctx, user.Auth0ID, update); err != nil {
				return nil, fmt.Errorf("failed to refresh user profile: %w", err)
			}
		}
		slog.Info("existing user logged in", slog.String("user_id", user.ID))
	} else {
		// 3b. 新規ユーザー: usersレコードを作成
		now := time.Now()
		user = &model.User{
			ID:            uuid.New().String(),
			Auth0ID:       info.Subject,
			Email:         info.Email,
			Name:          info.Name,
			Picture:       info.Picture,
			EmailVerified: info.EmailVerified,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		slog.Info("new user created",
			slog.String("user_id", user.ID),
			slog.String("email", user.Email),
		)
	}

	// 4. セッションを発行
	session, err := s.createSession(ctx, user, info, result.IDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションが無効または期限切れの場合はnilを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByAuth0ID(ctx, session.Auth0ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// GetSessionIdentity はセッションに保存されたログイン時のuserinfoスナップショットを返す。
// usersレコードの有無に依存しない。セッションが無効または期限切れの場合はnilを返す。
func (s *Service) GetSessionIdentity(ctx context.Context, sessionID string) (*model.UserInfo, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	return &model.UserInfo{
		Subject:       session.Auth0ID,
		Email:         session.Email,
		Name:          session.Name,
		Picture:       session.Picture,
		EmailVerified: session.EmailVerified,
	}, nil
}

// createSession はセッションを作成し永続化する。
// IDトークンはログアウト時のIdP連携用に、userinfoはGET /api/auth/me用に保持する。
func (s *Service) createSession(ctx context.Context, user *model.User, info *model.UserInfo, idToken string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:            sessionID,
		UserID:        user.ID,
		Auth0ID:       user.Auth0ID,
		Email:         info.Email,
		Name:          info.Name,
		Picture:       info.Picture,
		EmailVerified: info.EmailVerified,
		IDToken:       idToken,
		ExpiresAt:     time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt:     time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
