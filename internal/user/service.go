// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/repository"
	"github.com/brainwave/brainwave/internal/security"
)

const (
	// DefaultListLimit はユーザー一覧のデフォルト件数。
	DefaultListLimit = 50
	// maxAvatarBytes はアバター画像取得の最大サイズ。
	maxAvatarBytes = 5 << 20 // 5MiB
)

// UpdateInput はプロフィール更新の入力を表す。
// 更新可能なフィールドはnameとpictureのみ（許可リスト方式）。
type UpdateInput struct {
	Name    *string
	Picture *string
}

// Avatar は取得したアバター画像を表す。
type Avatar struct {
	Data        []byte
	ContentType string
}

// Service はユーザー管理のサービス層。
// プロフィールの取得・更新・退会処理とアバター画像の安全な取得を提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	sanitizer   security.TextSanitizerService
	ssrfGuard   security.SSRFGuardService
	avatarHTTP  *http.Client
}

// NewService はServiceの新しいインスタンスを生成する。
// avatarHTTPにはSSRF防止機能付きのHTTPクライアントを渡すこと。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	sanitizer security.TextSanitizerService,
	ssrfGuard security.SSRFGuardService,
	avatarHTTP *http.Client,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		sanitizer:   sanitizer,
		ssrfGuard:   ssrfGuard,
		avatarHTTP:  avatarHTTP,
	}
}

// GetProfile は呼び出し元自身のプロフィールを取得する。
func (s *Service) GetProfile(ctx context.Context, callerID string) (*model.User, error) {
	user, err := s.userRepo.FindByAuth0ID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Get は指定サブジェクトIDのユーザーを取得する。
func (s *Service) Get(ctx context.Context, auth0ID string) (*model.User, error) {
	user, err := s.userRepo.FindByAuth0ID(ctx, auth0ID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// List はユーザー一覧を返す。
func (s *Service) List(ctx context.Context, limit, skip int) ([]*model.User, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if skip < 0 {
		skip = 0
	}

	users, err := s.userRepo.List(ctx, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Update はプロフィールを部分更新する。
// 本人以外の更新は許可しない。許可リスト外のフィールドは受け付けない。
func (s *Service) Update(ctx context.Context, callerID, targetAuth0ID string, input UpdateInput) (*model.User, error) {
	if callerID != targetAuth0ID {
		return nil, model.NewForbiddenError()
	}

	update := repository.UserUpdate{Picture: input.Picture}
	if input.Name != nil {
		name := s.sanitizer.SanitizeText(*input.Name)
		if name == "" {
			return nil, model.NewValidationError("name")
		}
		update.Name = &name
	}

	if update.IsEmpty() {
		return nil, model.NewNoValidFieldsError()
	}

	updated, err := s.userRepo.Update(ctx, targetAuth0ID, update)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewUserNotFoundError()
	}

	return s.Get(ctx, targetAuth0ID)
}

// Delete はユーザーの退会処理を実行する。本人以外の削除は許可しない。
// 削除順序: sessions → user（アセスメント・レポートは保持される）。
func (s *Service) Delete(ctx context.Context, callerID, targetAuth0ID string) error {
	if callerID != targetAuth0ID {
		return model.NewForbiddenError()
	}

	user, err := s.userRepo.FindByAuth0ID(ctx, targetAuth0ID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します", slog.String("user_id", user.ID))

	if err := s.sessionRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	deleted, err := s.userRepo.DeleteByAuth0ID(ctx, targetAuth0ID)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理が完了しました", slog.String("user_id", user.ID))
	return nil
}

// FetchAvatar は呼び出し元のプロフィール画像を取得する。
// 画像URLはIdP由来の外部入力であるため、SSRF防止の検証を通過した
// URLのみ取得する。
func (s *Service) FetchAvatar(ctx context.Context, callerID string) (*Avatar, error) {
	user, err := s.GetProfile(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if user.Picture == "" {
		return nil, model.NewUserNotFoundError()
	}

	if err := s.ssrfGuard.ValidateURL(user.Picture); err != nil {
		slog.Warn("avatar URL blocked",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewSSRFBlockedError()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, user.Picture, nil)
	if err != nil {
		return nil, fmt.Errorf("アバター取得リクエストの作成に失敗しました: %w", err)
	}

	resp, err := s.avatarHTTP.Do(req)
	if err != nil {
		// safeurlのDialer検証で弾かれた場合もここに到達する
		return nil, model.NewSSRFBlockedError()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("アバターの取得がステータス %d で失敗しました", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes))
	if err != nil {
		return nil, fmt.Errorf("アバターの読み取りに失敗しました: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &Avatar{Data: data, ContentType: contentType}, nil
}
