// Package practice は発話練習記録のドメインロジックを提供する。
package practice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/repository"
	"github.com/brainwave/brainwave/internal/security"
)

// dateLayout は練習日のフォーマット。サーバーのローカル日付で記録する。
const dateLayout = "2006-01-02"

// DefaultListLimit は練習履歴一覧のデフォルト件数。
const DefaultListLimit = 30

// CreateInput は練習記録作成の入力を表す。
type CreateInput struct {
	ChildName          string
	Score              int
	TotalQuestions     int
	QuestionsAttempted int
}

// Service は発話練習記録のサービス層。
type Service struct {
	practiceRepo repository.SpeechPracticeRepository
	sanitizer    security.TextSanitizerService
	now          func() time.Time // テスト用に差し替え可能
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(practiceRepo repository.SpeechPracticeRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		practiceRepo: practiceRepo,
		sanitizer:    sanitizer,
		now:          time.Now,
	}
}

// Create は当日の練習記録を作成する。
//
// 1児童につき1日1件のみ記録できる。既存記録の事前チェックで分かりやすい
// エラーを返すが、一意性の保証自体はDBのユニーク制約に依っており、
// 同時リクエストでも高々1件しか作成されない。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.SpeechPractice, error) {
	input.ChildName = s.sanitizer.SanitizeText(input.ChildName)
	if input.ChildName == "" {
		return nil, model.NewValidationError("childName")
	}
	if input.TotalQuestions <= 0 {
		return nil, model.NewValidationError("totalQuestions")
	}
	if input.Score < 0 || input.Score > input.TotalQuestions {
		return nil, model.NewValidationError("score")
	}

	today := s.now().Format(dateLayout)

	// 事前チェック（親切なエラーのため。競合時はユニーク制約が最終判定する）
	existing, err := s.practiceRepo.FindByChildAndDate(ctx, input.ChildName, today)
	if err != nil {
		return nil, fmt.Errorf("練習記録の検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewAlreadyCompletedError()
	}

	now := s.now()
	practice := &model.SpeechPractice{
		ID:                 uuid.New().String(),
		ChildName:          input.ChildName,
		Score:              input.Score,
		TotalQuestions:     input.TotalQuestions,
		QuestionsAttempted: input.QuestionsAttempted,
		PracticeDate:       today,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.practiceRepo.Create(ctx, practice); err != nil {
		if errors.Is(err, repository.ErrDuplicatePractice) {
			return nil, model.NewAlreadyCompletedError()
		}
		return nil, fmt.Errorf("練習記録の作成に失敗しました: %w", err)
	}

	return practice, nil
}

// GetToday は児童の当日の練習記録を取得する。記録がない場合はnilを返す。
func (s *Service) GetToday(ctx context.Context, childName string) (*model.SpeechPractice, error) {
	childName = s.sanitizer.SanitizeText(childName)
	if childName == "" {
		return nil, model.NewValidationError("childName")
	}

	practice, err := s.practiceRepo.FindByChildAndDate(ctx, childName, s.now().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("練習記録の検索に失敗しました: %w", err)
	}
	return practice, nil
}

// ListByChild は児童の練習履歴を作成日時の降順で返す。
func (s *Service) ListByChild(ctx context.Context, childName string, limit int) ([]*model.SpeechPractice, error) {
	childName = s.sanitizer.SanitizeText(childName)
	if childName == "" {
		return nil, model.NewValidationError("childName")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	practices, err := s.practiceRepo.ListByChild(ctx, childName, limit)
	if err != nil {
		return nil, fmt.Errorf("練習履歴の取得に失敗しました: %w", err)
	}
	return practices, nil
}

// Update は練習記録を部分更新する。
// 更新可能フィールドが1つもない場合はエラーを返す。
func (s *Service) Update(ctx context.Context, practiceID string, update model.SpeechPracticeUpdate) error {
	if update.IsEmpty() {
		return model.NewNoValidFieldsError()
	}

	updated, err := s.practiceRepo.Update(ctx, practiceID, update)
	if err != nil {
		return fmt.Errorf("練習記録の更新に失敗しました: %w", err)
	}
	if !updated {
		return model.NewPracticeNotFoundError()
	}
	return nil
}

// Delete は練習記録を削除する。
func (s *Service) Delete(ctx context.Context, practiceID string) error {
	deleted, err := s.practiceRepo.Delete(ctx, practiceID)
	if err != nil {
		return fmt.Errorf("練習記録の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewPracticeNotFoundError()
	}
	return nil
}
