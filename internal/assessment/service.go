// Package assessment は発達アセスメント管理のドメインロジックを提供する。
package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/ownership"
	"github.com/brainwave/brainwave/internal/repository"
	"github.com/brainwave/brainwave/internal/security"
)

const (
	// defaultAssessmentType は指定がない場合のアセスメント種別。
	defaultAssessmentType = "JHFT"

	// DefaultListLimit は一覧取得のデフォルト件数。
	DefaultListLimit = 50
	// MaxListLimit は一覧取得の最大件数。
	MaxListLimit = 100
)

// CreateInput はアセスメント作成の入力を表す。
type CreateInput struct {
	ChildInfo      model.ChildInfo
	TestResults    []model.TestResult
	TotalTime      float64
	Observations   model.Observations
	AssessmentDate string
	AssessmentType string
}

// Service はアセスメント管理のサービス層。
type Service struct {
	assessRepo repository.AssessmentRepository
	sanitizer  security.TextSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(assessRepo repository.AssessmentRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		assessRepo: assessRepo,
		sanitizer:  sanitizer,
	}
}

// Create はアセスメントを作成する。
// 児童名とテスト結果は必須。自由入力フィールドは保存前にサニタイズする。
func (s *Service) Create(ctx context.Context, callerID string, input CreateInput) (*model.Assessment, error) {
	input.ChildInfo.Name = s.sanitizer.SanitizeText(input.ChildInfo.Name)
	if input.ChildInfo.Name == "" {
		return nil, model.NewValidationError("childInfo.name")
	}
	if len(input.TestResults) == 0 {
		return nil, model.NewValidationError("testResults")
	}

	s.sanitizeChildInfo(&input.ChildInfo)
	s.sanitizeObservations(&input.Observations)

	assessmentType := input.AssessmentType
	if assessmentType == "" {
		assessmentType = defaultAssessmentType
	}

	now := time.Now()
	assessment := &model.Assessment{
		ID:             uuid.New().String(),
		ParentAuth0ID:  callerID,
		ChildInfo:      input.ChildInfo,
		TestResults:    input.TestResults,
		TotalTime:      input.TotalTime,
		Observations:   input.Observations,
		AssessmentDate: input.AssessmentDate,
		AssessmentType: assessmentType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.assessRepo.Create(ctx, assessment); err != nil {
		return nil, fmt.Errorf("アセスメントの作成に失敗しました: %w", err)
	}

	return assessment, nil
}

// Get はアセスメントを取得する。所有権を検証する。
func (s *Service) Get(ctx context.Context, callerID, assessmentID string) (*model.Assessment, error) {
	return ownership.Authorize(ctx, callerID, model.NewAssessmentNotFoundError(),
		func(ctx context.Context) (*model.Assessment, error) {
			return s.assessRepo.FindByID(ctx, assessmentID)
		})
}

// List は呼び出し元が所有するアセスメント一覧を作成日時の降順で返す。
// limitは1からMaxListLimitの範囲に正規化される。
func (s *Service) List(ctx context.Context, callerID string, limit, skip int) ([]*model.Assessment, error) {
	limit = NormalizeLimit(limit)
	if skip < 0 {
		skip = 0
	}

	assessments, err := s.assessRepo.ListByParent(ctx, callerID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("アセスメント一覧の取得に失敗しました: %w", err)
	}
	return assessments, nil
}

// ListByChild は呼び出し元が所有する特定児童のアセスメント一覧を返す。
func (s *Service) ListByChild(ctx context.Context, callerID, childName string) ([]*model.Assessment, error) {
	childName = s.sanitizer.SanitizeText(childName)
	if childName == "" {
		return nil, model.NewValidationError("childName")
	}

	assessments, err := s.assessRepo.ListByParentAndChild(ctx, callerID, childName)
	if err != nil {
		return nil, fmt.Errorf("児童別アセスメント一覧の取得に失敗しました: %w", err)
	}
	return assessments, nil
}

// Update はアセスメントを部分更新する。所有権を検証し、
// 更新可能フィールドが1つもない場合はエラーを返す。
func (s *Service) Update(ctx context.Context, callerID, assessmentID string, update model.AssessmentUpdate) (*model.Assessment, error) {
	if _, err := s.Get(ctx, callerID, assessmentID); err != nil {
		return nil, err
	}

	if update.IsEmpty() {
		return nil, model.NewNoValidFieldsError()
	}

	if update.ChildInfo != nil {
		s.sanitizeChildInfo(update.ChildInfo)
		if update.ChildInfo.Name == "" {
			return nil, model.NewValidationError("childInfo.name")
		}
	}
	if update.Observations != nil {
		s.sanitizeObservations(update.Observations)
	}

	updated, err := s.assessRepo.Update(ctx, assessmentID, update)
	if err != nil {
		return nil, fmt.Errorf("アセスメントの更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewAssessmentNotFoundError()
	}

	return s.assessRepo.FindByID(ctx, assessmentID)
}

// Delete はアセスメントを削除する。所有権を検証する。
func (s *Service) Delete(ctx context.Context, callerID, assessmentID string) error {
	if _, err := s.Get(ctx, callerID, assessmentID); err != nil {
		return err
	}

	deleted, err := s.assessRepo.Delete(ctx, assessmentID)
	if err != nil {
		return fmt.Errorf("アセスメントの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewAssessmentNotFoundError()
	}
	return nil
}

// NormalizeLimit は一覧取得のlimitを有効範囲に正規化する。
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func (s *Service) sanitizeChildInfo(info *model.ChildInfo) {
	info.Name = s.sanitizer.SanitizeText(info.Name)
	info.DominantHand = s.sanitizer.SanitizeText(info.DominantHand)
	info.PreviousAssessments = s.sanitizer.SanitizeText(info.PreviousAssessments)
	info.SpecificConcerns = s.sanitizer.SanitizeText(info.SpecificConcerns)
}

func (s *Service) sanitizeObservations(obs *model.Observations) {
	obs.MotorSkills = s.sanitizer.SanitizeText(obs.MotorSkills)
	obs.Concentration = s.sanitizer.SanitizeText(obs.Concentration)
	obs.FrustrationLevel = s.sanitizer.SanitizeText(obs.FrustrationLevel)
	obs.CooperationLevel = s.sanitizer.SanitizeText(obs.CooperationLevel)
	obs.AdditionalNotes = s.sanitizer.SanitizeText(obs.AdditionalNotes)
}
