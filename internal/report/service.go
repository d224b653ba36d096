// Package report はAIゲートウェイによる臨床レポート生成のドメインロジックを提供する。
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brainwave/brainwave/internal/metrics"
	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/ondemand"
	"github.com/brainwave/brainwave/internal/ownership"
	"github.com/brainwave/brainwave/internal/repository"
)

// DefaultListLimit はレポート一覧のデフォルト件数。
const DefaultListLimit = 50

// GenerateResult はレポート生成の結果を表す。
// 既存レポートが返された場合はAlreadyExistsがtrueになる。
type GenerateResult struct {
	Report        *model.Report
	AlreadyExists bool
}

// Service はレポート生成・取得・削除のサービス層。
type Service struct {
	reportRepo repository.ReportRepository
	assessRepo repository.AssessmentRepository
	gateway    ondemand.Gateway
	collector  metrics.MetricsCollector
	logger     *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	reportRepo repository.ReportRepository,
	assessRepo repository.AssessmentRepository,
	gateway ondemand.Gateway,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	return &Service{
		reportRepo: reportRepo,
		assessRepo: assessRepo,
		gateway:    gateway,
		collector:  collector,
		logger:     logger,
	}
}

// Generate はアセスメントから臨床レポートを生成する。
//
// 冪等な操作であり、既にレポートが存在する場合はゲートウェイを呼ばずに
// 既存レポートを返す。ゲートウェイ失敗時はリトライせず、上流のエラー理由を
// そのまま伝搬する。同一アセスメントへの同時生成はDBのユニーク制約により
// 先勝ちで解決される。
func (s *Service) Generate(ctx context.Context, callerID, assessmentID string) (*GenerateResult, error) {
	// 1. アセスメントの取得と所有権検証
	assessment, err := ownership.Authorize(ctx, callerID, model.NewAssessmentNotFoundError(),
		func(ctx context.Context) (*model.Assessment, error) {
			return s.assessRepo.FindByID(ctx, assessmentID)
		})
	if err != nil {
		return nil, err
	}

	// 2. 既存レポートがあればそれを返す
	existing, err := s.reportRepo.FindByAssessmentID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("レポートの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return &GenerateResult{Report: existing, AlreadyExists: true}, nil
	}

	// 3. ゲートウェイセッションを作成しクエリを送信
	start := time.Now()
	sessionID, err := s.gateway.CreateSession(ctx)
	if err != nil {
		s.collector.RecordReportGenerationFailure("session_create")
		return nil, model.NewReportGenerationError(fmt.Sprintf("Failed to create session: %v", err))
	}

	result, err := s.gateway.SubmitQuery(ctx, sessionID, buildPrompt(assessment))
	s.collector.RecordGatewayLatency(time.Since(start))
	if err != nil {
		s.collector.RecordReportGenerationFailure("query")
		return nil, model.NewReportGenerationError(fmt.Sprintf("Failed to generate report: %v", err))
	}

	// 4. Markdown記法を除去して保存
	now := time.Now()
	report := &model.Report{
		ID:               uuid.New().String(),
		AssessmentID:     assessmentID,
		ParentAuth0ID:    callerID,
		ReportContent:    ondemand.RemoveMarkdown(result.Answer),
		GatewaySessionID: sessionID,
		GatewayMessageID: result.MessageID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	inserted, err := s.reportRepo.Create(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("レポートの保存に失敗しました: %w", err)
	}
	if !inserted {
		// 同時生成で先を越された場合は既存レポートを返す
		existing, err := s.reportRepo.FindByAssessmentID(ctx, assessmentID)
		if err != nil {
			return nil, fmt.Errorf("レポートの再取得に失敗しました: %w", err)
		}
		if existing == nil {
			return nil, fmt.Errorf("レポートの保存が競合し、既存レポートも見つかりません")
		}
		return &GenerateResult{Report: existing, AlreadyExists: true}, nil
	}

	s.collector.RecordReportGenerated()
	s.logger.Info("report generated",
		slog.String("report_id", report.ID),
		slog.String("assessment_id", assessmentID),
	)

	return &GenerateResult{Report: report}, nil
}

// GetByAssessment はアセスメントIDでレポートを取得する。
// アセスメントの所有権を検証した上で、レポートが存在しない場合はnilを返す
// （レポート未生成は正常系として扱う）。
func (s *Service) GetByAssessment(ctx context.Context, callerID, assessmentID string) (*model.Report, error) {
	if _, err := ownership.Authorize(ctx, callerID, model.NewAssessmentNotFoundError(),
		func(ctx context.Context) (*model.Assessment, error) {
			return s.assessRepo.FindByID(ctx, assessmentID)
		}); err != nil {
		return nil, err
	}

	report, err := s.reportRepo.FindByAssessmentID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("レポートの検索に失敗しました: %w", err)
	}
	return report, nil
}

// List は呼び出し元が所有するレポート一覧を作成日時の降順で返す。
func (s *Service) List(ctx context.Context, callerID string, limit int) ([]*model.Report, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	reports, err := s.reportRepo.ListByParent(ctx, callerID, limit)
	if err != nil {
		return nil, fmt.Errorf("レポート一覧の取得に失敗しました: %w", err)
	}
	return reports, nil
}

// Delete はレポートを削除する。所有権を検証した上で削除する。
func (s *Service) Delete(ctx context.Context, callerID, reportID string) error {
	if _, err := ownership.Authorize(ctx, callerID, model.NewReportNotFoundError(),
		func(ctx context.Context) (*model.Report, error) {
			return s.reportRepo.FindByID(ctx, reportID)
		}); err != nil {
		return err
	}

	deleted, err := s.reportRepo.Delete(ctx, reportID)
	if err != nil {
		return fmt.Errorf("レポートの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewReportNotFoundError()
	}
	return nil
}
