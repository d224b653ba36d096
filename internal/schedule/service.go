// Package schedule は日課アクティビティ記録のドメインロジックを提供する。
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/repository"
	"github.com/brainwave/brainwave/internal/security"
)

// dateLayout はアクティビティ日のフォーマット。
const dateLayout = "2006-01-02"

// maxRangeDays は範囲取得で許可する最大日数。
const maxRangeDays = 92

// RecordInput はアクティビティ完了記録の入力を表す。
type RecordInput struct {
	ChildName  string
	PresetType string
	TaskID     string
	TaskTitle  string
	TaskEmoji  string
}

// Service は日課アクティビティのサービス層。
type Service struct {
	scheduleRepo repository.DailyScheduleRepository
	sanitizer    security.TextSanitizerService
	now          func() time.Time // テスト用に差し替え可能
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(scheduleRepo repository.DailyScheduleRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		sanitizer:    sanitizer,
		now:          time.Now,
	}
}

// RecordActivity はタスク完了イベントを追記する。
// 同一タスクの複数回完了も有効なイベントとして記録される。
func (s *Service) RecordActivity(ctx context.Context, input RecordInput) (*model.DailyScheduleActivity, error) {
	input.ChildName = s.sanitizer.SanitizeText(input.ChildName)
	if input.ChildName == "" {
		return nil, model.NewValidationError("childName")
	}
	if input.TaskID == "" {
		return nil, model.NewValidationError("taskId")
	}
	input.TaskTitle = s.sanitizer.SanitizeText(input.TaskTitle)
	if input.TaskTitle == "" {
		return nil, model.NewValidationError("taskTitle")
	}

	now := s.now()
	activity := &model.DailyScheduleActivity{
		ID:           uuid.New().String(),
		ChildName:    input.ChildName,
		PresetType:   input.PresetType,
		TaskID:       input.TaskID,
		TaskTitle:    input.TaskTitle,
		TaskEmoji:    input.TaskEmoji,
		CompletedAt:  now,
		ActivityDate: now.Format(dateLayout),
		CreatedAt:    now,
	}

	if err := s.scheduleRepo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("アクティビティの記録に失敗しました: %w", err)
	}

	return activity, nil
}

// GetToday は児童の当日の完了アクティビティ集計を返す。
// 記録がない日は空の一覧と件数0を返す。
func (s *Service) GetToday(ctx context.Context, childName string) (*model.DailyScheduleSummary, error) {
	childName = s.sanitizer.SanitizeText(childName)
	if childName == "" {
		return nil, model.NewValidationError("childName")
	}

	today := s.now().Format(dateLayout)
	activities, err := s.scheduleRepo.ListByChildAndDate(ctx, childName, today)
	if err != nil {
		return nil, fmt.Errorf("アクティビティの取得に失敗しました: %w", err)
	}
	if activities == nil {
		activities = []*model.DailyScheduleActivity{}
	}

	return &model.DailyScheduleSummary{
		Date:           today,
		TotalCompleted: len(activities),
		Activities:     activities,
	}, nil
}

// GetRange は児童の日付範囲内のアクティビティを日別に集計して返す。
// 範囲は両端を含み、最大maxRangeDays日まで。記録のない日は結果に含まれない。
func (s *Service) GetRange(ctx context.Context, childName, startDate, endDate string) ([]*model.DailyScheduleSummary, error) {
	childName = s.sanitizer.SanitizeText(childName)
	if childName == "" {
		return nil, model.NewValidationError("childName")
	}

	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, model.NewValidationError("start_date")
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, model.NewValidationError("end_date")
	}
	if end.Before(start) {
		return nil, model.NewValidationError("end_date")
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return nil, model.NewValidationError("end_date")
	}

	activities, err := s.scheduleRepo.ListByChildAndRange(ctx, childName, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("アクティビティの取得に失敗しました: %w", err)
	}

	// 日付昇順でグループ化する。リポジトリがactivity_date昇順で返すため
	// 出現順にまとめるだけでよい。
	var summaries []*model.DailyScheduleSummary
	byDate := make(map[string]*model.DailyScheduleSummary)
	for _, activity := range activities {
		summary, ok := byDate[activity.ActivityDate]
		if !ok {
			summary = &model.DailyScheduleSummary{Date: activity.ActivityDate}
			byDate[activity.ActivityDate] = summary
			summaries = append(summaries, summary)
		}
		summary.Activities = append(summary.Activities, activity)
		summary.TotalCompleted++
	}

	return summaries, nil
}
