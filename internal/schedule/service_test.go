package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/security"
)

type mockScheduleRepo struct {
	createFn              func(ctx context.Context, activity *model.DailyScheduleActivity) error
	listByChildAndDateFn  func(ctx context.Context, childName, date string) ([]*model.DailyScheduleActivity, error)
	listByChildAndRangeFn func(ctx context.Context, childName, startDate, endDate string) ([]*model.DailyScheduleActivity, error)
}

func (m *mockScheduleRepo) Create(ctx context.Context, activity *model.DailyScheduleActivity) error {
	if m.createFn != nil {
		return m.createFn(ctx, activity)
	}
	return nil
}

func (m *mockScheduleRepo) ListByChildAndDate(ctx context.Context, childName, date string) ([]*model.DailyScheduleActivity, error) {
	if m.listByChildAndDateFn != nil {
		return m.listByChildAndDateFn(ctx, childName, date)
	}
	return nil, nil
}

func (m *mockScheduleRepo) ListByChildAndRange(ctx context.Context, childName, startDate, endDate string) ([]*model.DailyScheduleActivity, error) {
	if m.listByChildAndRangeFn != nil {
		return m.listByChildAndRangeFn(ctx, childName, startDate, endDate)
	}
	return nil, nil
}

func newTestService(repo *mockScheduleRepo) *Service {
	svc := NewService(repo, security.NewTextSanitizer())
	svc.now = func() time.Time {
		return time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestRecordActivity_StampsCompletionTime(t *testing.T) {
	var saved *model.DailyScheduleActivity
	repo := &mockScheduleRepo{
		createFn: func(ctx context.Context, activity *model.DailyScheduleActivity) error {
			saved = activity
			return nil
		},
	}
	svc := newTestService(repo)

	activity, err := svc.RecordActivity(context.Background(), RecordInput{
		ChildName:  "はなこ",
		PresetType: "morning",
		TaskID:     "brush-teeth",
		TaskTitle:  "はみがき",
		TaskEmoji:  "🪥",
	})
	if err != nil {
		t.Fatalf("RecordActivity() error = %v", err)
	}
	if activity.ActivityDate != "2026-08-28" {
		t.Errorf("ActivityDate = %q, want %q", activity.ActivityDate, "2026-08-28")
	}
	if saved == nil || saved.ID == "" {
		t.Error("expected activity to be saved with generated ID")
	}
}

// 同一タスクの複数回完了も有効なイベントとして記録される。
func TestRecordActivity_DuplicateTask_Allowed(t *testing.T) {
	calls := 0
	repo := &mockScheduleRepo{
		createFn: func(ctx context.Context, activity *model.DailyScheduleActivity) error {
			calls++
			return nil
		},
	}
	svc := newTestService(repo)

	input := RecordInput{ChildName: "はなこ", TaskID: "brush-teeth", TaskTitle: "はみがき"}
	for i := 0; i < 2; i++ {
		if _, err := svc.RecordActivity(context.Background(), input); err != nil {
			t.Fatalf("RecordActivity() #%d error = %v", i+1, err)
		}
	}
	if calls != 2 {
		t.Errorf("create calls = %d, want 2", calls)
	}
}

func TestRecordActivity_MissingFields(t *testing.T) {
	svc := newTestService(&mockScheduleRepo{})

	cases := []RecordInput{
		{ChildName: "", TaskID: "t", TaskTitle: "x"},
		{ChildName: "はなこ", TaskID: "", TaskTitle: "x"},
		{ChildName: "はなこ", TaskID: "t", TaskTitle: ""},
	}
	for i, input := range cases {
		_, err := svc.RecordActivity(context.Background(), input)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
			t.Errorf("case %d: error = %v, want VALIDATION_ERROR", i, err)
		}
	}
}

func TestGetToday_NoRecords_ReturnsEmptySummary(t *testing.T) {
	svc := newTestService(&mockScheduleRepo{})

	summary, err := svc.GetToday(context.Background(), "はなこ")
	if err != nil {
		t.Fatalf("GetToday() error = %v", err)
	}
	if summary.TotalCompleted != 0 {
		t.Errorf("TotalCompleted = %d, want 0", summary.TotalCompleted)
	}
	if summary.Activities == nil {
		t.Error("Activities must be empty slice, not nil")
	}
	if summary.Date != "2026-08-28" {
		t.Errorf("Date = %q, want today", summary.Date)
	}
}

func TestGetRange_GroupsByDate(t *testing.T) {
	repo := &mockScheduleRepo{
		listByChildAndRangeFn: func(ctx context.Context, childName, startDate, endDate string) ([]*model.DailyScheduleActivity, error) {
			return []*model.DailyScheduleActivity{
				{ID: "a1", ActivityDate: "2026-08-26", TaskID: "t1"},
				{ID: "a2", ActivityDate: "2026-08-26", TaskID: "t2"},
				{ID: "a3", ActivityDate: "2026-08-28", TaskID: "t1"},
			}, nil
		},
	}
	svc := newTestService(repo)

	summaries, err := svc.GetRange(context.Background(), "はなこ", "2026-08-25", "2026-08-28")
	if err != nil {
		t.Fatalf("GetRange() error = %v", err)
	}
	// 記録のない日は結果に含まれない
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}
	if summaries[0].Date != "2026-08-26" || summaries[0].TotalCompleted != 2 {
		t.Errorf("first summary = %+v, want 2026-08-26 with 2 events", summaries[0])
	}
	if summaries[1].Date != "2026-08-28" || summaries[1].TotalCompleted != 1 {
		t.Errorf("second summary = %+v, want 2026-08-28 with 1 event", summaries[1])
	}
}

func TestGetRange_Validation(t *testing.T) {
	svc := newTestService(&mockScheduleRepo{})

	cases := []struct {
		name       string
		start, end string
	}{
		{"bad start", "bogus", "2026-08-28"},
		{"bad end", "2026-08-25", "bogus"},
		{"end before start", "2026-08-28", "2026-08-25"},
		{"range too wide", "2026-01-01", "2026-12-31"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetRange(context.Background(), "はなこ", tc.start, tc.end)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
				t.Errorf("error = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}
