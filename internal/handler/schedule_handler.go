package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/schedule"
)

// ScheduleServiceInterface は日課ハンドラーが必要とするサービスインターフェース。
type ScheduleServiceInterface interface {
	RecordActivity(ctx context.Context, input schedule.RecordInput) (*model.DailyScheduleActivity, error)
	GetToday(ctx context.Context, childName string) (*model.DailyScheduleSummary, error)
	GetRange(ctx context.Context, childName, startDate, endDate string) ([]*model.DailyScheduleSummary, error)
}

// ScheduleHandler は日課アクティビティ記録のHTTPハンドラー。
// 児童向け画面から呼ばれるためセッション認証を要求しない。
type ScheduleHandler struct {
	service ScheduleServiceInterface
}

// NewScheduleHandler はScheduleHandlerを生成する。
func NewScheduleHandler(service ScheduleServiceInterface) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// recordActivityRequest はタスク完了記録のリクエストボディ。
type recordActivityRequest struct {
	ChildName  string `json:"childName"`
	PresetType string `json:"presetType"`
	TaskID     string `json:"taskId"`
	TaskTitle  string `json:"taskTitle"`
	TaskEmoji  string `json:"taskEmoji"`
}

// RecordActivity はタスク完了イベントを記録する。
// POST /api/daily-schedule/activity
func (h *ScheduleHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	var req recordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	activity, err := h.service.RecordActivity(r.Context(), schedule.RecordInput{
		ChildName:  req.ChildName,
		PresetType: req.PresetType,
		TaskID:     req.TaskID,
		TaskTitle:  req.TaskTitle,
		TaskEmoji:  req.TaskEmoji,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toActivityResponse(activity))
}

// GetToday は児童の当日の完了アクティビティ集計を返す。
// GET /api/daily-schedule/today/{childName}
func (h *ScheduleHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetToday(r.Context(), chi.URLParam(r, "childName"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleSummaryResponse(summary))
}

// GetRange は児童の日付範囲内のアクティビティを日別に集計して返す。
// GET /api/daily-schedule/range/{childName}?start_date=2025-01-01&end_date=2025-01-31
func (h *ScheduleHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")

	summaries, err := h.service.GetRange(r.Context(), chi.URLParam(r, "childName"), startDate, endDate)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if summaries == nil {
		summaries = []*model.DailyScheduleSummary{}
	}
	writeJSON(w, http.StatusOK, toScheduleSummaryResponses(summaries))
}
