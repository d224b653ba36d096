package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/practice"
)

// PracticeServiceInterface は発話練習ハンドラーが必要とするサービスインターフェース。
type PracticeServiceInterface interface {
	Create(ctx context.Context, input practice.CreateInput) (*model.SpeechPractice, error)
	GetToday(ctx context.Context, childName string) (*model.SpeechPractice, error)
	ListByChild(ctx context.Context, childName string, limit int) ([]*model.SpeechPractice, error)
	Update(ctx context.Context, practiceID string, update model.SpeechPracticeUpdate) error
	Delete(ctx context.Context, practiceID string) error
}

// PracticeHandler は発話練習記録のHTTPハンドラー。
// 児童向け画面から呼ばれるためセッション認証を要求しない。
type PracticeHandler struct {
	service PracticeServiceInterface
}

// NewPracticeHandler はPracticeHandlerを生成する。
func NewPracticeHandler(service PracticeServiceInterface) *PracticeHandler {
	return &PracticeHandler{service: service}
}

// createPracticeRequest は練習記録作成のリクエストボディ。
type createPracticeRequest struct {
	ChildName          string `json:"childName"`
	Score              int    `json:"score"`
	TotalQuestions     int    `json:"totalQuestions"`
	QuestionsAttempted int    `json:"questionsAttempted"`
}

// Create は当日の練習記録を作成する。同日2回目は409を返す。
// POST /api/speech-practice
func (h *PracticeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPracticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	created, err := h.service.Create(r.Context(), practice.CreateInput{
		ChildName:          req.ChildName,
		Score:              req.Score,
		TotalQuestions:     req.TotalQuestions,
		QuestionsAttempted: req.QuestionsAttempted,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPracticeResponse(created))
}

// GetToday は児童の当日の練習記録を返す。
// 記録がない日はcompletedフラグ付きの200で応答する。
// GET /api/speech-practice/today/{childName}
func (h *PracticeHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetToday(r.Context(), chi.URLParam(r, "childName"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if p == nil {
		writeJSON(w, http.StatusOK, map[string]any{"completed": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"completed": true,
		"practice":  toPracticeResponse(p),
	})
}

// ListByChild は児童の練習履歴を返す。
// GET /api/speech-practice/child/{childName}?limit=30
func (h *PracticeHandler) ListByChild(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	practices, err := h.service.ListByChild(r.Context(), chi.URLParam(r, "childName"), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPracticeResponses(practices))
}

// updatePracticeRequest は練習記録更新のリクエストボディ。
type updatePracticeRequest struct {
	Score              *int `json:"score"`
	TotalQuestions     *int `json:"totalQuestions"`
	QuestionsAttempted *int `json:"questionsAttempted"`
}

// Update は練習記録を部分更新する。
// PUT /api/speech-practice/{id}
func (h *PracticeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updatePracticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	if err := h.service.Update(r.Context(), chi.URLParam(r, "id"), model.SpeechPracticeUpdate{
		Score:              req.Score,
		TotalQuestions:     req.TotalQuestions,
		QuestionsAttempted: req.QuestionsAttempted,
	}); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Practice updated successfully"})
}

// Delete は練習記録を削除する。
// DELETE /api/speech-practice/{id}
func (h *PracticeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Practice deleted successfully"})
}
