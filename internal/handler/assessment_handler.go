package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brainwave/brainwave/internal/assessment"
	"github.com/brainwave/brainwave/internal/middleware"
	"github.com/brainwave/brainwave/internal/model"
)

// AssessmentServiceInterface はアセスメントハンドラーが必要とするサービスインターフェース。
type AssessmentServiceInterface interface {
	Create(ctx context.Context, callerID string, input assessment.CreateInput) (*model.Assessment, error)
	Get(ctx context.Context, callerID, assessmentID string) (*model.Assessment, error)
	List(ctx context.Context, callerID string, limit, skip int) ([]*model.Assessment, error)
	ListByChild(ctx context.Context, callerID, childName string) ([]*model.Assessment, error)
	Update(ctx context.Context, callerID, assessmentID string, update model.AssessmentUpdate) (*model.Assessment, error)
	Delete(ctx context.Context, callerID, assessmentID string) error
}

// AssessmentHandler はアセスメント管理のHTTPハンドラー。
type AssessmentHandler struct {
	service AssessmentServiceInterface
}

// NewAssessmentHandler はAssessmentHandlerを生成する。
func NewAssessmentHandler(service AssessmentServiceInterface) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// createAssessmentRequest はアセスメント作成のリクエストボディ。
type createAssessmentRequest struct {
	ChildInfo      model.ChildInfo    `json:"childInfo"`
	TestResults    []model.TestResult `json:"testResults"`
	TotalTime      float64            `json:"totalTime"`
	Observations   model.Observations `json:"observations"`
	AssessmentDate string             `json:"assessmentDate"`
	AssessmentType string             `json:"assessmentType"`
}

// Create はアセスメントを作成する。
// POST /api/assessments
func (h *AssessmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req createAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	created, err := h.service.Create(r.Context(), callerID, assessment.CreateInput{
		ChildInfo:      req.ChildInfo,
		TestResults:    req.TestResults,
		TotalTime:      req.TotalTime,
		Observations:   req.Observations,
		AssessmentDate: req.AssessmentDate,
		AssessmentType: req.AssessmentType,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAssessmentResponse(created))
}

// List は呼び出し元が所有するアセスメント一覧を返す。
// GET /api/assessments?limit=50&skip=0
func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	limit, skip := parsePagination(r)

	assessments, err := h.service.List(r.Context(), callerID, limit, skip)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAssessmentResponses(assessments))
}

// Get はアセスメントを取得する。
// GET /api/assessments/{id}
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	a, err := h.service.Get(r.Context(), callerID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAssessmentResponse(a))
}

// ListByChild は特定児童のアセスメント一覧を返す。
// GET /api/assessments/child/{childName}
func (h *AssessmentHandler) ListByChild(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	assessments, err := h.service.ListByChild(r.Context(), callerID, chi.URLParam(r, "childName"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAssessmentResponses(assessments))
}

// updateAssessmentRequest はアセスメント部分更新のリクエストボディ。
// 省略されたフィールドは変更しない。
type updateAssessmentRequest struct {
	ChildInfo      *model.ChildInfo    `json:"childInfo"`
	TestResults    []model.TestResult  `json:"testResults"`
	TotalTime      *float64            `json:"totalTime"`
	Observations   *model.Observations `json:"observations"`
	AssessmentDate *string             `json:"assessmentDate"`
	AssessmentType *string             `json:"assessmentType"`
}

// Update はアセスメントを部分更新する。
// PUT /api/assessments/{id}
func (h *AssessmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req updateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	updated, err := h.service.Update(r.Context(), callerID, chi.URLParam(r, "id"), model.AssessmentUpdate{
		ChildInfo:      req.ChildInfo,
		TestResults:    req.TestResults,
		TotalTime:      req.TotalTime,
		Observations:   req.Observations,
		AssessmentDate: req.AssessmentDate,
		AssessmentType: req.AssessmentType,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAssessmentResponse(updated))
}

// Delete はアセスメントを削除する。
// DELETE /api/assessments/{id}
func (h *AssessmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	if err := h.service.Delete(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Assessment deleted successfully"})
}
