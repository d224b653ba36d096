package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brainwave/brainwave/internal/middleware"
	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/report"
)

// ReportServiceInterface はレポートハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	Generate(ctx context.Context, callerID, assessmentID string) (*report.GenerateResult, error)
	GetByAssessment(ctx context.Context, callerID, assessmentID string) (*model.Report, error)
	List(ctx context.Context, callerID string, limit int) ([]*model.Report, error)
	Delete(ctx context.Context, callerID, reportID string) error
}

// ReportHandler はレポート生成・取得のHTTPハンドラー。
type ReportHandler struct {
	service ReportServiceInterface
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: service}
}

// Generate はアセスメントから臨床レポートを生成する。
// 既存レポートがある場合は再生成せず200で既存レポートを返す。
// POST /api/reports/generate/{assessmentID}
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	result, err := h.service.Generate(r.Context(), callerID, chi.URLParam(r, "assessmentID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyExists {
		status = http.StatusOK
	}
	writeJSON(w, status, toReportResponse(result.Report))
}

// GetByAssessment はアセスメントIDでレポートを取得する。
// レポート未生成は正常系であり、existsフラグ付きの200で応答する。
// GET /api/reports/assessment/{assessmentID}
func (h *ReportHandler) GetByAssessment(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	rep, err := h.service.GetByAssessment(r.Context(), callerID, chi.URLParam(r, "assessmentID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if rep == nil {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"exists": true,
		"report": toReportResponse(rep),
	})
}

// List は呼び出し元が所有するレポート一覧を返す。
// GET /api/reports?limit=20
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	reports, err := h.service.List(r.Context(), callerID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponses(reports))
}

// Delete はレポートを削除する。
// DELETE /api/reports/{id}
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.Auth0IDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	if err := h.service.Delete(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Report deleted successfully"})
}
