// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/brainwave/brainwave/internal/model"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
// フロントエンドは`error`を表示し、`code`で分岐する。
type apiErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Error: apiErr.Message,
		Code:  apiErr.Code,
	})
}

// writeUnauthenticated は401レスポンスを書き込む。
func writeUnauthenticated(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
}

// writeInvalidRequest はリクエストボディ解析失敗の400レスポンスを書き込む。
func writeInvalidRequest(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:    model.ErrCodeInvalidRequest,
		Message: "Invalid request body",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodeAssessmentNotFound,
		model.ErrCodeReportNotFound, model.ErrCodePracticeNotFound:
		return http.StatusNotFound
	case model.ErrCodeAlreadyCompleted:
		return http.StatusConflict
	case model.ErrCodeValidation, model.ErrCodeInvalidRequest,
		model.ErrCodeNoValidFields, model.ErrCodeReportGeneration:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
