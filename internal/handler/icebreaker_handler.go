package handler

import (
	"context"
	"encoding/json"
	"net/http"
)

// IceBreakerServiceInterface はチャットハンドラーが必要とするサービスインターフェース。
type IceBreakerServiceInterface interface {
	Chat(ctx context.Context, message string) (string, error)
}

// IceBreakerHandler は児童向けチャットのHTTPハンドラー。
// 児童向け画面から呼ばれるためセッション認証を要求しない。
type IceBreakerHandler struct {
	service IceBreakerServiceInterface
}

// NewIceBreakerHandler はIceBreakerHandlerを生成する。
func NewIceBreakerHandler(service IceBreakerServiceInterface) *IceBreakerHandler {
	return &IceBreakerHandler{service: service}
}

// chatRequest はチャットのリクエストボディ。
type chatRequest struct {
	Message string `json:"message"`
}

// Chat はメッセージへの応答を返す。
// ゲートウェイ失敗時もローカルフォールバックにより常に200で応答する。
// POST /api/ice-breaker/chat
func (h *IceBreakerHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	reply, err := h.service.Chat(r.Context(), req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response": reply,
		"status":   "success",
	})
}
