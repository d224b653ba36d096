package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// フロントエンドが分岐に使う機械可読コードと表示用メッセージを持つ。
type APIError struct {
	Code    string // エラーコード
	Message string // エラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeAssessmentNotFound = "ASSESSMENT_NOT_FOUND"
	ErrCodeReportNotFound     = "REPORT_NOT_FOUND"
	ErrCodePracticeNotFound   = "PRACTICE_NOT_FOUND"
	ErrCodeAlreadyCompleted   = "ALREADY_COMPLETED"
	ErrCodeNoValidFields      = "NO_VALID_FIELDS"
	ErrCodeReportGeneration   = "REPORT_GENERATION_FAILED"
	ErrCodeSSRFBlocked        = "SSRF_BLOCKED"
)

// NewUnauthenticatedError は未認証エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthenticated,
		Message: "Authentication required",
	}
}

// NewForbiddenError は所有者不一致エラーを生成する。
// リソースの内容は一切含めない。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: "Unauthorized",
	}
}

// NewValidationError は必須フィールド欠落エラーを生成する。
func NewValidationError(field string) *APIError {
	return &APIError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("Missing required field: %s", field),
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeUserNotFound,
		Message: "User not found",
	}
}

// NewAssessmentNotFoundError はアセスメント未検出エラーを生成する。
func NewAssessmentNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeAssessmentNotFound,
		Message: "Assessment not found",
	}
}

// NewReportNotFoundError はレポート未検出エラーを生成する。
func NewReportNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeReportNotFound,
		Message: "Report not found",
	}
}

// NewPracticeNotFoundError は発話練習記録の未検出エラーを生成する。
func NewPracticeNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodePracticeNotFound,
		Message: "Practice not found",
	}
}

// NewAlreadyCompletedError は同日重複作成エラーを生成する。
func NewAlreadyCompletedError() *APIError {
	return &APIError{
		Code:    ErrCodeAlreadyCompleted,
		Message: "Already completed today",
	}
}

// NewNoValidFieldsError は更新可能フィールドが1つもない場合のエラーを生成する。
func NewNoValidFieldsError() *APIError {
	return &APIError{
		Code:    ErrCodeNoValidFields,
		Message: "No valid fields to update",
	}
}

// NewReportGenerationError はAIゲートウェイ起因の生成失敗エラーを生成する。
// 上流のエラーメッセージをそのまま伝搬する。リトライは行わない。
func NewReportGenerationError(reason string) *APIError {
	return &APIError{
		Code:    ErrCodeReportGeneration,
		Message: reason,
	}
}

// NewSSRFBlockedError は安全でないURLへのアクセス拒否エラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:    ErrCodeSSRFBlocked,
		Message: "Access to the requested URL is not allowed",
	}
}
