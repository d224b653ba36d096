package model

import "time"

// Report はAIゲートウェイで生成された臨床レポートを表す。
// アセスメントごとに高々1件（assessment_idにユニーク制約、先勝ち）。
type Report struct {
	ID               string
	AssessmentID     string
	ParentAuth0ID    string
	ReportContent    string
	GatewaySessionID string
	GatewayMessageID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OwnerID は所有権ポリシーが参照する所有者識別子を返す。
func (r *Report) OwnerID() string { return r.ParentAuth0ID }
