package model

import "time"

// SpeechPractice は児童の発話練習の1日分の記録を表す。
// (child_name, practice_date) で一意。1日1回のみ作成できる。
// キーは保護者のサブジェクトIDではなく児童名（児童向け画面はセッションを持たない）。
type SpeechPractice struct {
	ID                 string
	ChildName          string
	Score              int
	TotalQuestions     int
	QuestionsAttempted int
	PracticeDate       string // "2006-01-02" 形式の日単位キー
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SpeechPracticeUpdate は部分更新で指定可能なフィールドを表す。
// nilのフィールドは変更しない。
type SpeechPracticeUpdate struct {
	Score              *int
	TotalQuestions     *int
	QuestionsAttempted *int
}

// IsEmpty は更新対象フィールドが1つもないかを返す。
func (u SpeechPracticeUpdate) IsEmpty() bool {
	return u.Score == nil && u.TotalQuestions == nil && u.QuestionsAttempted == nil
}
