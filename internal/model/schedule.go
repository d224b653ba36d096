package model

import "time"

// DailyScheduleActivity は日課タスクの完了イベントを表す。
// 追記専用のイベントログであり、同一タスクの複数回完了も有効。
type DailyScheduleActivity struct {
	ID           string
	ChildName    string
	PresetType   string
	TaskID       string
	TaskTitle    string
	TaskEmoji    string
	CompletedAt  time.Time
	ActivityDate string // "2006-01-02" 形式の日単位キー
	CreatedAt    time.Time
}

// DailyScheduleSummary は特定日の完了アクティビティの集計を表す。
type DailyScheduleSummary struct {
	Date           string
	TotalCompleted int
	Activities     []*DailyScheduleActivity
}
