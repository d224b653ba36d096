// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/brainwave/brainwave/internal/model"
)

// ErrDuplicatePractice は同一児童・同一日の発話練習記録が既に存在する場合に返される。
// DBのユニーク制約違反から変換されるため、同時リクエスト下でも一意性が保たれる。
var ErrDuplicatePractice = errors.New("speech practice already recorded for this child today")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByAuth0ID は指定サブジェクトIDのユーザーを取得する。見つからない場合はnilを返す。
	FindByAuth0ID(ctx context.Context, auth0ID string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// Update は指定フィールドのみを更新する。nilのフィールドは変更しない。
	// 更新対象が存在した場合にtrueを返す。
	Update(ctx context.Context, auth0ID string, update UserUpdate) (bool, error)

	// DeleteByAuth0ID は指定サブジェクトIDのユーザーを削除する。
	// 削除された場合にtrueを返す。関連セッションはCASCADE削除される。
	DeleteByAuth0ID(ctx context.Context, auth0ID string) (bool, error)

	// List はユーザー一覧をlimit/skipページネーションで返す。
	List(ctx context.Context, limit, skip int) ([]*model.User, error)
}

// UserUpdate はユーザーの部分更新で指定可能なフィールドを表す。
type UserUpdate struct {
	Name          *string
	Picture       *string
	EmailVerified *bool
}

// IsEmpty は更新対象フィールドが1つもないかを返す。
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Picture == nil && u.EmailVerified == nil
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// AssessmentRepository はアセスメントデータの永続化インターフェース。
type AssessmentRepository interface {
	// Create はアセスメントを作成する。タイムスタンプは呼び出し側でなくリポジトリが刻印する。
	Create(ctx context.Context, assessment *model.Assessment) error

	// FindByID は指定IDのアセスメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Assessment, error)

	// ListByParent は保護者のアセスメント一覧を作成日時の降順で返す。
	ListByParent(ctx context.Context, parentAuth0ID string, limit, skip int) ([]*model.Assessment, error)

	// ListByParentAndChild は保護者の特定児童のアセスメント一覧を作成日時の降順で返す。
	ListByParentAndChild(ctx context.Context, parentAuth0ID, childName string) ([]*model.Assessment, error)

	// Update は指定フィールドのみを更新する。更新対象が存在した場合にtrueを返す。
	Update(ctx context.Context, id string, update model.AssessmentUpdate) (bool, error)

	// Delete は指定IDのアセスメントを削除する。削除された場合にtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// ReportRepository は生成済みレポートの永続化インターフェース。
type ReportRepository interface {
	// Create はレポートを作成する。同一アセスメントのレポートが既に存在する場合は
	// 挿入を行わずfalseを返す（先勝ち）。
	Create(ctx context.Context, report *model.Report) (bool, error)

	// FindByID は指定IDのレポートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Report, error)

	// FindByAssessmentID はアセスメントIDでレポートを検索する。見つからない場合はnilを返す。
	FindByAssessmentID(ctx context.Context, assessmentID string) (*model.Report, error)

	// ListByParent は保護者のレポート一覧を作成日時の降順で返す。
	ListByParent(ctx context.Context, parentAuth0ID string, limit int) ([]*model.Report, error)

	// Delete は指定IDのレポートを削除する。削除された場合にtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// SpeechPracticeRepository は発話練習記録の永続化インターフェース。
type SpeechPracticeRepository interface {
	// Create は練習記録を作成する。同一児童・同一日の記録が既に存在する場合は
	// ErrDuplicatePracticeを返す。一意性は(child_name, practice_date)の
	// ユニーク制約で保証され、事前チェックの競合に依存しない。
	Create(ctx context.Context, practice *model.SpeechPractice) error

	// FindByChildAndDate は児童と日付で練習記録を検索する。見つからない場合はnilを返す。
	FindByChildAndDate(ctx context.Context, childName, date string) (*model.SpeechPractice, error)

	// ListByChild は児童の練習記録一覧を作成日時の降順で返す。
	ListByChild(ctx context.Context, childName string, limit int) ([]*model.SpeechPractice, error)

	// Update は指定フィールドのみを更新する。更新対象が存在した場合にtrueを返す。
	Update(ctx context.Context, id string, update model.SpeechPracticeUpdate) (bool, error)

	// Delete は指定IDの練習記録を削除する。削除された場合にtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// DailyScheduleRepository は日課アクティビティ完了イベントの永続化インターフェース。
type DailyScheduleRepository interface {
	// Create は完了イベントを追記する。重複は許容される。
	Create(ctx context.Context, activity *model.DailyScheduleActivity) error

	// ListByChildAndDate は児童の特定日のイベント一覧を完了時刻の昇順で返す。
	ListByChildAndDate(ctx context.Context, childName, date string) ([]*model.DailyScheduleActivity, error)

	// ListByChildAndRange は児童の日付範囲内のイベント一覧を完了時刻の昇順で返す。
	ListByChildAndRange(ctx context.Context, childName, startDate, endDate string) ([]*model.DailyScheduleActivity, error)
}
