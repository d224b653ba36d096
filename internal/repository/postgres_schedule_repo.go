package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brainwave/brainwave/internal/model"
)

// PostgresScheduleRepo はPostgreSQLを使用した日課アクティビティリポジトリ。
type PostgresScheduleRepo struct {
	db *sql.DB
}

// NewPostgresScheduleRepo はPostgresScheduleRepoを生成する。
func NewPostgresScheduleRepo(db *sql.DB) *PostgresScheduleRepo {
	return &PostgresScheduleRepo{db: db}
}

// Create は完了イベントを追記する。
func (r *PostgresScheduleRepo) Create(ctx context.Context, activity *model.DailyScheduleActivity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO daily_schedule_activities (id, child_name, preset_type, task_id,
		                                        task_title, task_emoji, completed_at,
		                                        activity_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		activity.ID, activity.ChildName, activity.PresetType, activity.TaskID,
		activity.TaskTitle, activity.TaskEmoji, activity.CompletedAt,
		activity.ActivityDate, activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert schedule activity: %w", err)
	}
	return nil
}

// ListByChildAndDate は児童の特定日のイベント一覧を完了時刻の昇順で返す。
func (r *PostgresScheduleRepo) ListByChildAndDate(ctx context.Context, childName, date string) ([]*model.DailyScheduleActivity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, child_name, preset_type, task_id, task_title, task_emoji,
		        completed_at, activity_date, created_at
		 FROM daily_schedule_activities
		 WHERE child_name = $1 AND activity_date = $2
		 ORDER BY completed_at ASC`,
		childName, date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule activities: %w", err)
	}
	defer rows.Close()

	return scanScheduleActivities(rows)
}

// ListByChildAndRange は児童の日付範囲内のイベント一覧を完了時刻の昇順で返す。
// 範囲は両端を含む。
func (r *PostgresScheduleRepo) ListByChildAndRange(ctx context.Context, childName, startDate, endDate string) ([]*model.DailyScheduleActivity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, child_name, preset_type, task_id, task_title, task_emoji,
		        completed_at, activity_date, created_at
		 FROM daily_schedule_activities
		 WHERE child_name = $1 AND activity_date >= $2 AND activity_date <= $3
		 ORDER BY activity_date ASC, completed_at ASC`,
		childName, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule activities in range: %w", err)
	}
	defer rows.Close()

	return scanScheduleActivities(rows)
}

func scanScheduleActivities(rows *sql.Rows) ([]*model.DailyScheduleActivity, error) {
	var activities []*model.DailyScheduleActivity
	for rows.Next() {
		activity := &model.DailyScheduleActivity{}
		if err := rows.Scan(
			&activity.ID, &activity.ChildName, &activity.PresetType, &activity.TaskID,
			&activity.TaskTitle, &activity.TaskEmoji, &activity.CompletedAt,
			&activity.ActivityDate, &activity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan schedule activity: %w", err)
		}
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule activities: %w", err)
	}

	return activities, nil
}

// compile-time interface check
var _ DailyScheduleRepository = (*PostgresScheduleRepo)(nil)
