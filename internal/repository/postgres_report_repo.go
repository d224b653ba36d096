package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brainwave/brainwave/internal/model"
)

// PostgresReportRepo はPostgreSQLを使用したレポートリポジトリ。
type PostgresReportRepo struct {
	db *sql.DB
}

// NewPostgresReportRepo はPostgresReportRepoを生成する。
func NewPostgresReportRepo(db *sql.DB) *PostgresReportRepo {
	return &PostgresReportRepo{db: db}
}

// Create はレポートを作成する。assessment_idのユニーク制約により
// 同一アセスメントへの同時生成は先に書き込んだ方が勝つ。
// 挿入された場合にtrueを返す。
func (r *PostgresReportRepo) Create(ctx context.Context, report *model.Report) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (id, assessment_id, parent_auth0_id, report_content,
		                      gateway_session_id, gateway_message_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (assessment_id) DO NOTHING`,
		report.ID, report.AssessmentID, report.ParentAuth0ID, report.ReportContent,
		report.GatewaySessionID, report.GatewayMessageID, report.CreatedAt, report.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// FindByID は指定IDのレポートを取得する。見つからない場合はnilを返す。
func (r *PostgresReportRepo) FindByID(ctx context.Context, id string) (*model.Report, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByAssessmentID はアセスメントIDでレポートを検索する。見つからない場合はnilを返す。
func (r *PostgresReportRepo) FindByAssessmentID(ctx context.Context, assessmentID string) (*model.Report, error) {
	return r.findOne(ctx, `WHERE assessment_id = $1`, assessmentID)
}

func (r *PostgresReportRepo) findOne(ctx context.Context, where string, arg any) (*model.Report, error) {
	report := &model.Report{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, assessment_id, parent_auth0_id, report_content,
		        gateway_session_id, gateway_message_id, created_at, updated_at
		 FROM reports `+where,
		arg,
	).Scan(
		&report.ID, &report.AssessmentID, &report.ParentAuth0ID, &report.ReportContent,
		&report.GatewaySessionID, &report.GatewayMessageID, &report.CreatedAt, &report.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return report, nil
}

// ListByParent は保護者のレポート一覧を作成日時の降順で返す。
func (r *PostgresReportRepo) ListByParent(ctx context.Context, parentAuth0ID string, limit int) ([]*model.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, assessment_id, parent_auth0_id, report_content,
		        gateway_session_id, gateway_message_id, created_at, updated_at
		 FROM reports
		 WHERE parent_auth0_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		parentAuth0ID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		report := &model.Report{}
		if err := rows.Scan(
			&report.ID, &report.AssessmentID, &report.ParentAuth0ID, &report.ReportContent,
			&report.GatewaySessionID, &report.GatewayMessageID, &report.CreatedAt, &report.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// Delete は指定IDのレポートを削除する。
func (r *PostgresReportRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reports WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ReportRepository = (*PostgresReportRepo)(nil)
