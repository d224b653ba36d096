package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/brainwave/brainwave/internal/model"
)

// PostgresAssessmentRepo はPostgreSQLを使用したアセスメントリポジトリ。
// child_info、test_results、observationsはJSONBカラムに格納する。
type PostgresAssessmentRepo struct {
	db *sql.DB
}

// NewPostgresAssessmentRepo はPostgresAssessmentRepoを生成する。
func NewPostgresAssessmentRepo(db *sql.DB) *PostgresAssessmentRepo {
	return &PostgresAssessmentRepo{db: db}
}

// Create はアセスメントを作成する。
func (r *PostgresAssessmentRepo) Create(ctx context.Context, assessment *model.Assessment) error {
	childInfo, err := json.Marshal(assessment.ChildInfo)
	if err != nil {
		return fmt.Errorf("児童情報のシリアライズに失敗しました: %w", err)
	}
	testResults, err := json.Marshal(assessment.TestResults)
	if err != nil {
		return fmt.Errorf("テスト結果のシリアライズに失敗しました: %w", err)
	}
	observations, err := json.Marshal(assessment.Observations)
	if err != nil {
		return fmt.Errorf("観察所見のシリアライズに失敗しました: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO assessments (id, parent_auth0_id, child_info, test_results, total_time,
		                          observations, assessment_date, assessment_type,
		                          created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		assessment.ID, assessment.ParentAuth0ID, childInfo, testResults,
		assessment.TotalTime, observations, assessment.AssessmentDate,
		assessment.AssessmentType, assessment.CreatedAt, assessment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("アセスメントの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのアセスメントを取得する。見つからない場合はnilを返す。
func (r *PostgresAssessmentRepo) FindByID(ctx context.Context, id string) (*model.Assessment, error) {
	assessment := &model.Assessment{}
	var childInfo, testResults, observations []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT id, parent_auth0_id, child_info, test_results, total_time,
		        observations, assessment_date, assessment_type, created_at, updated_at
		 FROM assessments WHERE id = $1`,
		id,
	).Scan(
		&assessment.ID, &assessment.ParentAuth0ID, &childInfo, &testResults,
		&assessment.TotalTime, &observations, &assessment.AssessmentDate,
		&assessment.AssessmentType, &assessment.CreatedAt, &assessment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アセスメントの取得に失敗しました: %w", err)
	}

	if err := unmarshalAssessmentPayload(assessment, childInfo, testResults, observations); err != nil {
		return nil, err
	}

	return assessment, nil
}

// ListByParent は保護者のアセスメント一覧を作成日時の降順で返す。
func (r *PostgresAssessmentRepo) ListByParent(ctx context.Context, parentAuth0ID string, limit, skip int) ([]*model.Assessment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, parent_auth0_id, child_info, test_results, total_time,
		        observations, assessment_date, assessment_type, created_at, updated_at
		 FROM assessments
		 WHERE parent_auth0_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		parentAuth0ID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("アセスメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanAssessments(rows)
}

// ListByParentAndChild は保護者の特定児童のアセスメント一覧を作成日時の降順で返す。
// 児童名はJSONBのchild_info->>'name'で照合する。
func (r *PostgresAssessmentRepo) ListByParentAndChild(ctx context.Context, parentAuth0ID, childName string) ([]*model.Assessment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, parent_auth0_id, child_info, test_results, total_time,
		        observations, assessment_date, assessment_type, created_at, updated_at
		 FROM assessments
		 WHERE parent_auth0_id = $1 AND child_info->>'name' = $2
		 ORDER BY created_at DESC`,
		parentAuth0ID, childName,
	)
	if err != nil {
		return nil, fmt.Errorf("児童別アセスメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanAssessments(rows)
}

// Update は指定フィールドのみを更新する。nilのフィールドは変更しない。
func (r *PostgresAssessmentRepo) Update(ctx context.Context, id string, update model.AssessmentUpdate) (bool, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.ChildInfo != nil {
		payload, err := json.Marshal(update.ChildInfo)
		if err != nil {
			return false, fmt.Errorf("児童情報のシリアライズに失敗しました: %w", err)
		}
		appendSet("child_info", payload)
	}
	if update.TestResults != nil {
		payload, err := json.Marshal(update.TestResults)
		if err != nil {
			return false, fmt.Errorf("テスト結果のシリアライズに失敗しました: %w", err)
		}
		appendSet("test_results", payload)
	}
	if update.TotalTime != nil {
		appendSet("total_time", *update.TotalTime)
	}
	if update.Observations != nil {
		payload, err := json.Marshal(update.Observations)
		if err != nil {
			return false, fmt.Errorf("観察所見のシリアライズに失敗しました: %w", err)
		}
		appendSet("observations", payload)
	}
	if update.AssessmentDate != nil {
		appendSet("assessment_date", *update.AssessmentDate)
	}
	if update.AssessmentType != nil {
		appendSet("assessment_type", *update.AssessmentType)
	}

	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE assessments SET %s WHERE id = $1`, joinSets(sets)),
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("アセスメントの更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は指定IDのアセスメントを削除する。
func (r *PostgresAssessmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM assessments WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("アセスメントの削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// scanAssessments は結果セットをアセスメントのスライスに変換する。
func scanAssessments(rows *sql.Rows) ([]*model.Assessment, error) {
	var assessments []*model.Assessment
	for rows.Next() {
		assessment := &model.Assessment{}
		var childInfo, testResults, observations []byte

		if err := rows.Scan(
			&assessment.ID, &assessment.ParentAuth0ID, &childInfo, &testResults,
			&assessment.TotalTime, &observations, &assessment.AssessmentDate,
			&assessment.AssessmentType, &assessment.CreatedAt, &assessment.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("アセスメントの読み取りに失敗しました: %w", err)
		}

		if err := unmarshalAssessmentPayload(assessment, childInfo, testResults, observations); err != nil {
			return nil, err
		}

		assessments = append(assessments, assessment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アセスメントの走査に失敗しました: %w", err)
	}

	return assessments, nil
}

// unmarshalAssessmentPayload はJSONBカラムの内容を構造体に復元する。
func unmarshalAssessmentPayload(assessment *model.Assessment, childInfo, testResults, observations []byte) error {
	if err := json.Unmarshal(childInfo, &assessment.ChildInfo); err != nil {
		return fmt.Errorf("児童情報のデシリアライズに失敗しました: %w", err)
	}
	if err := json.Unmarshal(testResults, &assessment.TestResults); err != nil {
		return fmt.Errorf("テスト結果のデシリアライズに失敗しました: %w", err)
	}
	if err := json.Unmarshal(observations, &assessment.Observations); err != nil {
		return fmt.Errorf("観察所見のデシリアライズに失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AssessmentRepository = (*PostgresAssessmentRepo)(nil)
