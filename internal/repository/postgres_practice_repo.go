package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/brainwave/brainwave/internal/model"
)

// uniqueViolation はPostgreSQLのunique_violationエラーコード。
const uniqueViolation = "23505"

// PostgresPracticeRepo はPostgreSQLを使用した発話練習リポジトリ。
type PostgresPracticeRepo struct {
	db *sql.DB
}

// NewPostgresPracticeRepo はPostgresPracticeRepoを生成する。
func NewPostgresPracticeRepo(db *sql.DB) *PostgresPracticeRepo {
	return &PostgresPracticeRepo{db: db}
}

// Create は練習記録を作成する。(child_name, practice_date)のユニーク制約違反は
// ErrDuplicatePracticeに変換する。
func (r *PostgresPracticeRepo) Create(ctx context.Context, practice *model.SpeechPractice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO speech_practice (id, child_name, score, total_questions,
		                              questions_attempted, practice_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		practice.ID, practice.ChildName, practice.Score, practice.TotalQuestions,
		practice.QuestionsAttempted, practice.PracticeDate, practice.CreatedAt, practice.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicatePractice
		}
		return fmt.Errorf("failed to insert speech practice: %w", err)
	}
	return nil
}

// FindByChildAndDate は児童と日付で練習記録を検索する。見つからない場合はnilを返す。
func (r *PostgresPracticeRepo) FindByChildAndDate(ctx context.Context, childName, date string) (*model.SpeechPractice, error) {
	practice := &model.SpeechPractice{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, child_name, score, total_questions, questions_attempted,
		        practice_date, created_at, updated_at
		 FROM speech_practice
		 WHERE child_name = $1 AND practice_date = $2`,
		childName, date,
	).Scan(
		&practice.ID, &practice.ChildName, &practice.Score, &practice.TotalQuestions,
		&practice.QuestionsAttempted, &practice.PracticeDate, &practice.CreatedAt, &practice.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find speech practice: %w", err)
	}

	return practice, nil
}

// ListByChild は児童の練習記録一覧を作成日時の降順で返す。
func (r *PostgresPracticeRepo) ListByChild(ctx context.Context, childName string, limit int) ([]*model.SpeechPractice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, child_name, score, total_questions, questions_attempted,
		        practice_date, created_at, updated_at
		 FROM speech_practice
		 WHERE child_name = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		childName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list speech practices: %w", err)
	}
	defer rows.Close()

	var practices []*model.SpeechPractice
	for rows.Next() {
		practice := &model.SpeechPractice{}
		if err := rows.Scan(
			&practice.ID, &practice.ChildName, &practice.Score, &practice.TotalQuestions,
			&practice.QuestionsAttempted, &practice.PracticeDate, &practice.CreatedAt, &practice.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan speech practice: %w", err)
		}
		practices = append(practices, practice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate speech practices: %w", err)
	}

	return practices, nil
}

// Update は指定フィールドのみを更新する。nilのフィールドは変更しない。
func (r *PostgresPracticeRepo) Update(ctx context.Context, id string, update model.SpeechPracticeUpdate) (bool, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Score != nil {
		appendSet("score", *update.Score)
	}
	if update.TotalQuestions != nil {
		appendSet("total_questions", *update.TotalQuestions)
	}
	if update.QuestionsAttempted != nil {
		appendSet("questions_attempted", *update.QuestionsAttempted)
	}

	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE speech_practice SET %s WHERE id = $1`, joinSets(sets)),
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update speech practice: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は指定IDの練習記録を削除する。
func (r *PostgresPracticeRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM speech_practice WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete speech practice: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ SpeechPracticeRepository = (*PostgresPracticeRepo)(nil)
