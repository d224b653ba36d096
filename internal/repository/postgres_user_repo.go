package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brainwave/brainwave/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByAuth0ID は指定サブジェクトIDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByAuth0ID(ctx context.Context, auth0ID string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, auth0_id, email, name, picture, email_verified, created_at, updated_at
		 FROM users WHERE auth0_id = $1`,
		auth0ID,
	).Scan(
		&user.ID, &user.Auth0ID, &user.Email, &user.Name,
		&user.Picture, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by auth0 ID: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, auth0_id, email, name, picture, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Auth0ID, user.Email, user.Name,
		user.Picture, user.EmailVerified, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update は指定フィールドのみを更新する。nilのフィールドは変更しない。
func (r *PostgresUserRepo) Update(ctx context.Context, auth0ID string, update UserUpdate) (bool, error) {
	sets := []string{"updated_at = now()"}
	args := []any{auth0ID}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		appendSet("name", *update.Name)
	}
	if update.Picture != nil {
		appendSet("picture", *update.Picture)
	}
	if update.EmailVerified != nil {
		appendSet("email_verified", *update.EmailVerified)
	}

	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE auth0_id = $1`, joinSets(sets)),
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteByAuth0ID は指定サブジェクトIDのユーザーを削除する。
// 関連するsessionsはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByAuth0ID(ctx context.Context, auth0ID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE auth0_id = $1`,
		auth0ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// List はユーザー一覧を作成日時の降順で返す。
func (r *PostgresUserRepo) List(ctx context.Context, limit, skip int) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, auth0_id, email, name, picture, email_verified, created_at, updated_at
		 FROM users
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		if err := rows.Scan(
			&user.ID, &user.Auth0ID, &user.Email, &user.Name,
			&user.Picture, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// joinSets はUPDATE文のSET句を組み立てる。
func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
