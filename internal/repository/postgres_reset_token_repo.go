package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/castport/internal/model"
)

// PostgresResetTokenRepo はPostgreSQLを使用したパスワードリセットトークンリポジトリ。
type PostgresResetTokenRepo struct {
	db *sql.DB
}

// NewPostgresResetTokenRepo はPostgresResetTokenRepoを生成する。
func NewPostgresResetTokenRepo(db *sql.DB) *PostgresResetTokenRepo {
	return &PostgresResetTokenRepo{db: db}
}

// Create はリセットトークンを作成する。
func (r *PostgresResetTokenRepo) Create(ctx context.Context, token *model.PasswordResetToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (token, user_id, expires_at, used, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		token.Token, token.UserID, token.ExpiresAt, token.Used, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// FindByToken はトークン文字列でトークンを取得する。見つからない場合はnilを返す。
// 期限切れ・使用済みトークンもそのまま返す（判定は呼び出し側が行う）。
func (r *PostgresResetTokenRepo) FindByToken(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	t := &model.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, used, created_at
		 FROM password_reset_tokens
		 WHERE token = $1`,
		token,
	).Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.Used, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find reset token: %w", err)
	}

	return t, nil
}

// MarkUsed はトークンを使用済みにする。
func (r *PostgresResetTokenRepo) MarkUsed(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = true WHERE token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to mark reset token used: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ResetTokenRepository = (*PostgresResetTokenRepo)(nil)
