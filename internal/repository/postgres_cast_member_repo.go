package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/castport/internal/model"
)

// PostgresCastMemberRepo はPostgreSQLを使用したキャストメンバーリポジトリ。
type PostgresCastMemberRepo struct {
	db *sql.DB
}

// NewPostgresCastMemberRepo はPostgresCastMemberRepoを生成する。
func NewPostgresCastMemberRepo(db *sql.DB) *PostgresCastMemberRepo {
	return &PostgresCastMemberRepo{db: db}
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresCastMemberRepo) FindByID(ctx context.Context, id string) (*model.CastMember, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByUserID はユーザーIDでプロフィールを検索する。見つからない場合はnilを返す。
func (r *PostgresCastMemberRepo) FindByUserID(ctx context.Context, userID string) (*model.CastMember, error) {
	return r.findOne(ctx, `WHERE user_id = $1`, userID)
}

func (r *PostgresCastMemberRepo) findOne(ctx context.Context, where string, arg any) (*model.CastMember, error) {
	m := &model.CastMember{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, display_name, bio, created_at
		 FROM cast_members `+where,
		arg,
	).Scan(&m.ID, &m.UserID, &m.DisplayName, &m.Bio, &m.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cast member: %w", err)
	}

	return m, nil
}

// Create はプロフィールを作成する。
func (r *PostgresCastMemberRepo) Create(ctx context.Context, member *model.CastMember) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cast_members (id, user_id, display_name, bio, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		member.ID, member.UserID, member.DisplayName, member.Bio, member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create cast member: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CastMemberRepository = (*PostgresCastMemberRepo)(nil)
