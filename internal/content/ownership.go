// Package content はキャストメンバーが所有するコンテンツ
// （ブログ記事・エピソード）の所有権チェック付き操作を提供する。
//
// 所有権チェックはエンティティのauthor_id（cast_members.id）と
// 操作者のプロフィールIDの比較で行う。操作者のユーザーIDではなく、
// ユーザーIDから解決したプロフィールIDを比較に使うこと。
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/castport/internal/model"
	"github.com/hitoshi/castport/internal/repository"
)

var (
	// ErrNotFound は対象エンティティが存在しないことを表す。
	ErrNotFound = errors.New("entity not found")

	// ErrForbidden は操作者が所有者でない（かつ管理者免除が無効）ことを表す。
	ErrForbidden = errors.New("not the owner of this entity")

	// ErrInvalidStatus は許可されないステータス遷移を表す。
	ErrInvalidStatus = errors.New("invalid status transition")
)

// checkOwnership は操作者のプロフィールを解決し、所有者と比較する。
// adminOverrideは操作ごとに明示する管理者免除ポリシー。
// falseの場合は管理者であっても所有者チェックを通過しない
// （管理者によるモデレーションは専用の管理者ルートで行う）。
// 所有者の場合は操作者のプロフィールを返す。
func checkOwnership(ctx context.Context, castRepo repository.CastMemberRepository, user *model.User, authorID string, adminOverride bool) (*model.CastMember, error) {
	if adminOverride && user.Role == model.RoleAdmin {
		return nil, nil
	}

	member, err := castRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cast member profile: %w", err)
	}
	if member == nil || member.ID != authorID {
		return nil, ErrForbidden
	}
	return member, nil
}
