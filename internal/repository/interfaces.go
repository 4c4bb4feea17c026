// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/castport/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。
	// 見つからない場合はnilを返す。呼び出し側がmodel.NormalizeEmailを適用すること。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスの一意制約違反はエラーになる。
	Create(ctx context.Context, user *model.User) error

	// UpdatePasswordHash は指定ユーザーのパスワードハッシュを更新する。
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// Touch はセッションの有効期限を延長する（スライディング有効期限）。
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	// パスワードリセット成功時に呼び出す。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ResetTokenRepository はパスワードリセットトークンの永続化インターフェース。
type ResetTokenRepository interface {
	// Create はリセットトークンを作成する。
	Create(ctx context.Context, token *model.PasswordResetToken) error

	// FindByToken はトークン文字列でトークンを取得する。
	// 見つからない場合はnilを返す。期限・使用済み判定は呼び出し側が行う。
	FindByToken(ctx context.Context, token string) (*model.PasswordResetToken, error)

	// MarkUsed はトークンを使用済みにする。
	MarkUsed(ctx context.Context, token string) error
}

// CastMemberRepository はキャストメンバープロフィールの永続化インターフェース。
type CastMemberRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CastMember, error)

	// FindByUserID はユーザーIDでプロフィールを検索する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.CastMember, error)

	// Create はプロフィールを作成する。
	Create(ctx context.Context, member *model.CastMember) error
}

// BlogPostRepository はブログ記事の永続化インターフェース。
type BlogPostRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.BlogPost, error)

	// Create は記事を作成する。
	Create(ctx context.Context, post *model.BlogPost) error

	// Update は記事のタイトル・本文・ステータス・updated_atを更新する。
	Update(ctx context.Context, post *model.BlogPost) error

	// Delete は指定IDの記事を削除する。
	Delete(ctx context.Context, id string) error

	// ListPublished は公開済み記事をcreated_at降順で返す。
	ListPublished(ctx context.Context, limit int) ([]*model.BlogPost, error)

	// ListByAuthor は指定著者の全記事（ステータス不問）をcreated_at降順で返す。
	ListByAuthor(ctx context.Context, authorID string) ([]*model.BlogPost, error)
}

// EpisodeRepository はエピソードの永続化インターフェース。
type EpisodeRepository interface {
	// FindByID は指定IDのエピソードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Episode, error)

	// Create はエピソードを作成する。
	Create(ctx context.Context, episode *model.Episode) error

	// Update はエピソードの内容とupdated_atを更新する。
	Update(ctx context.Context, episode *model.Episode) error

	// Delete は指定IDのエピソードを削除する。
	Delete(ctx context.Context, id string) error

	// List は全エピソードをair_date降順で返す。
	List(ctx context.Context, limit int) ([]*model.Episode, error)
}

// DossierRepository は教育者向け資料の永続化インターフェース。
type DossierRepository interface {
	// FindByID は指定IDの資料を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Dossier, error)

	// Create は資料を作成する。
	Create(ctx context.Context, dossier *model.Dossier) error

	// Delete は指定IDの資料を削除する。
	Delete(ctx context.Context, id string) error

	// List は全資料をcreated_at降順で返す。
	List(ctx context.Context) ([]*model.Dossier, error)
}

// ApplicationRepository は公開フォーム応募の永続化インターフェース。
type ApplicationRepository interface {
	// Create は応募を作成する。
	Create(ctx context.Context, app *model.Application) error

	// ListByKind は指定種別の応募をcreated_at降順で返す。
	ListByKind(ctx context.Context, kind model.ApplicationKind) ([]*model.Application, error)

	// DeleteByKindAndID は種別とIDが一致する応募を削除する。
	// 削除された場合はtrueを返す。
	DeleteByKindAndID(ctx context.Context, kind model.ApplicationKind, id string) (bool, error)
}
