// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Role はユーザーの役割を表す。
// ロールは登録時に割り当てられ、ユーザー自身による昇格はできない。
type Role string

const (
	// RoleCastMember は番組出演者（キャストメンバー）。
	RoleCastMember Role = "cast_member"
	// RoleAdmin は管理者。すべてのロールゲートを通過できる。
	RoleAdmin Role = "admin"
	// RoleParent は保護者ポータル利用者。
	RoleParent Role = "parent"
	// RoleEducator は教育者ポータル利用者。
	RoleEducator Role = "educator"
)

// ValidRole はロール文字列が定義済みロールかどうかを返す。
func ValidRole(r Role) bool {
	switch r {
	case RoleCastMember, RoleAdmin, RoleParent, RoleEducator:
		return true
	}
	return false
}

// User はサービス利用ユーザーを表す。
// Emailは小文字に正規化した状態で永続化する（一意制約）。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// NormalizeEmail はメールアドレスを検索・保存用に正規化する。
// 前後の空白を除去し、小文字に変換する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Session はユーザーのログインセッションを表す。
// サーバーサイドに保持し、ユーザーIDのみを格納する。
// ユーザー情報はリクエストごとに再取得する。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PasswordResetToken はパスワードリセット用のワンタイムトークンを表す。
// 有効期限切れ、または使用済みのトークンはパスワード変更を許可してはならない。
type PasswordResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Valid はトークンが現時点で使用可能かを返す。
// 存在・未使用・期限内の3条件のうち未使用と期限のみを判定する
// （存在確認はリポジトリ層が担う）。
func (t *PasswordResetToken) Valid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

// CastMember はキャストメンバーのプロフィールを表す。
// ユーザーIDとは別のプロフィールIDを持ち、コンテンツの所有者参照には
// プロフィールIDを使用する。
type CastMember struct {
	ID          string
	UserID      string
	DisplayName string
	Bio         string
	CreatedAt   time.Time
}
