// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/castport/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// touchThreshold はスライディング有効期限の更新間隔。
// 前回更新から1時間以上経過したリクエストでのみ期限を延長する
// （リクエストごとのUPDATEを避ける）。
const touchThreshold = time.Hour

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// SessionFinder はセッションの検索・延長に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Touch(ctx context.Context, id string, expiresAt time.Time) error
}

// UserFinder はユーザーの再取得に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewIdentityMiddleware はHTTP Only Cookieからセッションを解決し、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
//
// Cookie値はsessionSecretによるHMAC署名付きで、署名検証を通過した
// セッションIDのみをセッションストアに問い合わせる。
// 未認証リクエストを拒否せず、匿名のまま通過させる。認可の判定は
// RequireAuth / RequireRoleが行う。セッションはユーザーIDのみを保持し、
// ユーザー情報はリクエストごとに再取得する。ユーザーが削除済みの場合は
// エラーではなく未認証として扱う。
// 有効なセッションにはスライディング有効期限の延長を適用する。
func NewIdentityMiddleware(sessions SessionFinder, users UserFinder, sessionSecret string, sessionMaxAge time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sessionID, ok := ParseSessionCookie(cookie.Value, sessionSecret)
			if !ok {
				// 署名不一致のCookieはセッション検索せず匿名扱い
				slog.Warn("session cookie signature mismatch",
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessions.FindByID(r.Context(), sessionID)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if session == nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.FindByID(r.Context(), session.UserID)
			if err != nil {
				slog.Error("failed to load session user",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				// ユーザー削除済みのセッションは未認証扱い
				next.ServeHTTP(w, r)
				return
			}

			// スライディング有効期限: 残り期間が十分減っている場合のみ延長する
			newExpiry := time.Now().Add(sessionMaxAge)
			if newExpiry.Sub(session.ExpiresAt) >= touchThreshold {
				if err := sessions.Touch(r.Context(), session.ID, newExpiry); err != nil {
					slog.Warn("failed to extend session",
						slog.String("error", err.Error()),
					)
				}
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 未認証の場合はnilとfalseを返す。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
