package middleware

import (
	"net/http"

	"github.com/hitoshi/castport/internal/model"
)

// RequireAuth は認証済みユーザーのみ通過させるミドルウェアを返す。
// 未認証リクエストには401 Unauthorizedを返す。
func RequireAuth() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole は指定ロールのユーザーのみ通過させるミドルウェアを返す。
// 未認証には401、認証済みだがロール不一致には403を返す。
//
// adminは常に通過できる（明示的なエスケープハッチ）。本システムの
// すべてのロールゲートはadminを暗黙の上位集合として扱う。
// この免除はルートゲートにのみ適用され、エンティティ単位の所有権
// チェックには及ばない（content パッケージ参照）。
//
// 副作用を持たない純粋な述語であり、ストレージに触れるハンドラー
// ロジックより前に必ず実行すること。
func RequireRole(roles ...model.Role) func(next http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles)+1)
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	allowed[model.RoleAdmin] = struct{}{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
