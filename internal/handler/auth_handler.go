// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/castport/internal/auth"
	"github.com/hitoshi/castport/internal/middleware"
	"github.com/hitoshi/castport/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, email, password string, role model.Role, displayName string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.Session, *model.User, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, sessionID string) (*model.User, *model.CastMember, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password string) error
}

// LoginMetricsRecorder はログイン試行の結果をメトリクスに記録する。
type LoginMetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	SessionSecret string // セッションCookie署名鍵（SESSION_SECRET）
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int  // セッションCookieの有効期間（秒）
	Development   bool // 開発環境ではリセットリンクをレスポンスに含める
}

// AuthHandler はパスワード認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics LoginMetricsRecorder
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, metrics LoginMetricsRecorder, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
		config:  config,
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは決して含めない。
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type castMemberResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}

// Register は新規ユーザー登録を処理する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	var details []string
	if req.Email == "" {
		details = append(details, "email is required")
	}
	if req.Password == "" {
		details = append(details, "password is required")
	}
	if len(details) > 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("入力内容に誤りがあります。", details...))
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, model.Role(req.Role), req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordTooShort):
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("パスワードは6文字以上で入力してください。"))
		case errors.Is(err, auth.ErrRoleNotAllowed):
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("指定されたロールでは登録できません。"))
		case errors.Is(err, auth.ErrEmailTaken):
			writeAPIErrorResponse(w, http.StatusConflict, model.NewValidationError("このメールアドレスは既に登録されています。"))
		default:
			handleServiceError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    toUserResponse(user),
	})
}

// Login はメールアドレスとパスワードによるログインを処理する。
// POST /api/auth/login
// 認証失敗時はユーザー不在とパスワード不一致を区別せず同一レスポンスを返す。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	if req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("メールアドレスとパスワードを入力してください。"))
		return
	}

	session, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			if h.metrics != nil {
				h.metrics.RecordLoginFailure()
			}
			writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
			return
		}
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLoginSuccess()
	}

	h.setSessionCookie(w, session.ID, h.config.SessionMaxAge)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    toUserResponse(user),
	})
}

// Logout はセッションを破棄する。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		if sessionID, ok := middleware.ParseSessionCookie(cookie.Value, h.config.SessionSecret); ok {
			if logoutErr := h.service.Logout(r.Context(), sessionID); logoutErr != nil {
				// ログアウト失敗してもCookieはクリアする
				logError("failed to logout", logoutErr)
			}
		}
	}

	h.setSessionCookie(w, "", -1)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// Session は現在のログイン状態を返す。
// GET /api/auth/session
// 未認証でも200を返す（authenticated: false）。
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		// 署名不一致は未認証として扱う
		sessionID, _ = middleware.ParseSessionCookie(cookie.Value, h.config.SessionSecret)
	}

	user, member, err := h.service.CurrentUser(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if user == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": false,
		})
		return
	}

	resp := map[string]interface{}{
		"authenticated": true,
		"user":          toUserResponse(user),
	}
	if member != nil {
		resp["castMember"] = castMemberResponse{
			ID:          member.ID,
			DisplayName: member.DisplayName,
			Bio:         member.Bio,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ForgotPassword はパスワードリセットをリクエストする。
// POST /api/auth/forgot-password
// アカウントの存在に関わらず常に200を返す（列挙攻撃対策）。
// 開発環境に限りリセットリンクをレスポンスに含める。
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}
	if req.Email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("メールアドレスを入力してください。"))
		return
	}

	resetLink, err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := map[string]interface{}{
		"success": true,
		"message": "登録されているメールアドレスの場合、リセット手順を送信しました。",
	}
	if h.config.Development && resetLink != "" {
		resp["resetLink"] = resetLink
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetPassword はリセットトークンを消費してパスワードを更新する。
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	var details []string
	if req.Token == "" {
		details = append(details, "token is required")
	}
	if req.Password == "" {
		details = append(details, "password is required")
	}
	if len(details) > 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("入力内容に誤りがあります。", details...))
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordTooShort):
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("パスワードは6文字以上で入力してください。"))
		case errors.Is(err, auth.ErrResetTokenUsed):
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewResetTokenUsedError())
		case errors.Is(err, auth.ErrResetTokenInvalid):
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewResetTokenInvalidError())
		default:
			handleServiceError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// setSessionCookie は署名付きセッションCookieを設定する。maxAge < 0 で削除。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string, maxAge int) {
	var value string
	if sessionID != "" {
		value = middleware.SignSessionCookie(sessionID, h.config.SessionSecret)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:    user.ID,
		Email: user.Email,
		Role:  string(user.Role),
	}
}
