// Package auth はパスワード認証、セッション管理、パスワードリセットを提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/castport/internal/model"
	"github.com/hitoshi/castport/internal/repository"
)

// 認証関連のセンチネルエラー。ハンドラー層でAPIErrorに変換する。
var (
	// ErrInvalidCredentials は認証失敗を表す。
	// ユーザー不在とパスワード不一致を区別しない（列挙攻撃対策）。
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken は登録済みメールアドレスでの再登録を表す。
	ErrEmailTaken = errors.New("email already registered")

	// ErrPasswordTooShort はパスワードが最小文字数未満であることを表す。
	ErrPasswordTooShort = errors.New("password too short")

	// ErrRoleNotAllowed は自己登録できないロールの指定を表す。
	ErrRoleNotAllowed = errors.New("role not allowed for self-registration")

	// ErrResetTokenInvalid は不在または期限切れのリセットトークンを表す。
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")

	// ErrResetTokenUsed は使用済みリセットトークンを表す。
	ErrResetTokenUsed = errors.New("reset token already used")
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int    // セッション有効期間（秒）
	BaseURL       string // リセットリンク生成に使用
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	castRepo    repository.CastMemberRepository
	resetRepo   repository.ResetTokenRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	castRepo repository.CastMemberRepository,
	resetRepo repository.ResetTokenRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		castRepo:    castRepo,
		resetRepo:   resetRepo,
		config:      config,
	}
}

// Register は新規ユーザーを登録する。
// メールアドレスは正規化して保存する。adminロールは自己登録できない
// （管理者アカウントはシード処理で作成する）。
// cast_memberロールの場合はプロフィールを同時に作成する。
func (s *Service) Register(ctx context.Context, email, password string, role model.Role, displayName string) (*model.User, error) {
	if role == "" {
		role = model.RoleCastMember
	}
	if !model.ValidRole(role) || role == model.RoleAdmin {
		return nil, ErrRoleNotAllowed
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	normalized := model.NormalizeEmail(email)

	existing, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        normalized,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if role == model.RoleCastMember {
		member := &model.CastMember{
			ID:          uuid.New().String(),
			UserID:      user.ID,
			DisplayName: displayName,
			CreatedAt:   time.Now(),
		}
		if err := s.castRepo.Create(ctx, member); err != nil {
			return nil, fmt.Errorf("failed to create cast member profile: %w", err)
		}
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(role)),
	)

	return user, nil
}

// Login はメールアドレスとパスワードを検証し、セッションを発行する。
// ユーザー不在とパスワード不一致はどちらもErrInvalidCredentialsを返し、
// 呼び出し側からは区別できない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	normalized := model.NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !VerifyPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return session, user, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// CurrentUser はセッションから現在のユーザーとキャストメンバープロフィールを取得する。
// セッション不在・期限切れ・ユーザー削除済みの場合は未認証としてnilを返す
// （エラーにはしない）。プロフィールを持たないロールではプロフィールはnil。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, *model.CastMember, error) {
	if sessionID == "" {
		return nil, nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// ユーザーが削除済みの場合は未認証扱いにする
		return nil, nil, nil
	}

	member, err := s.castRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find cast member: %w", err)
	}

	return user, member, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
