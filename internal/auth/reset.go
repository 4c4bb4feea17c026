package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/castport/internal/model"
)

// resetTokenTTL はリセットトークンの有効期間。
const resetTokenTTL = time.Hour

// ForgotPassword はパスワードリセットトークンを発行し、リセットリンクを返す。
// アカウントが存在しない場合も空のリンクとnilエラーを返す。
// レスポンスの形からアカウントの存在が漏れないよう、呼び出し側は
// どちらの場合も同一の成功レスポンスを返すこと。
// メール送信は外部コラボレータの責務であり、本サービスはリンクの生成までを行う。
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	normalized := model.NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// 存在しないアカウントでも成功として扱う
		return "", nil
	}

	token, err := generateResetToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	record := &model.PasswordResetToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(resetTokenTTL),
		Used:      false,
		CreatedAt: time.Now(),
	}
	if err := s.resetRepo.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to save reset token: %w", err)
	}

	slog.Info("password reset token issued", slog.String("user_id", user.ID))

	return fmt.Sprintf("%s/reset-password?token=%s", s.config.BaseURL, token), nil
}

// ResetPassword はリセットトークンを消費してパスワードを変更する。
// トークンが存在し、未使用で、期限内である場合のみ成功する。
// 成功時はトークンを使用済みにし、対象ユーザーの全セッションを破棄する。
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return ErrResetTokenInvalid
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	record, err := s.resetRepo.FindByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to find reset token: %w", err)
	}
	if record == nil {
		return ErrResetTokenInvalid
	}
	if record.Used {
		return ErrResetTokenUsed
	}
	if !record.Valid(time.Now()) {
		return ErrResetTokenInvalid
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, record.UserID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.resetRepo.MarkUsed(ctx, token); err != nil {
		return fmt.Errorf("failed to mark token used: %w", err)
	}

	// パスワード変更後は既存セッションをすべて無効化する
	if err := s.sessionRepo.DeleteByUserID(ctx, record.UserID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}

	slog.Info("password reset completed", slog.String("user_id", record.UserID))
	return nil
}

// generateResetToken は暗号的に安全なリセットトークンを生成する。
func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
