// Package cleanup は認証関連データの自動削除ジョブを提供する。
// 期限切れセッションと、期限切れまたは使用済みのパスワードリセットトークンを
// 日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SessionsCleanedRecorder は削除されたセッション数をメトリクスに記録する。
type SessionsCleanedRecorder interface {
	RecordSessionsCleaned(count int)
}

// CleanupJob は期限切れ認証データの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
// 使用済みリセットトークンは再利用拒否の監査のため、使用から
// TokenRetentionDays日の猶予を置いてから削除する。
type CleanupJob struct {
	db                 Executor
	logger             *slog.Logger
	metrics            SessionsCleanedRecorder
	TokenRetentionDays int // 使用済みリセットトークンの保持日数（デフォルト: 7）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// metricsはnilでもよい（記録をスキップする）。
func NewCleanupJob(db Executor, logger *slog.Logger, metrics SessionsCleanedRecorder) *CleanupJob {
	return &CleanupJob{
		db:                 db,
		logger:             logger,
		metrics:            metrics,
		TokenRetentionDays: 7,
	}
}

// Run は期限切れセッションとリセットトークンを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	sessionCount, err := j.deleteExpiredSessions(ctx)
	if err != nil {
		return err
	}

	tokenCount, err := j.deleteStaleResetTokens(ctx)
	if err != nil {
		return err
	}

	if j.metrics != nil {
		j.metrics.RecordSessionsCleaned(int(sessionCount))
	}

	duration := time.Since(start)
	j.logger.Info("認証データクリーンアップジョブが完了しました",
		slog.Int64("sessions_deleted", sessionCount),
		slog.Int64("reset_tokens_deleted", tokenCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// deleteExpiredSessions は有効期限切れのセッションを削除する。
func (j *CleanupJob) deleteExpiredSessions(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < now()`
	result, err := j.db.ExecContext(ctx, query)
	if err != nil {
		j.logger.Error("セッションクリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return count, nil
}

// deleteStaleResetTokens は期限切れ、または使用済みで保持期間を過ぎた
// パスワードリセットトークンを削除する。
func (j *CleanupJob) deleteStaleResetTokens(ctx context.Context) (int64, error) {
	interval := fmt.Sprintf("%d days", j.TokenRetentionDays)

	query := `
		DELETE FROM password_reset_tokens
		WHERE expires_at < now() - $1::interval
		   OR (used = TRUE AND created_at < now() - $1::interval)`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("リセットトークンクリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.TokenRetentionDays),
		)
		return 0, fmt.Errorf("リセットトークンクリーンアップの実行に失敗: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return count, nil
}
