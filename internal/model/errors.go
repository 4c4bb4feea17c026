package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// 内部エラーの詳細（スタックトレース、ドライバエラー）は決して含めない。
type APIError struct {
	Code     string   // エラーコード
	Message  string   // エラーメッセージ
	Category string   // カテゴリ: auth, validation, content, storage, system
	Action   string   // ユーザー向け対処方法
	Details  []string // バリデーションエラーのフィールド別詳細（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeResetTokenInvalid  = "RESET_TOKEN_INVALID"
	ErrCodeResetTokenUsed     = "RESET_TOKEN_USED"
	ErrCodeSigningFailed      = "SIGNING_FAILED"
)

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不在とパスワード不一致を区別しない（列挙攻撃対策）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
// 認証済みだがロールまたは所有権が不足している場合に使用する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "必要な権限を持つアカウントでログインしてください。",
	}
}

// NewNotFoundError は対象リソースが存在しないエラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません。", resource),
		Category: "content",
		Action:   "IDを確認してください。",
	}
}

// NewValidationError はリクエスト内容の検証エラーを生成する。
// detailsにはフィールド別のエラー内容を格納する。
func NewValidationError(message string, details ...string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
		Details:  details,
	}
}

// NewResetTokenInvalidError は無効または期限切れのリセットトークンエラーを生成する。
// トークンの不在と期限切れは区別しない。
func NewResetTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeResetTokenInvalid,
		Message:  "This reset link is invalid or has expired",
		Category: "auth",
		Action:   "パスワードリセットを再度リクエストしてください。",
	}
}

// NewResetTokenUsedError は使用済みリセットトークンエラーを生成する。
func NewResetTokenUsedError() *APIError {
	return &APIError{
		Code:     ErrCodeResetTokenUsed,
		Message:  "This reset link has already been used",
		Category: "auth",
		Action:   "パスワードリセットを再度リクエストしてください。",
	}
}

// NewSigningFailedError は署名付きURLの発行失敗エラーを生成する。
// ストレージプロバイダ側の障害でありアプリケーション側では回復できない。
func NewSigningFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeSigningFailed,
		Message:  "アップロードURLの発行に失敗しました。",
		Category: "storage",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
