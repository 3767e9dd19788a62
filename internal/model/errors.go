// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// 画面に表示する原因カテゴリとユーザー向け対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDuplicateEmail  = "DUPLICATE_EMAIL"
	ErrCodeInvalidEmail    = "INVALID_EMAIL"
	ErrCodeInvalidPassword = "INVALID_PASSWORD"
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeFileNotFound    = "FILE_NOT_FOUND"
)

// NewDuplicateEmailError は登録済みメールアドレスでの再登録エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "There is already a user with this email. Perhaps you meant to log in?",
		Category: "auth",
		Action:   "Log in with the existing account, or register with a different email.",
	}
}

// NewInvalidEmailError は未登録メールアドレスでのログインエラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "Invalid email address. Please try again.",
		Category: "auth",
		Action:   "Check the email address, or register a new account.",
	}
}

// NewInvalidPasswordError はパスワード不一致のログインエラーを生成する。
func NewInvalidPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPassword,
		Message:  "Invalid password. Please try again.",
		Category: "auth",
		Action:   "Check the password and try again.",
	}
}

// NewUnauthenticatedError は未認証アクセスのエラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Please log in to access this page.",
		Category: "auth",
		Action:   "Log in and try again.",
	}
}

// NewFileNotFoundError はダウンロード対象ファイルが見つからない場合のエラーを生成する。
func NewFileNotFoundError(filename string) *APIError {
	return &APIError{
		Code:     ErrCodeFileNotFound,
		Message:  fmt.Sprintf("The requested file was not found: %s", filename),
		Category: "validation",
		Action:   "Check the file name on the downloads page.",
	}
}
