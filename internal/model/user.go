// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashにはソルト付きPBKDF2ハッシュのみを保持し、平文パスワードは一切保存しない。
// IDはDB側（BIGSERIAL）が採番する。
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
