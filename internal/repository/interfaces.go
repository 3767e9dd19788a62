// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/membergate/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
// 登録・ログイン・セッション復元からの参照点となる。
type UserRepository interface {
	// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
	// emailが既に存在する場合はmodel.ErrCodeDuplicateEmailのAPIErrorを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	// セッショントークンからのユーザー復元に使用する。
	FindByID(ctx context.Context, id int64) (*model.User, error)
}
