package auth

import "github.com/hitoshi/membergate/internal/model"

// Visitor はリクエスト元の認証状態を表す。
// Anonymous（未認証）とAuthenticated（認証済みユーザー）の2状態のみを取り、
// 呼び出し側はUser()の2値返却で必ず両方のケースを処理する。
type Visitor struct {
	user *model.User
}

// AnonymousVisitor は未認証のVisitorを返す。
func AnonymousVisitor() Visitor {
	return Visitor{}
}

// AuthenticatedVisitor は認証済みユーザーのVisitorを返す。
// userがnilの場合は未認証として扱う。
func AuthenticatedVisitor(user *model.User) Visitor {
	return Visitor{user: user}
}

// User は認証済みの場合にユーザーとtrueを返す。未認証の場合は(nil, false)。
func (v Visitor) User() (*model.User, bool) {
	if v.user == nil {
		return nil, false
	}
	return v.user, true
}

// IsAuthenticated は認証済みかどうかを返す。
func (v Visitor) IsAuthenticated() bool {
	return v.user != nil
}
