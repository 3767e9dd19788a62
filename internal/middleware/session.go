// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/membergate/internal/auth"
)

// SessionCookieName はセッショントークンを保持するCookie名。
const SessionCookieName = "session_token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// visitorContextKey はリクエストコンテキストに認証状態を格納するためのキー。
var visitorContextKey = contextKey("visitor")

// VisitorResolver はセッショントークンから認証状態を復元するインターフェース。
// auth.Serviceの部分集合として定義する。
type VisitorResolver interface {
	ResolveVisitor(ctx context.Context, token string) auth.Visitor
}

// NewSessionMiddleware はHTTP Only Cookieからセッショントークンを読み取り、
// 認証状態（Visitor）をリクエストコンテキストに注入するミドルウェアを返す。
// トークンが欠落・無効な場合もリクエストは拒否せず、Anonymousとして通過させる。
// アクセス可否の判断はRequireAuthミドルウェアが行う。
func NewSessionMiddleware(resolver VisitorResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				token = cookie.Value
			}

			visitor := resolver.ResolveVisitor(r.Context(), token)

			ctx := context.WithValue(r.Context(), visitorContextKey, visitor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireAuthMiddleware は認証済みVisitorのみを通過させるゲートを返す。
// 未認証リクエストはゲート対象のハンドラーを実行せず、
// ログイン画面へリダイレクトする。
func NewRequireAuthMiddleware(loginURL string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitor := VisitorFromContext(r.Context())
			if !visitor.IsAuthenticated() {
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// VisitorFromContext はリクエストコンテキストから認証状態を取得する。
// セッションミドルウェアを通過していない場合はAnonymousを返す。
func VisitorFromContext(ctx context.Context) auth.Visitor {
	visitor, ok := ctx.Value(visitorContextKey).(auth.Visitor)
	if !ok {
		return auth.AnonymousVisitor()
	}
	return visitor
}

// ContextWithVisitor はコンテキストに認証状態を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithVisitor(ctx context.Context, visitor auth.Visitor) context.Context {
	return context.WithValue(ctx, visitorContextKey, visitor)
}
