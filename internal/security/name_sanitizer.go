// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NameSanitizerService はユーザー入力の表示名をサニタイズし、
// 保存前にHTMLタグやスクリプト断片を除去する。
// bluemondayのStrictPolicyによりすべてのタグが除去され、
// テキストのみが残る。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxNameLength は表示名の最大文字数。超過分は切り捨てる。
const maxNameLength = 100

// NameSanitizerService は表示名サニタイズ機能のインターフェースを定義する。
// ユーザー登録時の保存前に使用される。
type NameSanitizerService interface {
	// Sanitize は表示名からHTMLタグを除去し、前後の空白を取り除いて返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// nameSanitizer はNameSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type nameSanitizer struct {
	policy *bluemonday.Policy
}

// NewNameSanitizer はNameSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグを一切許可しないため、表示名は常にプレーンテキストになる。
func NewNameSanitizer() *nameSanitizer {
	return &nameSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は表示名からHTMLタグを除去し、前後の空白を取り除いて返す。
func (s *nameSanitizer) Sanitize(raw string) string {
	clean := strings.TrimSpace(s.policy.Sanitize(raw))

	runes := []rune(clean)
	if len(runes) > maxNameLength {
		clean = string(runes[:maxNameLength])
	}

	return clean
}

// compile-time interface check
var _ NameSanitizerService = (*nameSanitizer)(nil)
