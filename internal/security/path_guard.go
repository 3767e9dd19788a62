// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathGuardService はダウンロードパス封じ込め機能のインターフェースを定義する。
// ダウンロードハンドラーでのファイルパス解決時に使用される。
type PathGuardService interface {
	// Resolve はリクエストされたファイル名をルートディレクトリ配下の
	// 絶対パスに解決する。ディレクトリ外へ抜けるパスはエラーを返す。
	Resolve(filename string) (string, error)
}

// pathGuard はPathGuardServiceの実装。
// 固定のルートディレクトリを保持し、その外側への解決を拒否する。
type pathGuard struct {
	root string
}

// NewPathGuard は指定ディレクトリを封じ込めルートとするPathGuardを生成する。
func NewPathGuard(root string) *pathGuard {
	return &pathGuard{root: root}
}

// Resolve はリクエストされたファイル名をルートディレクトリ配下のパスに解決する。
// 以下をすべて拒否する:
//   - 空のファイル名
//   - 絶対パス
//   - パス区切りを含む名前（サブディレクトリは公開しない）
//   - ".." などクリーニング後にルート外へ抜けるパス
func (g *pathGuard) Resolve(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("empty filename")
	}
	if filepath.IsAbs(filename) {
		return "", fmt.Errorf("absolute path not allowed: %s", filename)
	}
	if strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("path separator not allowed: %s", filename)
	}

	clean := filepath.Clean(filename)
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("path escapes download directory: %s", filename)
	}

	return filepath.Join(g.root, clean), nil
}

// compile-time interface check
var _ PathGuardService = (*pathGuard)(nil)
