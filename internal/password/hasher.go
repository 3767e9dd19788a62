// Package password はパスワードの一方向ハッシュ化と検証を提供する。
//
// ハッシュ値は "pbkdf2:sha256:<iterations>$<salt>$<hash>" 形式で、
// 検証に必要なパラメータをすべて自身に含む（自己記述形式）。
// 平文パスワードは永続化もログ出力もしない。
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// defaultIterations はPBKDF2の反復回数。
	defaultIterations = 600000
	// saltLength はソルトのバイト長。
	saltLength = 8
	// keyLength は導出鍵のバイト長。
	keyLength = 32
	// methodPrefix はハッシュ形式の識別子。
	methodPrefix = "pbkdf2:sha256"
)

// Hash は平文パスワードからソルト付きPBKDF2-SHA256ハッシュを生成する。
// ソルトは呼び出しごとにランダム生成されるため、
// 同一パスワードでも毎回異なるハッシュ値になる。
func Hash(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	dk := pbkdf2.Key([]byte(plaintext), salt, defaultIterations, keyLength, sha256.New)

	return fmt.Sprintf("%s:%d$%s$%s",
		methodPrefix, defaultIterations,
		hex.EncodeToString(salt), hex.EncodeToString(dk),
	), nil
}

// Verify は平文パスワードが保存済みハッシュと一致するか検証する。
// 反復回数とソルトはstoredHashに埋め込まれた値を使用して再計算し、
// 定数時間比較で照合する。形式が不正な場合はfalseを返す。
func Verify(plaintext, storedHash string) bool {
	iterations, salt, expected, err := parse(storedHash)
	if err != nil {
		return false
	}

	dk := pbkdf2.Key([]byte(plaintext), salt, iterations, len(expected), sha256.New)

	return subtle.ConstantTimeCompare(dk, expected) == 1
}

// parse は自己記述形式のハッシュ文字列を分解する。
func parse(storedHash string) (int, []byte, []byte, error) {
	parts := strings.Split(storedHash, "$")
	if len(parts) != 3 {
		return 0, nil, nil, fmt.Errorf("invalid hash format")
	}

	method := strings.Split(parts[0], ":")
	if len(method) != 3 || method[0] != "pbkdf2" || method[1] != "sha256" {
		return 0, nil, nil, fmt.Errorf("unsupported hash method: %s", parts[0])
	}

	iterations, err := strconv.Atoi(method[2])
	if err != nil || iterations <= 0 {
		return 0, nil, nil, fmt.Errorf("invalid iteration count: %s", method[2])
	}

	salt, err := hex.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, fmt.Errorf("invalid salt encoding")
	}

	expected, err := hex.DecodeString(parts[2])
	if err != nil || len(expected) == 0 {
		return 0, nil, nil, fmt.Errorf("invalid hash encoding")
	}

	return iterations, salt, expected, nil
}
