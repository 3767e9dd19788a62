package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims はセッショントークンのクレーム。
// 標準クレームに加えてユーザーIDを保持する。
type sessionClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

// IssueToken はユーザーIDを埋め込んだ署名付きセッショントークンを発行する。
// HMAC-SHA256でサーバー保持のシークレットにより署名されるため、
// クライアント側での改竄は検証時に検出される。
func IssueToken(userID int64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// UserIDFromToken はセッショントークンを検証し、埋め込まれたユーザーIDを返す。
// 署名不一致・期限切れ・形式不正の場合はエラーを返す。
func UserIDFromToken(tokenString string, secret []byte) (int64, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to parse session token: %w", err)
	}

	if !token.Valid {
		return 0, fmt.Errorf("invalid session token")
	}

	return claims.UserID, nil
}
