// Package auth は資格情報認証とセッション管理を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/membergate/internal/model"
	"github.com/hitoshi/membergate/internal/password"
	"github.com/hitoshi/membergate/internal/repository"
)

// NameSanitizer は表示名のサニタイズに必要なインターフェース。
// security.NameSanitizerの部分集合として定義する。
type NameSanitizer interface {
	Sanitize(raw string) string
}

// MetricsRecorder は認証イベントのメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。nil指定で記録なし。
type MetricsRecorder interface {
	RecordRegistration()
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionSecret []byte // セッショントークン署名用シークレット
	SessionMaxAge int    // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	sanitizer NameSanitizer
	metrics   MetricsRecorder
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sanitizer NameSanitizer,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:  userRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
		config:    config,
	}
}

// Register は新規ユーザーを登録し、セッショントークンを発行する。
// emailが見つからないことが正常系であり、既存ユーザーが見つかった場合のみ
// DuplicateEmailエラーを返す。事前チェックと同時登録が競合した場合は
// ストレージ層のUNIQUE制約が同じDuplicateEmailエラーを返す。
func (s *Service) Register(ctx context.Context, name, email, plaintext string) (*model.User, string, error) {
	hash, err := password.Hash(plaintext)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, "", model.NewDuplicateEmailError()
	}

	if s.sanitizer != nil {
		name = s.sanitizer.Sanitize(name)
	}

	now := time.Now()
	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issueSessionToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
	slog.Info("new user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, token, nil
}

// Login は資格情報を検証し、セッショントークンを発行する。
// 検証順序はemailの存在確認、次にパスワード照合。
// それぞれInvalidEmail、InvalidPasswordのエラーを返す。
func (s *Service) Login(ctx context.Context, email, plaintext string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		if s.metrics != nil {
			s.metrics.RecordLoginFailure("invalid_email")
		}
		return nil, "", model.NewInvalidEmailError()
	}

	if !password.Verify(plaintext, user.PasswordHash) {
		if s.metrics != nil {
			s.metrics.RecordLoginFailure("invalid_password")
		}
		return nil, "", model.NewInvalidPasswordError()
	}

	token, err := s.issueSessionToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	slog.Info("user logged in", slog.Int64("user_id", user.ID))

	return user, token, nil
}

// ResolveVisitor はセッショントークンから現在の認証状態を復元する。
// トークンの欠落・署名不一致・期限切れ、またはユーザーが存在しない場合は
// Anonymousを返す。復元失敗はエラーではなく未認証として扱う。
func (s *Service) ResolveVisitor(ctx context.Context, token string) Visitor {
	if token == "" {
		return AnonymousVisitor()
	}

	userID, err := UserIDFromToken(token, s.config.SessionSecret)
	if err != nil {
		return AnonymousVisitor()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		slog.Error("failed to restore session user",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return AnonymousVisitor()
	}
	if user == nil {
		return AnonymousVisitor()
	}

	return AuthenticatedVisitor(user)
}

// issueSessionToken はユーザーIDに対するセッショントークンを発行する。
func (s *Service) issueSessionToken(userID int64) (string, error) {
	ttl := time.Duration(s.config.SessionMaxAge) * time.Second
	token, err := IssueToken(userID, s.config.SessionSecret, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return token, nil
}
