// Package auth は資格情報の検証とセッショントークン発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogd/internal/model"
	"github.com/hitoshi/blogd/internal/password"
	"github.com/hitoshi/blogd/internal/repository"
)

// TokenIssuer は認証サービスが必要とするトークン発行インターフェース。
// token.Issuerの部分集合として定義する。
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// MetricsRecorder は認証メトリクス収集のインターフェース。
// metrics.Collectorの部分集合として定義する。nilの場合は記録しない。
type MetricsRecorder interface {
	RecordAuthSuccess()
	RecordAuthFailure()
	RecordUserRegistered()
}

// LoginResult は認証成功時にクライアントへ返す内容。
// パスワードハッシュはこの境界を越えない。
type LoginResult struct {
	User  model.PublicUser
	Token string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   password.Hasher
	issuer   TokenIssuer
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。
// metricsはnilを許容する（記録なし）。
func NewService(
	userRepo repository.UserRepository,
	hasher password.Hasher,
	issuer TokenIssuer,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		metrics:  metrics,
	}
}

// Register は新規ユーザーを登録する。
// 必須フィールドの欠落はVALIDATION_ERROR、メールアドレス重複はDUPLICATE_EMAILを返す。
// 重複は事前チェックとusers.emailの一意制約の二段構えで検出する。
func (s *Service) Register(ctx context.Context, username, email, plainPassword string) (*model.User, error) {
	email = strings.TrimSpace(email)

	// 1. 入力検証
	switch {
	case username == "":
		return nil, model.NewValidationError("username")
	case email == "":
		return nil, model.NewValidationError("email")
	case plainPassword == "":
		return nil, model.NewValidationError("password")
	}

	// 2. メールアドレスの事前重複チェック
	// すり抜けた同時登録はCreate内の一意制約違反として検出される
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	// 3. パスワードのハッシュ化
	hashed, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 4. ユーザー作成
	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateEmailError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordUserRegistered()
	}
	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Authenticate はメールアドレスとパスワードを検証し、セッショントークンを発行する。
// アカウント未存在とパスワード不一致はどちらもINVALID_CREDENTIALSを返し、
// どちらの要因で失敗したかをクライアントに漏らさない（ユーザー列挙対策）。
func (s *Service) Authenticate(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	email = strings.TrimSpace(email)

	// 1. ユーザー検索
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordFailure("user_not_found")
		return nil, model.NewInvalidCredentialsError()
	}

	// 2. パスワード検証
	if !s.hasher.Verify(plainPassword, user.PasswordHash) {
		s.recordFailure("password_mismatch")
		return nil, model.NewInvalidCredentialsError()
	}

	// 3. 検証済みユーザーからトークンを発行
	tokenStr, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordAuthSuccess()
	}
	slog.Info("user authenticated",
		slog.String("user_id", user.ID),
	)

	return &LoginResult{
		User:  user.Public(),
		Token: tokenStr,
	}, nil
}

// recordFailure は認証失敗を記録する。
// 失敗要因はログにのみ残し、クライアントへのレスポンスでは区別しない。
func (s *Service) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordAuthFailure()
	}
	slog.Warn("authentication failed",
		slog.String("reason", reason),
	)
}
