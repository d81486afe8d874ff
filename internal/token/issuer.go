// Package token はセッショントークンの発行と検証を提供する。
//
// トークンはHS256署名付きの自己完結型JWTで、サーバー側にセッション状態を
// 持たない。クレームはsub（ユーザーID）、name、email、iat、exp。
// 署名鍵はサーバー保持のシークレットで、検証に成功したクレームのみを信頼する。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/blogd/internal/model"
)

var (
	// ErrTokenInvalid は署名不一致・不正形式のトークンを表す。
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired は有効期限切れのトークンを表す。
	ErrTokenExpired = errors.New("token is expired")
)

// sessionClaims はJWTペイロードの内部表現。
type sessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer はセッショントークンの発行・検証を行う。
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer はIssuerを生成する。
// expiryはトークンの有効期間を指定する。
func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue は検証済みユーザーからセッショントークンを発行する。
// クレームは検証に成功したUserからのみ導出すること。
func (i *Issuer) Issue(user *model.User) (string, error) {
	now := i.now()
	claims := sessionClaims{
		Name:  user.Username,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Decode はトークンの署名と有効期限を検証し、セッションクレームを復元する。
// 署名不一致・不正形式はErrTokenInvalid、期限切れはErrTokenExpiredを返す。
// 署名検証前のフィールドは一切信頼しない。
func (i *Issuer) Decode(tokenStr string) (*model.SessionClaims, error) {
	claims := &sessionClaims{}

	t, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !t.Valid {
		return nil, ErrTokenInvalid
	}

	// expなしのトークンは期限を強制できないため受け入れない
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrTokenInvalid
	}

	return &model.SessionClaims{
		SubjectID: claims.Subject,
		Name:      claims.Name,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
