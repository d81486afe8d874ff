// Package password はパスワードの一方向ハッシュ化と検証を提供する。
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はパスワードハッシュ化のインターフェース。
type Hasher interface {
	// Hash は平文パスワードをソルト付きでハッシュ化する。
	Hash(plaintext string) (string, error)
	// Verify は平文パスワードとハッシュの一致を検証する。
	// ハッシュが不正な形式の場合もエラーにせずfalseを返す。
	Verify(plaintext, hashed string) bool
}

// BcryptHasher はbcryptによるHasherの実装。
// bcryptはハッシュごとにランダムなソルトを内包し、比較は一定時間で行われる。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はBcryptHasherを生成する。
// costが範囲外（bcrypt.MinCost未満またはbcrypt.MaxCost超）の場合はデフォルトコストを使う。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash は平文パスワードをbcryptでハッシュ化する。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文パスワードとハッシュの一致を検証する。
// 不一致・不正形式のいずれもfalseを返し、エラーは伝播しない。
func (h *BcryptHasher) Verify(plaintext, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}

// compile-time interface check
var _ Hasher = (*BcryptHasher)(nil)
