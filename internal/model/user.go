// Package model はドメインモデルを定義する。
package model

import "time"

// User は登録済みユーザーのアカウントレコードを表す。
// PasswordHashはrepository層とauthサービスの外に公開してはならない。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser はAPIレスポンスに含めてよいユーザー情報のみを持つ。
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public はパスワードハッシュを含まない公開用表現を返す。
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
