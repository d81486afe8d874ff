package model

import "time"

// SessionClaims は検証済みトークンから復元したセッション内容を表す。
// 検証に成功したUserからのみ導出され、クライアント入力から直接構築してはならない。
type SessionClaims struct {
	SubjectID string    `json:"sub"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
