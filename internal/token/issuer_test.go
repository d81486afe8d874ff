package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/blogd/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:       "user-123",
		Username: "alice",
		Email:    "alice@example.com",
	}
}

// 発行したトークンを復号すると発行時のクレームが復元されることを検証
func TestIssuer_IssueAndDecode(t *testing.T) {
	issuedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("test-secret", 72*time.Hour)
	issuer.now = func() time.Time { return issuedAt }

	tokenStr, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if tokenStr == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := issuer.Decode(tokenStr)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if claims.SubjectID != "user-123" {
		t.Errorf("SubjectID = %q, want %q", claims.SubjectID, "user-123")
	}
	if claims.Name != "alice" {
		t.Errorf("Name = %q, want %q", claims.Name, "alice")
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "alice@example.com")
	}
	if !claims.IssuedAt.Equal(issuedAt) {
		t.Errorf("IssuedAt = %v, want %v", claims.IssuedAt, issuedAt)
	}
	if !claims.ExpiresAt.Equal(issuedAt.Add(72 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, issuedAt.Add(72*time.Hour))
	}
}

// 有効期限を過ぎたトークンはErrTokenExpiredを返すことを検証
func TestIssuer_DecodeExpiredToken(t *testing.T) {
	issuedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("test-secret", time.Hour)
	issuer.now = func() time.Time { return issuedAt }

	tokenStr, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// 有効期限の後に時計を進める
	issuer.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }

	_, err = issuer.Decode(tokenStr)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Decode() error = %v, want ErrTokenExpired", err)
	}
}

// 有効期限ぎりぎりのトークンは受理されることを検証
func TestIssuer_DecodeJustBeforeExpiry(t *testing.T) {
	issuedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("test-secret", time.Hour)
	issuer.now = func() time.Time { return issuedAt }

	tokenStr, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	issuer.now = func() time.Time { return issuedAt.Add(time.Hour - time.Second) }

	if _, err := issuer.Decode(tokenStr); err != nil {
		t.Errorf("Decode() error = %v, want nil just before expiry", err)
	}
}

// ペイロードを改ざんしたトークンはErrTokenInvalidを返すことを検証
func TestIssuer_DecodeTamperedToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	tokenStr, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// ペイロード部の1バイトを書き換える
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token format: %d parts", len(parts))
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = issuer.Decode(tampered)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Decode() error = %v, want ErrTokenInvalid", err)
	}
}

// 異なるシークレットで署名されたトークンはErrTokenInvalidを返すことを検証
func TestIssuer_DecodeWrongSecret(t *testing.T) {
	issuerA := NewIssuer("secret-a", time.Hour)
	issuerB := NewIssuer("secret-b", time.Hour)

	tokenStr, err := issuerA.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, err = issuerB.Decode(tokenStr)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Decode() error = %v, want ErrTokenInvalid", err)
	}
}

// 不正な形式の文字列はErrTokenInvalidを返すことを検証
func TestIssuer_DecodeMalformedToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	malformed := []string{
		"",
		"not-a-jwt",
		"a.b",
		"a.b.c.d",
	}

	for _, tokenStr := range malformed {
		_, err := issuer.Decode(tokenStr)
		if !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Decode(%q) error = %v, want ErrTokenInvalid", tokenStr, err)
		}
	}
}
