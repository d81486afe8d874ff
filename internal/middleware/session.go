// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/blogd/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "session_token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストにセッションクレームを格納するためのキー。
var claimsContextKey = contextKey("session_claims")

// TokenDecoder はトークン検証に必要なインターフェース。
// token.Issuerの部分集合として定義する。
type TokenDecoder interface {
	Decode(tokenStr string) (*model.SessionClaims, error)
}

// TokenFromRequest はリクエストから生のセッショントークンを取り出す。
// Authorization: Bearerヘッダーを優先し、なければセッションCookieを参照する。
// どちらにもない場合はfalseを返す。
func TokenFromRequest(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if tokenStr, ok := strings.CutPrefix(h, "Bearer "); ok && tokenStr != "" {
			return tokenStr, true
		}
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// NewSessionMiddleware はリクエストからセッショントークンを読み取り、
// 署名と有効期限を検証するミドルウェアを返す。
// 検証済みクレームをリクエストコンテキストに注入する。
// トークンの欠落・署名不正・期限切れはいずれも401 Unauthorizedを返す。
func NewSessionMiddleware(decoder TokenDecoder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. リクエストからトークンを取得
			tokenStr, ok := TokenFromRequest(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			// 2. 署名・有効期限の検証
			claims, err := decoder.Decode(tokenStr)
			if err != nil {
				// 失敗要因（Invalid/Expired）は区別せずUNAUTHENTICATEDに集約する
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			// 3. 検証済みクレームをコンテキストに注入
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext はリクエストコンテキストからセッションクレームを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func ClaimsFromContext(ctx context.Context) (*model.SessionClaims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*model.SessionClaims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("session claims not found in context")
	}
	return claims, nil
}

// ContextWithClaims はコンテキストにセッションクレームを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaims(ctx context.Context, claims *model.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
