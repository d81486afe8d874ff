// Package authz はリソース変更操作の許可判定を提供する。
package authz

import "github.com/hitoshi/blogd/internal/model"

// AuthorizeMutation はセッションクレームが対象リソースの変更を許可されるか判定する。
// 判定は所有権ベース: クレームのsubjectがリソース所有者と一致する場合のみ許可する。
// claimsがnil（セッションなし）の場合は常に拒否。
// 純粋関数であり、副作用もpanicもない。
func AuthorizeMutation(claims *model.SessionClaims, resourceOwnerID string) bool {
	if claims == nil {
		return false
	}
	if claims.SubjectID == "" || resourceOwnerID == "" {
		return false
	}
	return claims.SubjectID == resourceOwnerID
}
