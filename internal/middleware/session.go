// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済みアイデンティティを格納するためのキー。
var identityContextKey = contextKey("identity")

// IdentityResolver はリクエストからアイデンティティを解決するインターフェース。
// auth.Resolverの部分集合として定義する。
type IdentityResolver interface {
	Resolve(w http.ResponseWriter, r *http.Request) auth.Resolution
}

// NewSessionMiddleware はセッションCookieからアイデンティティを解決するミドルウェアを返す。
// ローカルトークンの検証、必要であればプロバイダーとのリフレッシュ交換までを
// リゾルバーに委譲し、認証済みアイデンティティをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := resolver.Resolve(w, r)
			if !res.Authenticated {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := ContextWithIdentity(r.Context(), res.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin は管理者ロールを要求するミドルウェアを返す。
// セッションミドルウェアの後に配置する。認証済みだが管理者でない
// リクエストには403 Forbiddenを返す（401ではない）。
func RequireAdmin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if !identity.IsAdmin() {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext はリクエストコンテキストから認証済みアイデンティティを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*auth.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*auth.Identity)
	if !ok || identity == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	identity, err := IdentityFromContext(ctx)
	if err != nil {
		return "", err
	}
	if identity.UserID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return identity.UserID, nil
}

// ContextWithIdentity はコンテキストにアイデンティティを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
