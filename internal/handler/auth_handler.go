// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// CredentialVerifier はログイン時のパスワード検証インターフェース。
// 検証は外部認証プロバイダーへ委譲し、ローカルではパスワードを保持しない。
type CredentialVerifier interface {
	PasswordGrant(ctx context.Context, email, password string) (*auth.TokenGrant, error)
}

// SessionTokenIssuer はローカルセッショントークンの発行インターフェース。
type SessionTokenIssuer interface {
	Issue(userID, email string, role model.Role) (string, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	verifier CredentialVerifier
	issuer   SessionTokenIssuer
	users    auth.UserMirror // nil許容（ミラーリング無効）
	cookies  auth.CookieConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(verifier CredentialVerifier, issuer SessionTokenIssuer, users auth.UserMirror, cookies auth.CookieConfig) *AuthHandler {
	return &AuthHandler{
		verifier: verifier,
		issuer:   issuer,
		users:    users,
		cookies:  cookies,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// identityResponse は認証済みアイデンティティのAPIレスポンス。
type identityResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Login はメールアドレスとパスワードでログインする。
// POST /api/auth/login
//
// 資格情報の検証は外部プロバイダーのパスワードグラントで行い、
// 成功時にセッションCookie一式（ローカルセッショントークン、
// アクセストークン、リフレッシュトークン）を設定する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	if req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("メールアドレスとパスワードは必須です。"))
		return
	}

	grant, err := h.verifier.PasswordGrant(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// 資格情報の誤りは認証切れではなく入力不備として扱う
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCredentialsError())
			return
		}
		slog.Error("password grant failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusBadGateway, &model.APIError{
			Code:     "AUTH_PROVIDER_UNAVAILABLE",
			Message:  "認証サービスに接続できません。",
			Category: "auth",
			Action:   "しばらく待ってから再度お試しください。",
		})
		return
	}

	// プロバイダーのアイデンティティをローカルユーザーレコードにミラーリング
	if h.users != nil {
		user := &model.User{
			ID:    grant.UserID,
			Email: grant.Email,
			Name:  grant.Name,
			Role:  grant.Role,
		}
		if err := h.users.Upsert(r.Context(), user); err != nil {
			slog.Error("failed to mirror user record",
				slog.String("user_id", grant.UserID),
				slog.String("error", err.Error()),
			)
			middleware.WriteInternalServerError(w)
			return
		}
	}

	sessionToken, err := h.issuer.Issue(grant.UserID, grant.Email, grant.Role)
	if err != nil {
		slog.Error("failed to issue session token",
			slog.String("user_id", grant.UserID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	h.cookies.SetSessionCookies(w, sessionToken, grant)

	slog.Info("user logged in", slog.String("user_id", grant.UserID))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(identityResponse{
		UserID: grant.UserID,
		Email:  grant.Email,
		Role:   string(grant.Role),
	})
}

// Logout はセッションCookie一式を失効させる。
// POST /api/auth/logout
//
// ローカルのCookieを無効化するのみで、プロバイダー側のトークン失効は行わない。
// 常に200を返す冪等な操作。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearSessionCookies(w)
	w.WriteHeader(http.StatusOK)
}

// Me は現在の認証済みアイデンティティを返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(identityResponse{
		UserID: identity.UserID,
		Email:  identity.Email,
		Role:   string(identity.Role),
	})
}
