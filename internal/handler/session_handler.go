package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// SessionHandler はセッション検証のHTTPハンドラー。
// セッションミドルウェアを経由せず、リゾルバーを直接呼び出して
// リフレッシュ経由かどうかを応答に含める。
type SessionHandler struct {
	resolver middleware.IdentityResolver
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(resolver middleware.IdentityResolver) *SessionHandler {
	return &SessionHandler{resolver: resolver}
}

// sessionValidateResponse はセッション検証のAPIレスポンス。
type sessionValidateResponse struct {
	Identity  identityResponse `json:"identity"`
	Refreshed bool             `json:"refreshed"`
}

// Validate は現在のセッションCookieを検証する。
// GET /api/session/validate
//
// 高速パスで検証できた場合はRefreshed=false、リフレッシュ交換を
// 経由した場合はRefreshed=trueを返す。リフレッシュ成功時は
// ローテーションされたCookie一式がレスポンスに付与される。
// 未認証は401を返す。
func (h *SessionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	res := h.resolver.Resolve(w, r)
	if !res.Authenticated {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionValidateResponse{
		Identity: identityResponse{
			UserID: res.Identity.UserID,
			Email:  res.Identity.Email,
			Role:   string(res.Identity.Role),
		},
		Refreshed: res.Refreshed,
	})
}
