package auth

import (
	"net/http"
	"time"
)

// セッション継続に使用する3つのCookie名。
// いずれもHTTP Only・SameSite=Strict・Path=/ で、
// ローカル開発以外ではSecure属性が付与される。
const (
	// SessionCookieName はローカルセッショントークン（署名付きJWT）のCookie名。
	SessionCookieName = "local-session-token"
	// AccessCookieName は外部プロバイダーのアクセストークンのCookie名。
	// 値は不透明なベアラートークンで、ローカルでは復号しない。
	AccessCookieName = "external-access-token"
	// RefreshCookieName は外部プロバイダーのリフレッシュトークンのCookie名。
	// スクリプトから到達不可能なCookieにのみ保存する。
	RefreshCookieName = "external-refresh-token"
)

// CookieConfig はセッションCookieの共通ポリシー設定。
type CookieConfig struct {
	Domain     string
	Secure     bool
	SessionTTL time.Duration // ローカルセッショントークンの有効期間
	AccessTTL  time.Duration // プロバイダーが期限を返さない場合のデフォルト
	RefreshTTL time.Duration // リフレッシュトークンCookieの有効期間
}

// SetSessionCookies はログイン・リフレッシュ成功後に設定すべきCookie一式を構成する。
// ローカルセッショントークン、アクセストークン、そしてプロバイダーが
// ローテーションした場合のみリフレッシュトークンの3つを同時に設定する。
func (c CookieConfig) SetSessionCookies(w http.ResponseWriter, sessionToken string, grant *TokenGrant) {
	c.set(w, SessionCookieName, sessionToken, int(c.SessionTTL.Seconds()))

	accessMaxAge := int(c.AccessTTL.Seconds())
	if grant.ExpiresIn > 0 {
		accessMaxAge = grant.ExpiresIn
	}
	c.set(w, AccessCookieName, grant.AccessToken, accessMaxAge)

	// プロバイダーがローテーションを行った場合のみ、新しいリフレッシュトークンを
	// 正本として保存する。返されなかった場合は既存のCookieを温存する。
	if grant.RefreshToken != "" {
		c.set(w, RefreshCookieName, grant.RefreshToken, int(c.RefreshTTL.Seconds()))
	}
}

// ClearSessionCookies はログアウト時にCookie一式を失効させる。
// 空値かつ期限切れの値で上書きすることでクライアント側から無効化する。
func (c CookieConfig) ClearSessionCookies(w http.ResponseWriter) {
	c.set(w, SessionCookieName, "", -1)
	c.set(w, AccessCookieName, "", -1)
	c.set(w, RefreshCookieName, "", -1)
}

// set は共通ポリシーでCookieを設定する。
func (c CookieConfig) set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
