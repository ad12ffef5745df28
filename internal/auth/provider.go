package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hitoshi/storefront/internal/model"
)

// ErrRefreshFailed はリフレッシュ交換が失敗したことを示す。
// 非2xx応答・不正なボディ・アイデンティティ欠落・タイムアウトのすべてを集約する。
// リゾルバー境界では未認証として扱われ、呼び出し側に例外として伝搬しない。
var ErrRefreshFailed = errors.New("token refresh failed")

// ErrInvalidCredentials はパスワードグラントが認証情報不一致で拒否されたことを示す。
var ErrInvalidCredentials = errors.New("invalid credentials")

// defaultRefreshTimeout はプロバイダーとのトークン交換のデフォルトタイムアウト。
const defaultRefreshTimeout = 5 * time.Second

// TokenGrant はプロバイダーのトークンエンドポイントとの交換結果を表す。
type TokenGrant struct {
	UserID       string
	Email        string
	Name         string
	Role         model.Role
	AccessToken  string
	ExpiresIn    int    // アクセストークンの有効期間（秒）。0はプロバイダー未報告
	RefreshToken string // ローテーションされた場合のみ非空
}

// TokenExchanger は外部認証プロバイダーとのトークン交換のインターフェース。
type TokenExchanger interface {
	// Refresh はリフレッシュトークンを新しいアクセストークンと
	// アイデンティティクレームに交換する。失敗はErrRefreshFailedにラップされる。
	Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error)

	// PasswordGrant はメールアドレスとパスワードでトークン一式を取得する。
	// 認証情報不一致の場合はErrInvalidCredentialsを返す。
	PasswordGrant(ctx context.Context, email, password string) (*TokenGrant, error)
}

// ProviderConfig は外部認証プロバイダーの接続設定。
type ProviderConfig struct {
	BaseURL    string
	ServiceKey string

	// テスト用にオーバーライド可能なURL
	TokenURL string

	// トークン交換のタイムアウト。0の場合は5秒
	Timeout time.Duration
}

// ProviderClient はホスト型認証プロバイダーのトークンエンドポイントを呼び出すクライアント。
type ProviderClient struct {
	config ProviderConfig
	client *http.Client
}

// NewProviderClient はProviderClientを生成する。
func NewProviderClient(config ProviderConfig) *ProviderClient {
	if config.TokenURL == "" {
		config.TokenURL = config.BaseURL + "/auth/v1/token"
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultRefreshTimeout
	}
	return &ProviderClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// providerTokenResponse はプロバイダーのトークンエンドポイントのレスポンス。
type providerTokenResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int           `json:"expires_in"`
	RefreshToken string        `json:"refresh_token"`
	User         *providerUser `json:"user"`
}

// providerUser はプロバイダーが返すユーザー情報。
type providerUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Name string `json:"name"`
	} `json:"user_metadata"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
}

// Refresh はリフレッシュトークンを新しいアクセストークンに交換する。
// grant_type=refresh_token での1回のネットワーク交換を行う。
// 成功条件: 2xx応答かつ非nullのユーザーペイロード。それ以外はErrRefreshFailed。
func (p *ProviderClient) Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: empty refresh token", ErrRefreshFailed)
	}
	if p.config.BaseURL == "" && p.config.TokenURL == "" || p.config.ServiceKey == "" {
		// 必須設定が欠けている場合、低速パスは利用不可として閉じる
		return nil, fmt.Errorf("%w: provider not configured", ErrRefreshFailed)
	}

	body := map[string]string{"refresh_token": refreshToken}
	resp, err := p.exchange(ctx, "refresh_token", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	grant, err := p.toGrant(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	return grant, nil
}

// PasswordGrant はメールアドレスとパスワードでトークン一式を取得する。
func (p *ProviderClient) PasswordGrant(ctx context.Context, email, password string) (*TokenGrant, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := p.exchange(ctx, "password", body)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("password grant failed: %w", err)
	}

	grant, err := p.toGrant(resp)
	if err != nil {
		return nil, fmt.Errorf("password grant failed: %w", err)
	}

	return grant, nil
}

// statusError はプロバイダーの非2xx応答を表す。
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.code, e.body)
}

// exchange はトークンエンドポイントへの1回のPOST交換を行う。
func (p *ProviderClient) exchange(ctx context.Context, grantType string, body map[string]string) (*providerTokenResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	url := p.config.TokenURL + "?grant_type=" + grantType
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.config.ServiceKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, body: string(respBody)}
	}

	var tokenResp providerTokenResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	return &tokenResp, nil
}

// toGrant はプロバイダーのレスポンスを検証してTokenGrantに変換する。
// アクセストークンまたはアイデンティティペイロードの欠落はエラー。
func (p *ProviderClient) toGrant(resp *providerTokenResponse) (*TokenGrant, error) {
	if resp.AccessToken == "" {
		return nil, errors.New("empty access token in response")
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, errors.New("missing identity payload in response")
	}

	return &TokenGrant{
		UserID:       resp.User.ID,
		Email:        resp.User.Email,
		Name:         resp.User.UserMetadata.Name,
		Role:         model.ParseRole(resp.User.AppMetadata.Role),
		AccessToken:  resp.AccessToken,
		ExpiresIn:    resp.ExpiresIn,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// compile-time interface check
var _ TokenExchanger = (*ProviderClient)(nil)
