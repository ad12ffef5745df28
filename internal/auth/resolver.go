package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/storefront/internal/model"
)

// UserMirror はプロバイダーのアイデンティティをローカルユーザーレコードに
// ミラーリングするためのインターフェース。repository.UserRepositoryの部分集合。
type UserMirror interface {
	Upsert(ctx context.Context, user *model.User) error
}

// MetricsRecorder はリゾルバーが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordAuthFastPath()
	RecordAuthRefresh(result string)
	RecordRefreshLatency(duration time.Duration)
}

// Resolution はアイデンティティ解決の結果を表す。
// AuthenticatedとUnauthenticatedの2つの終端状態のみを持ち、
// 呼び出し側は両方の分岐を明示的に処理する。
// Unauthenticatedは正常系の結果であり、エラーではない。
type Resolution struct {
	Authenticated bool
	Identity      *Identity // Authenticated=trueの場合のみ非nil
	Refreshed     bool      // 低速パス（リフレッシュ交換）を経由した場合true
}

// Resolver は受信リクエストから権威あるアイデンティティを解決する。
//
// 状態遷移:
//
//	Start → FastPathChecked → {Authenticated, NeedsRefresh}
//	      → RefreshAttempted → {Authenticated, Unauthenticated}
//
// 高速パス: ローカルセッショントークンのローカル検証（ネットワーク呼び出しなし）。
// 低速パス: リフレッシュトークンをプロバイダーで交換し、ローカルトークンを再発行。
// 1リクエスト内でのリトライは行わず、リフレッシュ失敗はそのリクエストで確定する。
type Resolver struct {
	verifier  *Verifier
	exchanger TokenExchanger
	issuer    *Issuer
	cookies   CookieConfig
	users     UserMirror      // nil許容（ミラーリング無効）
	metrics   MetricsRecorder // nil許容
}

// NewResolver はResolverを生成する。
func NewResolver(verifier *Verifier, exchanger TokenExchanger, issuer *Issuer, cookies CookieConfig) *Resolver {
	return &Resolver{
		verifier:  verifier,
		exchanger: exchanger,
		issuer:    issuer,
		cookies:   cookies,
	}
}

// WithUserMirror はリフレッシュ成功時のローカルユーザーミラーリングを有効にする。
func (r *Resolver) WithUserMirror(users UserMirror) *Resolver {
	r.users = users
	return r
}

// WithMetrics はメトリクス記録を有効にする。
func (r *Resolver) WithMetrics(metrics MetricsRecorder) *Resolver {
	r.metrics = metrics
	return r
}

// Resolve はリクエストから権威あるアイデンティティを解決する。
//
// リフレッシュ成功時はローテーションされたCookie一式をレスポンスに付与する。
// すべての失敗経路は未認証に倒し（fail closed）、エラーは返さない。
// プロバイダーの失敗詳細はサーバー側ログにのみ記録される。
//
// 並行する2つのリクエストが同時に低速パスに入った場合、プロバイダーが
// リフレッシュトークンの単回使用を強制していれば2回目の交換は失敗する。
// その場合も当該リクエストは未認証に退行するだけで、エラーにはならない。
func (r *Resolver) Resolve(w http.ResponseWriter, req *http.Request) Resolution {
	// 1. 高速パス: ローカルセッショントークンを検証
	if cookie, err := req.Cookie(SessionCookieName); err == nil {
		if identity, err := r.verifier.Verify(cookie.Value); err == nil {
			if r.metrics != nil {
				r.metrics.RecordAuthFastPath()
			}
			return Resolution{Authenticated: true, Identity: identity}
		}
	}

	// 2. 低速パス: リフレッシュトークンを読み取る
	refreshCookie, err := req.Cookie(RefreshCookieName)
	if err != nil || refreshCookie.Value == "" {
		return Resolution{}
	}
	if r.exchanger == nil {
		// リフレッシュ経路が構成されていない場合は閉じて失敗する
		return Resolution{}
	}

	// 3. プロバイダーとのリフレッシュ交換
	start := time.Now()
	grant, err := r.exchanger.Refresh(req.Context(), refreshCookie.Value)
	if r.metrics != nil {
		r.metrics.RecordRefreshLatency(time.Since(start))
	}
	if err != nil {
		// リフレッシュ失敗はこのリクエストで確定。未認証として扱う
		slog.Warn("session refresh failed",
			slog.String("error", err.Error()),
		)
		if r.metrics != nil {
			r.metrics.RecordAuthRefresh("failure")
		}
		return Resolution{}
	}

	// 4. プロバイダーのアイデンティティをローカルユーザーレコードにミラーリング
	if r.users != nil {
		user := &model.User{
			ID:    grant.UserID,
			Email: grant.Email,
			Name:  grant.Name,
			Role:  grant.Role,
		}
		if err := r.users.Upsert(req.Context(), user); err != nil {
			slog.Error("failed to mirror user record",
				slog.String("user_id", grant.UserID),
				slog.String("error", err.Error()),
			)
			if r.metrics != nil {
				r.metrics.RecordAuthRefresh("failure")
			}
			return Resolution{}
		}
	}

	// 5. ローカルセッショントークンを再発行し、Cookie一式をローテーション
	sessionToken, err := r.issuer.Issue(grant.UserID, grant.Email, grant.Role)
	if err != nil {
		slog.Error("failed to issue session token",
			slog.String("user_id", grant.UserID),
			slog.String("error", err.Error()),
		)
		if r.metrics != nil {
			r.metrics.RecordAuthRefresh("failure")
		}
		return Resolution{}
	}
	r.cookies.SetSessionCookies(w, sessionToken, grant)

	if r.metrics != nil {
		r.metrics.RecordAuthRefresh("success")
	}
	slog.Info("session refreshed",
		slog.String("user_id", grant.UserID),
	)

	now := time.Now()
	return Resolution{
		Authenticated: true,
		Refreshed:     true,
		Identity: &Identity{
			UserID:    grant.UserID,
			Email:     grant.Email,
			Role:      grant.Role,
			IssuedAt:  now,
			ExpiresAt: now.Add(r.issuer.TTL()),
		},
	}
}
