package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/storefront/internal/model"
)

// ErrInvalidToken はローカルセッショントークンが無効であることを示す。
// トークン欠落・署名不一致・期限切れのすべてをこの1種類に集約する。
// 呼び出し側は理由を区別せず、低速パス（リフレッシュ）への移行だけを判断する。
var ErrInvalidToken = errors.New("invalid session token")

// sessionClaims はローカルセッショントークンのクレーム構造。
// SubjectにユーザーID、加えてemailとroleを独自クレームとして持つ。
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Verifier はローカルセッショントークンを共有シークレットで検証する。
// ステートレスかつ副作用なし。有効性は署名と期限のみで決まり、
// サーバー側ストアは参照しない。
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier はVerifierを生成する。
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{
		secret: secret,
		now:    time.Now,
	}
}

// Verify はトークンを検証し、有効であればIdentityを返す。
// トークンが空・署名不一致・期限切れの場合はErrInvalidTokenを返す。
// ネットワーク呼び出しを行わないO(1)のローカル処理。
func (v *Verifier) Verify(token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	identity := &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   model.ParseRole(claims.Role),
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}
