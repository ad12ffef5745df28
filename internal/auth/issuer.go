package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/storefront/internal/model"
)

// Issuer はローカルセッショントークンを発行する。
// Verifierと同一の共有シークレットでHS256署名する純粋な署名操作。
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer はIssuerを生成する。ttlはトークンの有効期間（通常1時間）。
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL はトークンの有効期間を返す。Cookieの有効期間設定に使用する。
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue は検証済みのアイデンティティ情報からローカルセッショントークンを発行する。
func (i *Issuer) Issue(userID, email string, role model.Role) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email: email,
		Role:  string(role),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}
