// Package auth はセッション認証の継続性レイヤーを提供する。
//
// ログイン済みアイデンティティの確立・検証・透過的リフレッシュ・
// 保護ハンドラーへの伝搬を担当する。高速パス（ローカルセッショントークンの
// ローカル検証）と低速パス（外部プロバイダーへのリフレッシュ交換）の
// 2段階で解決し、すべての失敗は「未認証」に倒す。
package auth

import (
	"time"

	"github.com/hitoshi/storefront/internal/model"
)

// Identity は認証済みプリンシパルを表す。
// ローカルセッショントークンのクレームから復元されるか、
// リフレッシュ成功時にプロバイダーのユーザー情報から構築される。
type Identity struct {
	UserID    string
	Email     string
	Role      model.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin は管理者ロールかどうかを返す。
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == model.RoleAdmin
}
