// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
type Role string

const (
	// RoleUser は一般ユーザーを示す。
	RoleUser Role = "user"
	// RoleAdmin は管理者を示す。管理者専用エンドポイントの利用が許可される。
	RoleAdmin Role = "admin"
)

// ParseRole は文字列からRoleを解析する。
// 未知の値は一般ユーザーとして扱う（権限は常に狭い側に倒す）。
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// User はサービス利用ユーザーを表す。
// IDは外部認証プロバイダーが発行する識別子で、作成後は不変。
// プロバイダー側のユーザー情報をローカルにミラーリングしたレコード。
type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
