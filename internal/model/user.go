// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/google/uuid"
)

// User は登録済みアカウント（Credential Record）を表す。
// PasswordHashは常にハッシュ済みの値であり、平文パスワードは保持しない。
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Bio          string
	Image        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate はユーザー情報の部分更新を表す。
// nilのフィールドは変更しない。
type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
	Bio          *string
	Image        *string
}

// IsEmpty は更新対象のフィールドが1つもないかを返す。
func (u UserUpdate) IsEmpty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil && u.Bio == nil && u.Image == nil
}
