// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/google/uuid"
)

// Like はユーザーによるメッセージへの「いいね」を表す。
// 同一ユーザーは同一メッセージに1回だけいいねできる。
type Like struct {
	ID        uuid.UUID
	MessageID uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}
