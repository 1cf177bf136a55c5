// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/google/uuid"
)

// Message は掲示板に投稿されたメッセージを表す。
// ParentIDが設定されている場合は、そのメッセージへのコメントである。
type Message struct {
	ID        uuid.UUID
	AuthorID  uuid.UUID
	Message   string
	ParentID  *uuid.UUID
	CreatedAt time.Time
}

// IsComment はメッセージがコメントかどうかを返す。
func (m *Message) IsComment() bool {
	return m.ParentID != nil
}
