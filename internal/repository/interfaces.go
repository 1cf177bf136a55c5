// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kiwi/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// ユーザー名・メールアドレスの重複は一意制約違反のエラーとして返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Update はnilでないフィールドのみを更新し、更新後のユーザーを返す。
	// 見つからない場合はnilを返す。
	Update(ctx context.Context, id uuid.UUID, update model.UserUpdate, updatedAt time.Time) (*model.User, error)
}

// MessageRepository はメッセージデータの永続化インターフェース。
type MessageRepository interface {
	// Create はメッセージを作成する。
	Create(ctx context.Context, message *model.Message) error

	// FindByID は指定IDのメッセージを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id uuid.UUID) (*model.Message, error)

	// List はコメントを含む全メッセージを作成日時、ID順で返す。
	List(ctx context.Context) ([]*model.Message, error)

	// DeleteByIDAndAuthor は投稿者が一致する場合のみメッセージを削除する。
	// 削除した場合はtrueを返す。コメントといいねはCASCADE削除される。
	DeleteByIDAndAuthor(ctx context.Context, id, authorID uuid.UUID) (bool, error)
}

// LikeRepository はいいねデータの永続化インターフェース。
type LikeRepository interface {
	// Create はいいねを作成する。
	// 同一ユーザーによる重複は一意制約違反のエラーとして返す。
	Create(ctx context.Context, like *model.Like) error

	// ListByMessageID はメッセージのいいねを作成日時、ID順で返す。
	ListByMessageID(ctx context.Context, messageID uuid.UUID) ([]*model.Like, error)
}
