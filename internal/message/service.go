// Package message はメッセージとコメントのドメインロジックを提供する。
package message

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kiwi/internal/database"
	"github.com/hitoshi/kiwi/internal/model"
	"github.com/hitoshi/kiwi/internal/repository"
	"github.com/hitoshi/kiwi/internal/security"
)

// maxMessageLength はサニタイズ後の本文の最大文字数。
const maxMessageLength = 4000

// Service はメッセージ管理のサービス層。
type Service struct {
	messageRepo repository.MessageRepository
	sanitizer   security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(messageRepo repository.MessageRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		messageRepo: messageRepo,
		sanitizer:   sanitizer,
	}
}

// List はコメントを含む全メッセージを作成日時順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Message, error) {
	messages, err := s.messageRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("メッセージ一覧の取得に失敗しました: %w", err)
	}
	return messages, nil
}

// Create は認証済みユーザーのメッセージを投稿する。
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, text string) (*model.Message, error) {
	return s.create(ctx, authorID, text, nil)
}

// Get は指定IDのメッセージを返す。存在しない場合は404エラーとなる。
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	message, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("メッセージの取得に失敗しました: %w", err)
	}
	if message == nil {
		return nil, model.NewMessageNotFoundError(id.String())
	}
	return message, nil
}

// Delete は投稿者本人のメッセージを削除する。
// 存在しない場合と投稿者以外による削除はどちらも404エラーとなる。
func (s *Service) Delete(ctx context.Context, authorID, id uuid.UUID) error {
	deleted, err := s.messageRepo.DeleteByIDAndAuthor(ctx, id, authorID)
	if err != nil {
		return fmt.Errorf("メッセージの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewMessageNotFoundError(id.String())
	}

	slog.Info("メッセージを削除しました",
		slog.String("message_id", id.String()),
		slog.String("user_id", authorID.String()),
	)
	return nil
}

// Comment は指定メッセージへのコメントを投稿する。
// 親メッセージが存在しない場合は404エラーとなる。
func (s *Service) Comment(ctx context.Context, authorID, parentID uuid.UUID, text string) (*model.Message, error) {
	parent, err := s.messageRepo.FindByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("親メッセージの取得に失敗しました: %w", err)
	}
	if parent == nil {
		return nil, model.NewMessageNotFoundError(parentID.String())
	}
	return s.create(ctx, authorID, text, &parent.ID)
}

func (s *Service) create(ctx context.Context, authorID uuid.UUID, text string, parentID *uuid.UUID) (*model.Message, error) {
	body := s.sanitizer.Sanitize(text)
	if body == "" {
		return nil, model.NewFieldError("message", "can't be blank")
	}
	if len([]rune(body)) > maxMessageLength {
		return nil, model.NewFieldError("message", "is too long")
	}

	message := &model.Message{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Message:   body,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, translateCreateError(err, parentID)
	}

	slog.Info("メッセージを投稿しました",
		slog.String("message_id", message.ID.String()),
		slog.String("user_id", authorID.String()),
		slog.Bool("comment", message.IsComment()),
	)
	return message, nil
}

// translateCreateError は制約違反をAPIエラーに変換する。
func translateCreateError(err error, parentID *uuid.UUID) error {
	if constraint, ok := database.UniqueViolation(err); ok && constraint == "messages_pkey" {
		return model.NewFieldError("message", "duplicate message id")
	}
	// 親メッセージが投稿の直前に削除された場合
	if parentID != nil && database.IsForeignKeyViolation(err) {
		return model.NewMessageNotFoundError(parentID.String())
	}
	return fmt.Errorf("メッセージの作成に失敗しました: %w", err)
}
