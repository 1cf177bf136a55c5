// Package like はメッセージへのいいねのドメインロジックを提供する。
package like

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kiwi/internal/database"
	"github.com/hitoshi/kiwi/internal/model"
	"github.com/hitoshi/kiwi/internal/repository"
)

// MessageFinder はメッセージの存在確認に使用するインターフェース。
type MessageFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Message, error)
}

// Service はいいね管理のサービス層。
type Service struct {
	likeRepo    repository.LikeRepository
	messageRepo MessageFinder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(likeRepo repository.LikeRepository, messageRepo MessageFinder) *Service {
	return &Service{
		likeRepo:    likeRepo,
		messageRepo: messageRepo,
	}
}

// Create はメッセージにいいねする。
// メッセージが存在しない場合は404、同一ユーザーによる重複は422エラーとなる。
func (s *Service) Create(ctx context.Context, userID, messageID uuid.UUID) (*model.Like, error) {
	if err := s.ensureMessage(ctx, messageID); err != nil {
		return nil, err
	}

	like := &model.Like{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.likeRepo.Create(ctx, like); err != nil {
		if constraint, ok := database.UniqueViolation(err); ok && constraint == "likes_message_id_user_id_key" {
			return nil, model.NewFieldError("like", "has already been liked")
		}
		if database.IsForeignKeyViolation(err) {
			return nil, model.NewMessageNotFoundError(messageID.String())
		}
		return nil, fmt.Errorf("いいねの作成に失敗しました: %w", err)
	}

	slog.Info("いいねしました",
		slog.String("message_id", messageID.String()),
		slog.String("user_id", userID.String()),
	)
	return like, nil
}

// List はメッセージのいいね一覧を返す。メッセージが存在しない場合は404エラーとなる。
func (s *Service) List(ctx context.Context, messageID uuid.UUID) ([]*model.Like, error) {
	if err := s.ensureMessage(ctx, messageID); err != nil {
		return nil, err
	}

	likes, err := s.likeRepo.ListByMessageID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("いいね一覧の取得に失敗しました: %w", err)
	}
	return likes, nil
}

func (s *Service) ensureMessage(ctx context.Context, messageID uuid.UUID) error {
	message, err := s.messageRepo.FindByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("メッセージの取得に失敗しました: %w", err)
	}
	if message == nil {
		return model.NewMessageNotFoundError(messageID.String())
	}
	return nil
}
