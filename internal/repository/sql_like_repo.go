package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/kiwi/internal/model"
)

// SQLLikeRepo はSQLデータベースを使用したいいねリポジトリ。
type SQLLikeRepo struct {
	db *sql.DB
}

// NewSQLLikeRepo はSQLLikeRepoを生成する。
func NewSQLLikeRepo(db *sql.DB) *SQLLikeRepo {
	return &SQLLikeRepo{db: db}
}

// Create はいいねを作成する。
func (r *SQLLikeRepo) Create(ctx context.Context, like *model.Like) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (id, message_id, user_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		like.ID, like.MessageID, like.UserID, like.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert like: %w", err)
	}
	return nil
}

// ListByMessageID はメッセージのいいねを作成日時、ID順で返す。
func (r *SQLLikeRepo) ListByMessageID(ctx context.Context, messageID uuid.UUID) ([]*model.Like, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, message_id, user_id, created_at
		 FROM likes
		 WHERE message_id = $1
		 ORDER BY created_at, id`,
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	defer rows.Close()

	likes := []*model.Like{}
	for rows.Next() {
		like := &model.Like{}
		if err := rows.Scan(&like.ID, &like.MessageID, &like.UserID, &like.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		like.CreatedAt = like.CreatedAt.UTC()
		likes = append(likes, like)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate likes: %w", err)
	}
	return likes, nil
}

var _ LikeRepository = (*SQLLikeRepo)(nil)
