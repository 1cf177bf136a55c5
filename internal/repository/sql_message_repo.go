package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/kiwi/internal/model"
)

const messageColumns = `id, author_id, message, message_parent_id, created_at`

// SQLMessageRepo はSQLデータベースを使用したメッセージリポジトリ。
type SQLMessageRepo struct {
	db *sql.DB
}

// NewSQLMessageRepo はSQLMessageRepoを生成する。
func NewSQLMessageRepo(db *sql.DB) *SQLMessageRepo {
	return &SQLMessageRepo{db: db}
}

// Create はメッセージを作成する。
func (r *SQLMessageRepo) Create(ctx context.Context, message *model.Message) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`)
		 VALUES ($1, $2, $3, $4, $5)`,
		message.ID, message.AuthorID, message.Message, message.ParentID, message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// FindByID は指定IDのメッセージを取得する。見つからない場合はnilを返す。
func (r *SQLMessageRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	message, err := scanMessage(r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find message by ID: %w", err)
	}
	return message, nil
}

// List はコメントを含む全メッセージを作成日時、ID順で返す。
func (r *SQLMessageRepo) List(ctx context.Context) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []*model.Message{}
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// DeleteByIDAndAuthor は投稿者が一致する場合のみメッセージを削除する。
func (r *SQLMessageRepo) DeleteByIDAndAuthor(ctx context.Context, id, authorID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM messages WHERE id = $1 AND author_id = $2`,
		id, authorID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func scanMessage(row rowScanner) (*model.Message, error) {
	message := &model.Message{}
	var parentID uuid.NullUUID
	if err := row.Scan(&message.ID, &message.AuthorID, &message.Message, &parentID, &message.CreatedAt); err != nil {
		return nil, err
	}
	if parentID.Valid {
		id := parentID.UUID
		message.ParentID = &id
	}
	message.CreatedAt = message.CreatedAt.UTC()
	return message, nil
}

var _ MessageRepository = (*SQLMessageRepo)(nil)
