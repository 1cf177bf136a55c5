package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kiwi/internal/model"
)

// MessageServiceInterface はメッセージハンドラーが必要とするサービスインターフェース。
type MessageServiceInterface interface {
	List(ctx context.Context) ([]*model.Message, error)
	Create(ctx context.Context, authorID uuid.UUID, text string) (*model.Message, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Message, error)
	Delete(ctx context.Context, authorID, id uuid.UUID) error
	Comment(ctx context.Context, authorID, parentID uuid.UUID, text string) (*model.Message, error)
}

// MessageHandler はメッセージとコメントのHTTPハンドラー。
type MessageHandler struct {
	service MessageServiceInterface
}

// NewMessageHandler はMessageHandlerを生成する。
func NewMessageHandler(service MessageServiceInterface) *MessageHandler {
	return &MessageHandler{service: service}
}

type messageRequest struct {
	Message string `json:"message"`
}

// messageResponse はメッセージのAPIレスポンス。
// コメントでない場合message_parent_idはnullになる。
type messageResponse struct {
	ID              uuid.UUID  `json:"id"`
	AuthorID        uuid.UUID  `json:"author_id"`
	CreatedAt       time.Time  `json:"created_at"`
	Message         string     `json:"message"`
	MessageParentID *uuid.UUID `json:"message_parent_id"`
}

// List はコメントを含む全メッセージを返す。
// GET /messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]messageResponse, len(messages))
	for i, m := range messages {
		results[i] = toMessageResponse(m)
	}
	writeJSON(w, http.StatusOK, results)
}

// Create はメッセージを投稿する。
// POST /messages
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	message, err := h.service.Create(r.Context(), id.UserID, req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(message))
}

// Get はメッセージを1件返す。
// GET /message/{id}
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	messageID, ok := parseIDParam(w, r, model.NewMessageNotFoundError)
	if !ok {
		return
	}

	message, err := h.service.Get(r.Context(), messageID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponse(message))
}

// Delete は投稿者本人のメッセージを削除する。
// DELETE /message/{id}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	messageID, ok := parseIDParam(w, r, model.NewMessageNotFoundError)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id.UserID, messageID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Comment はメッセージにコメントを投稿する。
// POST /message/{id}
func (h *MessageHandler) Comment(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	parentID, ok := parseIDParam(w, r, model.NewMessageNotFoundError)
	if !ok {
		return
	}

	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.Comment(r.Context(), id.UserID, parentID, req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(comment))
}

func toMessageResponse(m *model.Message) messageResponse {
	return messageResponse{
		ID:              m.ID,
		AuthorID:        m.AuthorID,
		CreatedAt:       m.CreatedAt,
		Message:         m.Message,
		MessageParentID: m.ParentID,
	}
}
