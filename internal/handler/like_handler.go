package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kiwi/internal/model"
)

// LikeServiceInterface はいいねハンドラーが必要とするサービスインターフェース。
type LikeServiceInterface interface {
	Create(ctx context.Context, userID, messageID uuid.UUID) (*model.Like, error)
	List(ctx context.Context, messageID uuid.UUID) ([]*model.Like, error)
}

// LikeHandler はいいねのHTTPハンドラー。
type LikeHandler struct {
	service LikeServiceInterface
}

// NewLikeHandler はLikeHandlerを生成する。
func NewLikeHandler(service LikeServiceInterface) *LikeHandler {
	return &LikeHandler{service: service}
}

type likeResponse struct {
	ID        uuid.UUID `json:"id"`
	MessageID uuid.UUID `json:"message_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Create はメッセージにいいねする。
// POST /message/{id}/like
func (h *LikeHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	messageID, ok := parseIDParam(w, r, model.NewMessageNotFoundError)
	if !ok {
		return
	}

	like, err := h.service.Create(r.Context(), id.UserID, messageID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLikeResponse(like))
}

// List はメッセージへのいいね一覧を返す。
// GET /message/{id}/like
func (h *LikeHandler) List(w http.ResponseWriter, r *http.Request) {
	messageID, ok := parseIDParam(w, r, model.NewMessageNotFoundError)
	if !ok {
		return
	}

	likes, err := h.service.List(r.Context(), messageID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]likeResponse, len(likes))
	for i, l := range likes {
		results[i] = toLikeResponse(l)
	}
	writeJSON(w, http.StatusOK, results)
}

func toLikeResponse(l *model.Like) likeResponse {
	return likeResponse{
		ID:        l.ID,
		MessageID: l.MessageID,
		UserID:    l.UserID,
		CreatedAt: l.CreatedAt,
	}
}
