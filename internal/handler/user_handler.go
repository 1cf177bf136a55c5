package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kiwi/internal/model"
	"github.com/hitoshi/kiwi/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Register(ctx context.Context, in user.RegisterInput) (*user.Account, error)
	Login(ctx context.Context, email, password string) (*user.Account, error)
	Current(ctx context.Context, userID uuid.UUID) (*user.Account, error)
	Update(ctx context.Context, userID uuid.UUID, in user.UpdateInput) (*user.Account, error)
	Profile(ctx context.Context, userID uuid.UUID) (*user.Profile, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// updateUserRequest は省略されたフィールドを変更しない部分更新のリクエスト。
type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

// userResponse はトークン付きユーザー情報のAPIレスポンス。
type userResponse struct {
	User userBody `json:"user"`
}

type userBody struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Token    string  `json:"token"`
	Bio      string  `json:"bio"`
	Image    *string `json:"image"`
}

// profileResponse は公開プロフィールのAPIレスポンス。
type profileResponse struct {
	Profile profileBody `json:"profile"`
}

type profileBody struct {
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// Register はユーザー登録を処理する。
// POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.service.Register(r.Context(), user.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(account))
}

// Login はメールアドレスとパスワードで認証し、トークンを発行する。
// POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(account))
}

// Current は認証済みユーザーの情報を返す。
// GET /user
func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	account, err := h.service.Current(r.Context(), id.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(account))
}

// Update は認証済みユーザーの情報を部分更新する。
// PUT /user
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.service.Update(r.Context(), id.UserID, user.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
		Image:    req.Image,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(account))
}

// Profile は指定ユーザーの公開プロフィールを返す。
// GET /user/{id}
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(w, r, func(string) *model.APIError { return model.NewUserNotFoundError() })
	if !ok {
		return
	}

	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Profile: profileBody{
		Username:  profile.Username,
		Bio:       profile.Bio,
		Image:     profile.Image,
		CreatedAt: profile.CreatedAt,
	}})
}

func toUserResponse(account *user.Account) userResponse {
	return userResponse{User: userBody{
		Username: account.User.Username,
		Email:    account.User.Email,
		Token:    account.Token,
		Bio:      account.User.Bio,
		Image:    account.User.Image,
	}}
}
