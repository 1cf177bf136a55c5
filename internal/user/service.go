// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kiwi/internal/auth"
	"github.com/hitoshi/kiwi/internal/database"
	"github.com/hitoshi/kiwi/internal/model"
	"github.com/hitoshi/kiwi/internal/repository"
	"github.com/hitoshi/kiwi/internal/security"
)

// PasswordHasher はパスワードのハッシュ化と検証のインターフェース。
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
}

// TokenIssuer はセッショントークン発行のインターフェース。
type TokenIssuer interface {
	IssueFor(id auth.Identity) (string, error)
}

// Account はトークン付きのユーザー情報。
type Account struct {
	User  *model.User
	Token string
}

// Profile は他のユーザーに公開するプロフィール。
type Profile struct {
	Username  string
	Bio       string
	Image     *string
	CreatedAt time.Time
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateInput はユーザー情報更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Username *string
	Email    *string
	Password *string
	Bio      *string
	Image    *string
}

// Service はユーザー管理のサービス層。
// 登録、ログイン、プロフィールの取得・更新のビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	hasher    PasswordHasher
	issuer    TokenIssuer
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		userRepo:  userRepo,
		hasher:    hasher,
		issuer:    issuer,
		sanitizer: sanitizer,
	}
}

// Register はユーザーを登録し、トークン付きのユーザー情報を返す。
// ユーザー名・メールアドレスが既に使われている場合は422エラーを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	username, email := normalizeUsername(in.Username), normalizeEmail(in.Email)

	v := newValidator()
	v.username(username)
	v.email(email)
	v.password(in.Password)
	if err := v.err(); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := currentTime()
	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if apiErr := translateUniqueViolation(err); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
	)

	return s.withToken(user)
}

// Login はメールアドレスとパスワードで認証し、トークン付きのユーザー情報を返す。
// 未登録のメールアドレスは422エラー、パスワード不一致は401エラーとなる。
func (s *Service) Login(ctx context.Context, email, password string) (*Account, error) {
	email = normalizeEmail(email)

	v := newValidator()
	v.required("email", email)
	v.required("password", password)
	if err := v.err(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewFieldError("email", "does not exist")
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("パスワードの検証に失敗しました: %w", err)
	}
	if !ok {
		slog.Debug("パスワードが一致しません", slog.String("user_id", user.ID.String()))
		return nil, model.NewUnauthorizedError()
	}

	return s.withToken(user)
}

// Current は認証済みユーザーの情報を新しいトークンとともに返す。
// トークンは有効だがユーザーが存在しない場合は401エラーとなる。
func (s *Service) Current(ctx context.Context, userID uuid.UUID) (*Account, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return s.withToken(user)
}

// Update は指定されたフィールドのみを更新する。
// 更新対象がない場合は現在のユーザー情報を返す。
func (s *Service) Update(ctx context.Context, userID uuid.UUID, in UpdateInput) (*Account, error) {
	update := model.UserUpdate{}
	v := newValidator()

	if in.Username != nil {
		username := normalizeUsername(*in.Username)
		v.username(username)
		update.Username = &username
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		v.email(email)
		update.Email = &email
	}
	if in.Password != nil {
		v.password(*in.Password)
	}
	if in.Bio != nil {
		bio := s.sanitizer.Sanitize(*in.Bio)
		update.Bio = &bio
	}
	if in.Image != nil {
		image := *in.Image
		v.image(image)
		update.Image = &image
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if in.Password != nil {
		digest, err := s.hasher.Hash(ctx, *in.Password)
		if err != nil {
			return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
		}
		update.PasswordHash = &digest
	}

	if update.IsEmpty() {
		return s.Current(ctx, userID)
	}

	user, err := s.userRepo.Update(ctx, userID, update, currentTime())
	if err != nil {
		if apiErr := translateUniqueViolation(err); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	slog.Info("ユーザー情報を更新しました", slog.String("user_id", user.ID.String()))

	return s.withToken(user)
}

// Profile は公開プロフィールを返す。存在しない場合は404エラーとなる。
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return &Profile{
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.Image,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *Service) withToken(user *model.User) (*Account, error) {
	token, err := s.issuer.IssueFor(auth.Identity{UserID: user.ID})
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}
	return &Account{User: user, Token: token}, nil
}

// translateUniqueViolation はユーザー名・メールアドレスの重複を422エラーに変換する。
// 該当しない場合はnilを返す。
func translateUniqueViolation(err error) *model.APIError {
	constraint, ok := database.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch constraint {
	case "users_username_key":
		return model.NewFieldError("username", "has already been taken")
	case "users_email_key":
		return model.NewFieldError("email", "has already been taken")
	default:
		return nil
	}
}

// currentTime はデータベースの精度（マイクロ秒）に揃えたUTCの現在時刻を返す。
func currentTime() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
