package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/kiwi/internal/auth"
	"github.com/hitoshi/kiwi/internal/model"
)

// contextKey はコンテキストキーの型。
type contextKey string

const identityContextKey contextKey = "identity"

// Authenticator はリクエストヘッダーから呼び出し元を特定する。
type Authenticator interface {
	Authenticate(h http.Header) (auth.Identity, error)
}

// AuthRejectionObserver は認証拒否を種別ごとに記録する。
type AuthRejectionObserver interface {
	RecordAuthRejection(kind string)
}

// IdentityFromContext はコンテキストから認証済みIdentityを取得する。
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(auth.Identity)
	return id, ok
}

// ContextWithIdentity はIdentityをコンテキストに設定する。
func ContextWithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// NewAuthMiddleware はAuthorizationヘッダーを検証するミドルウェアを返す。
// 拒否理由に関わらず同一の401レスポンスを返し、種別はログとメトリクスにのみ残す。
// observerはnilでもよい。
func NewAuthMiddleware(authenticator Authenticator, observer AuthRejectionObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticator.Authenticate(r.Header)
			if err != nil {
				kind := auth.KindOf(err).String()
				slog.Debug("認証に失敗しました",
					slog.String("kind", kind),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				if observer != nil {
					observer.RecordAuthRejection(kind)
				}
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			setLoggedUserID(r.Context(), id.UserID.String())
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}
