package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kiwi/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Authenticator     middleware.Authenticator
	AuthObserver      middleware.AuthRejectionObserver
	HTTPMetrics       middleware.HTTPMetricsRecorder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// ドメイン
	UserService    UserServiceInterface
	MessageService MessageServiceInterface
	LikeService    LikeServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//
// 登録・ログインはクライアントIP単位のレート制限のみを適用し、
// それ以外のAPIは Auth → RateLimit(General) を通す。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	userHandler := NewUserHandler(deps.UserService)
	messageHandler := NewMessageHandler(deps.MessageService)
	likeHandler := NewLikeHandler(deps.LikeService)

	// --- 認証不要のルート ---

	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.CredentialMiddleware())
		r.Post("/users", userHandler.Register)
		r.Post("/users/login", userHandler.Login)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator, deps.AuthObserver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/user", func(r chi.Router) {
			r.Get("/", userHandler.Current)
			r.Put("/", userHandler.Update)
			r.Get("/{id}", userHandler.Profile)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", messageHandler.List)
			r.Post("/", messageHandler.Create)
		})

		r.Route("/message/{id}", func(r chi.Router) {
			r.Get("/", messageHandler.Get)
			r.Delete("/", messageHandler.Delete)
			r.Post("/", messageHandler.Comment)

			r.Get("/like", likeHandler.List)
			r.Post("/like", likeHandler.Create)
		})
	})

	return r
}
