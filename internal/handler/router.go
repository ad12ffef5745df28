package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Resolver          middleware.IdentityResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger
	StatusRecorder    middleware.HTTPStatusRecorder // nil許容

	// 認証
	CredentialVerifier CredentialVerifier
	SessionIssuer      SessionTokenIssuer
	UserMirror         auth.UserMirror
	CookieConfig       auth.CookieConfig

	// ドメインサービス
	ProductService ProductServiceInterface
	CartService    CartServiceInterface
	OrderService   OrderServiceInterface
	ReviewService  ReviewServiceInterface
	UserService    UserServiceInterface

	// 運用エンドポイント
	MetricsHandler http.Handler // nil許容（/metricsを公開しない）
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Logging
//	→ (公開ルート | CSRF → [Session → RateLimit(General) → 保護ルート])
//
// 商品閲覧とレビュー一覧は認証不要。カート・注文・プロフィールは
// セッション解決を必須とし、管理者ルートはさらにロール検査を行う。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	authHandler := NewAuthHandler(deps.CredentialVerifier, deps.SessionIssuer, deps.UserMirror, deps.CookieConfig)
	productHandler := NewProductHandler(deps.ProductService)
	cartHandler := NewCartHandler(deps.CartService)
	orderHandler := NewOrderHandler(deps.OrderService)
	reviewHandler := NewReviewHandler(deps.ReviewService)
	userHandler := NewUserHandler(deps.UserService, deps.CookieConfig)

	// --- 運用エンドポイント ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証不要の公開ルート ---

	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// セッション検証はリゾルバーを直接呼び出すため、セッションミドルウェアの外に置く
	r.Get("/api/session/validate", NewSessionHandler(deps.Resolver).Validate)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", productHandler.ListProducts)
		r.Get("/{id}", productHandler.GetProduct)
		r.Get("/{id}/reviews", reviewHandler.ListReviews)
	})

	// ログイン・ログアウトは状態変更操作のためCSRF検証を適用する
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Post("/api/auth/login", authHandler.Login)
		r.Post("/api/auth/logout", authHandler.Logout)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: CSRF → Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(middleware.NewSessionMiddleware(deps.Resolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/auth/me", authHandler.Me)

		// カート管理
		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", cartHandler.ListCart)
			r.Post("/items", cartHandler.AddCartLine)

			r.Route("/items/{productID}", func(r chi.Router) {
				r.Post("/increase", cartHandler.IncreaseQuantity)
				r.Post("/decrease", cartHandler.DecreaseQuantity)
				r.Delete("/", cartHandler.DeleteCartLine)
			})
		})

		// 注文管理
		r.Route("/api/orders", func(r chi.Router) {
			// POST /api/orders - チェックアウト（チェックアウト専用レート制限を追加）
			r.With(deps.RateLimiter.CheckoutMiddleware()).Post("/", orderHandler.Checkout)

			r.Get("/", orderHandler.ListMyOrders)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", orderHandler.GetOrder)
				r.Post("/cancel", orderHandler.CancelOrder)
			})
		})

		// レビュー投稿
		r.Post("/api/products/{id}/reviews", reviewHandler.CreateReview)

		// プロフィール管理
		r.Route("/api/users/me", func(r chi.Router) {
			r.Get("/", userHandler.GetProfile)
			r.Patch("/", userHandler.UpdateProfile)
			r.Delete("/", userHandler.Withdraw)
		})

		// --- 管理者専用ルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())

			r.Route("/api/admin/products", func(r chi.Router) {
				r.Post("/", productHandler.CreateProduct)
				r.Put("/{id}", productHandler.UpdateProduct)
				r.Delete("/{id}", productHandler.DeleteProduct)
			})

			r.Route("/api/admin/orders", func(r chi.Router) {
				r.Get("/", orderHandler.ListAllOrders)
				r.Patch("/{id}/status", orderHandler.UpdateOrderStatus)
			})
		})
	})

	return r
}
