package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/castport/internal/middleware"
	"github.com/hitoshi/castport/internal/model"
	"github.com/hitoshi/castport/internal/repository"
)

// applicationKinds は公開フォームの応募種別とルート接頭辞の対応。
var applicationKinds = []model.ApplicationKind{
	model.ApplicationSummiteer,
	model.ApplicationGuest,
	model.ApplicationVolunteer,
	model.ApplicationContact,
	model.ApplicationNewsletter,
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	UserFinder        middleware.UserFinder
	SessionSecret     string
	SessionMaxAge     time.Duration
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス（いずれもnil可）
	StatusRecorder middleware.HTTPStatusRecorder
	LoginMetrics   LoginMetricsRecorder
	ObjectMetrics  ObjectMetricsRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// コンテンツ
	BlogService    BlogServiceInterface
	EpisodeService EpisodeServiceInterface
	DossierService DossierServiceInterface

	// オブジェクトストレージ
	ObjectService ObjectServiceInterface

	// 公開フォーム応募
	ApplicationRepo repository.ApplicationRepository
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Recovery → Metrics → Identity
//
// Identityミドルウェアは未認証リクエストを拒否せず匿名のまま通過させる。
// 認可はルートごとのRequireAuth / RequireRoleが行い、adminはすべての
// ロールゲートを通過できる（エンティティ単位の所有権チェックは別）。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewIdentityMiddleware(deps.SessionFinder, deps.UserFinder, deps.SessionSecret, deps.SessionMaxAge))

	authHandler := NewAuthHandler(deps.AuthService, deps.LoginMetrics, deps.AuthConfig)
	blogHandler := NewBlogHandler(deps.BlogService)
	episodeHandler := NewEpisodeHandler(deps.EpisodeService)
	dossierHandler := NewDossierHandler(deps.DossierService)
	objectHandler := NewObjectHandler(deps.ObjectService, deps.ObjectMetrics)
	appHandler := NewApplicationHandler(deps.ApplicationRepo)

	// ヘルスチェック（ミドルウェアは通すがレート制限外）
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// オブジェクト配信はアクセス判定をACL評価に委ねる。
	// 匿名でもpublic読み取りポリシーのオブジェクトには到達できる。
	r.Get("/objects/*", objectHandler.ServeObject)
	r.Get("/public-objects/*", objectHandler.ServePublicObject)

	// --- APIルート ---
	// CSRF検証 + API全般レート制限
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		// 認証（未認証で呼び出せる）
		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/session", authHandler.Session)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})

		// 公開読み取り
		r.Get("/api/blog/posts", blogHandler.ListPublished)
		r.Get("/api/blog/posts/{id}", blogHandler.GetPublished)
		r.Get("/api/episodes", episodeHandler.List)
		r.Get("/api/episodes/{id}", episodeHandler.Get)

		// 公開フォーム送信（未認証可、フォーム専用レート制限をIP単位で適用）
		for _, kind := range applicationKinds {
			r.With(deps.RateLimiter.FormSubmissionMiddleware()).
				Post("/api/"+string(kind)+"-applications", appHandler.Submit(kind))
		}

		// キャストメンバー（+admin）
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleCastMember))

			r.Post("/api/objects/upload", objectHandler.IssueUploadURL)

			r.Route("/api/cast/blog/posts", func(r chi.Router) {
				r.Get("/", blogHandler.ListOwn)
				r.Post("/", blogHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", blogHandler.Update)
					r.Delete("/", blogHandler.Delete)
					r.Post("/submit", blogHandler.Submit)
					r.Post("/publish", blogHandler.Publish)
				})
			})

			r.Post("/api/episodes", episodeHandler.Create)
			r.Put("/api/episodes/{id}", episodeHandler.Update)
		})

		// 保護者（+admin）
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleParent))

			r.Get("/api/parent/episodes", episodeHandler.List)
		})

		// 教育者（+admin）
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleEducator))

			r.Get("/api/dossiers", dossierHandler.List)
		})

		// 管理者専用
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole())

			r.Delete("/api/episodes/{id}", episodeHandler.Delete)
			r.Post("/api/dossiers", dossierHandler.Create)
			r.Delete("/api/dossiers/{id}", dossierHandler.Delete)

			for _, kind := range applicationKinds {
				r.Get("/api/admin/"+string(kind)+"-applications", appHandler.List(kind))
				r.Delete("/api/admin/"+string(kind)+"-applications/{id}", appHandler.Delete(kind))
			}
		})
	})

	return r
}
