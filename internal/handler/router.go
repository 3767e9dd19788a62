package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/membergate/internal/metrics"
	"github.com/hitoshi/membergate/internal/middleware"
	"github.com/hitoshi/membergate/internal/security"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	VisitorResolver  middleware.VisitorResolver
	MetricsCollector *metrics.Collector
	MetricsGatherer  prometheus.Gatherer

	// 認証・画面
	AuthService AuthServiceInterface
	WebConfig   WebHandlerConfig
	PathGuard   security.PathGuardService

	// 運用
	HealthChecker HealthChecker
}

// NewRouter は全ルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → Metrics → Logging → Session
//
// ゲート対象ルート（/secrets, /logout, /download/*）はRequireAuthの内側に配置する。
func NewRouter(deps *RouterDeps) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	if deps.MetricsCollector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsCollector))
	}
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewSessionMiddleware(deps.VisitorResolver))

	// typed-nilのインターフェース化を避けるため、nilの場合は代入しない
	var downloads DownloadRecorder
	if deps.MetricsCollector != nil {
		downloads = deps.MetricsCollector
	}

	h, err := NewWebHandler(deps.AuthService, deps.PathGuard, downloads, deps.WebConfig)
	if err != nil {
		return nil, err
	}

	// --- 認証不要のルート ---

	r.Get("/", h.Home)

	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)

	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)

	// --- 認証が必要なルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireAuthMiddleware("/login?error=unauthenticated"))

		r.Get("/secrets", h.Secrets)
		r.Get("/logout", h.Logout)
		r.Get("/download/{filename}", h.Download)
	})

	// --- 運用ルート ---

	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	return r, nil
}

// NewHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
