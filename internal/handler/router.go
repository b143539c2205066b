package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/notifeed/internal/metrics"
	"github.com/hitoshi/notifeed/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	FeedProvider   FeedProvider
	StatusReporter StatusReporter
	Logger         *slog.Logger
	Metrics        middleware.HTTPStatusRecorder
	RateLimiter    *middleware.RateLimiter
	Gatherer       prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → SecurityHeadersMiddleware → LoggingMiddleware
//
// レート制限はフィードルート（/ と /feed）にのみ適用する。
// /health と /metrics は監視系からの定期アクセスを想定して制限しない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))

	feedHandler := NewFeedHandler(deps.FeedProvider, deps.Logger)
	healthHandler := NewHealthHandler(deps.StatusReporter)

	// フィード配信（レート制限あり）
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}
		r.Get("/", feedHandler.GetFeed)
		r.Get("/feed", feedHandler.GetFeed)
	})

	r.Get("/health", healthHandler.Health)

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}
