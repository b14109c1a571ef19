package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/podcheck/internal/metrics"
	"github.com/hitoshi/podcheck/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// サービス
	CheckService   CheckServiceInterface
	RemoteResolver RemoteResolverInterface
	DefaultFeedURL string

	// メトリクス公開
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → CORS → RateLimit
//
// /healthzと/metricsはレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	checkHandler := NewCheckHandler(deps.CheckService, deps.DefaultFeedURL)
	remoteHandler := NewRemoteHandler(deps.RemoteResolver)

	// --- 運用エンドポイント（レート制限の外） ---

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 検査API ---

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Route("/api", func(r chi.Router) {
			r.Get("/feed", checkHandler.CheckFeed)
			r.Get("/chapters", checkHandler.CheckChapters)
			r.Get("/value", checkHandler.CheckValue)

			r.Route("/remote", func(r chi.Router) {
				// 固定パスをパラメーターより先に宣言する
				r.Get("/cache", remoteHandler.CacheInfo)
				r.Get("/{guid}", remoteHandler.ResolveRemote)
			})
		})
	})

	return r
}
