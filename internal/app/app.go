// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/notifeed/internal/config"
	"github.com/hitoshi/notifeed/internal/feedcache"
	"github.com/hitoshi/notifeed/internal/filter"
	"github.com/hitoshi/notifeed/internal/github"
	"github.com/hitoshi/notifeed/internal/handler"
	"github.com/hitoshi/notifeed/internal/logger"
	"github.com/hitoshi/notifeed/internal/metrics"
	"github.com/hitoshi/notifeed/internal/middleware"
	"github.com/hitoshi/notifeed/internal/model"
	"github.com/hitoshi/notifeed/internal/rss"
	"github.com/hitoshi/notifeed/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("api_url", cfg.APIURL),
	)

	return runServe(cfg)
}

// itemsRecorder はパイプラインが記録する通知数メトリクスのインターフェース。
type itemsRecorder interface {
	RecordItemsFetched(count int)
	RecordItemsFiltered(count int)
}

// fetcherAdapter は取得とフィルタリングをひとつのパイプラインにまとめ、
// キャッシュ層のFetcherインターフェースを実装する。
type fetcherAdapter struct {
	client   *github.Client
	params   github.FetchParams
	criteria model.FilterCriteria
	metrics  itemsRecorder
}

// FetchNotifications は通知を取得し、フィルタ条件を適用した結果を返す。
// 取得した通知数とフィルタで除外された通知数をメトリクスに記録する。
func (a *fetcherAdapter) FetchNotifications(ctx context.Context) ([]model.Notification, error) {
	notifications, err := a.client.FetchNotifications(ctx, a.params)
	if err != nil {
		return nil, err
	}

	kept := filter.Apply(notifications, a.criteria)
	a.metrics.RecordItemsFetched(len(notifications))
	a.metrics.RecordItemsFiltered(len(notifications) - len(kept))

	return kept, nil
}

// runServe はフィードサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. 外向きHTTPクライアントの構成
	ssrfGuard := security.NewSSRFGuard()

	var httpClient *http.Client
	if cfg.AllowPrivateAPI {
		// GitHub Enterprise等、内部ネットワーク上のAPIを許可する場合のみ
		slog.Warn("SSRF防御を無効化しています（GITHUB_ALLOW_PRIVATE_API=true）")
		httpClient = &http.Client{Timeout: cfg.FetchTimeout}
	} else {
		if err := ssrfGuard.ValidateURL(cfg.APIURL); err != nil {
			return fmt.Errorf("GITHUB_API_URL validation failed: %w", err)
		}
		httpClient = ssrfGuard.NewSafeClient(cfg.FetchTimeout)
	}

	// 3. GitHubクライアントの初期化
	ghClient := github.NewClient(httpClient, slog.Default(), collector, github.ClientConfig{
		APIURL:      cfg.APIURL,
		Token:       cfg.Token,
		MaxBodySize: cfg.FetchMaxSize,
	})

	// 4. 取得+フィルタパイプラインの構築
	fetcher := &fetcherAdapter{
		client: ghClient,
		params: github.FetchParams{
			PerPage:           cfg.PerPage,
			MaxPages:          cfg.MaxPages,
			IncludeRead:       cfg.IncludeRead,
			ParticipatingOnly: cfg.ParticipatingOnly,
		},
		criteria: model.NewFilterCriteria(
			cfg.IncludeReasons, cfg.ExcludeReasons,
			cfg.IncludeRepos, cfg.ExcludeRepos,
		),
		metrics: collector,
	}

	// 5. レンダラーとキャッシュの初期化
	renderer := rss.NewRenderer(rss.Config{
		Title:           cfg.RSSTitle,
		Link:            cfg.RSSLink,
		Description:     cfg.RSSDescription,
		APIURL:          cfg.APIURL,
		HTMLDescription: cfg.RSSHTMLDescription,
	}, security.NewTextSanitizer())

	cache := feedcache.NewManager(fetcher, renderer, slog.Default(), collector, feedcache.Config{
		TTL:             cfg.CacheTTL,
		TokenConfigured: cfg.Token != "",
	})

	if cfg.Token == "" {
		slog.Warn("GITHUB_TOKENが未設定です。設定されるまで/feedは503を返します")
	}

	slog.Info("feed pipeline configured",
		slog.Int("per_page", cfg.PerPage),
		slog.Int("max_pages", cfg.MaxPages),
		slog.Bool("participating_only", cfg.ParticipatingOnly),
		slog.Bool("include_read", cfg.IncludeRead),
		slog.Bool("html_description", cfg.RSSHTMLDescription),
		slog.Float64("cache_ttl_seconds", cfg.CacheTTL.Seconds()),
	)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral), slog.Default(),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		FeedProvider:   cache,
		StatusReporter: cache,
		Logger:         slog.Default(),
		Metrics:        collector,
		RateLimiter:    rateLimiter,
		Gatherer:       registry,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("feed server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down feed server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("feed server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
