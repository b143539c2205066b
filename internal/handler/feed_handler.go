// Package handler はHTTPエンドポイントのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/notifeed/internal/model"
)

// FeedProvider はフィードハンドラーが必要とするサービスインターフェース。
// キャッシュ層が実装する。
type FeedProvider interface {
	// GetFeed はRSSドキュメントを返す。
	GetFeed(ctx context.Context) (string, error)
}

// FeedHandler はフィード配信のHTTPハンドラー。
type FeedHandler struct {
	provider FeedProvider
	logger   *slog.Logger
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(provider FeedProvider, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		provider: provider,
		logger:   logger,
	}
}

// GetFeed はRSSフィードを配信する。
// GET / および GET /feed
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	document, err := h.provider.GetFeed(r.Context())
	if err != nil {
		h.writeFeedError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(document))
}

// writeFeedError はフィード構築の失敗を適切なHTTPステータスコードに変換する。
func (h *FeedHandler) writeFeedError(w http.ResponseWriter, err error) {
	var transportErr *model.TransportError
	var renderErr *model.RenderError

	switch {
	case errors.Is(err, model.ErrTokenNotConfigured):
		writePlainError(w, http.StatusServiceUnavailable,
			"GITHUB_TOKEN is not configured on the server")
	case errors.As(err, &transportErr):
		h.logger.Error("上流からの取得に失敗しました", slog.String("error", err.Error()))
		writePlainError(w, http.StatusBadGateway,
			"Failed to fetch notifications from GitHub")
	case errors.As(err, &renderErr):
		h.logger.Error("フィードの描画に失敗しました", slog.String("error", err.Error()))
		writePlainError(w, http.StatusInternalServerError,
			"Internal server error")
	default:
		h.logger.Error("予期しないエラーが発生しました", slog.String("error", err.Error()))
		writePlainError(w, http.StatusInternalServerError,
			"Internal server error")
	}
}

// writePlainError はプレーンテキストのエラーレスポンスを書き込む。
func writePlainError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	w.Write([]byte(message + "\n"))
}
