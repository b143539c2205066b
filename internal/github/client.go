// Package github はGitHub通知APIのクライアントを提供する。
// ページネーション付きの通知一覧取得を行い、304 Not ModifiedとLinkヘッダーによる
// 継続シグナルを解釈する。
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/notifeed/internal/model"
)

const (
	// apiVersion はGitHub REST APIのバージョンヘッダー値。
	apiVersion = "2022-11-28"
	// userAgent はGitHub APIに送信するUser-Agent。
	userAgent = "notifeed/1.0 GitHub notifications RSS bridge"
)

// StatusRecorder はGitHub APIのHTTPステータスをメトリクスに記録するインターフェース。
type StatusRecorder interface {
	RecordGitHubStatus(statusCode int)
}

// ClientConfig はClientの設定パラメータ。
type ClientConfig struct {
	// APIURL はGitHub APIのベースURL（末尾スラッシュなし）。
	APIURL string
	// Token はBearer認証に使用するGitHubトークン。
	Token string
	// MaxBodySize はレスポンスボディの最大読み取りサイズ（バイト）。
	MaxBodySize int64
}

// FetchParams は通知取得のクエリパラメータ。
type FetchParams struct {
	PerPage           int
	MaxPages          int
	IncludeRead       bool
	ParticipatingOnly bool
}

// Client はGitHub通知APIのクライアント。
// HTTPクライアントは外部から注入され、タイムアウトとSSRF防御は注入側が構成する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    StatusRecorder
	config     ClientConfig
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, metrics StatusRecorder, config ClientConfig) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
		config:     config,
	}
}

// FetchNotifications は通知一覧をページ順に取得する。
// ページ1からMaxPagesまで順に要求し、以下の条件でループを終了する:
//   - 304 Not Modified: ここまでに蓄積した通知を正常結果として返す
//   - 空ページ: これ以上の通知はない
//   - Linkヘッダーに rel="next" がない: 最終ページに到達した
//
// 2xx以外のステータスまたはネットワークエラーはTransportErrorとして失敗し、
// 部分結果は返さない。
func (c *Client) FetchNotifications(ctx context.Context, params FetchParams) ([]model.Notification, error) {
	start := time.Now()

	var notifications []model.Notification
	for page := 1; page <= params.MaxPages; page++ {
		c.logger.Info("通知ページを要求します", slog.Int("page", page))

		items, hasNext, notModified, err := c.fetchPage(ctx, page, params)
		if err != nil {
			return nil, err
		}

		if notModified {
			c.logger.Info("GitHubが304 Not Modifiedを返しました", slog.Int("page", page))
			break
		}
		if len(items) == 0 {
			c.logger.Info("これ以上の通知はありません", slog.Int("page", page))
			break
		}

		notifications = append(notifications, items...)

		if !hasNext {
			break
		}
	}

	c.logger.Info("通知の取得が完了しました",
		slog.Int("count", len(notifications)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return notifications, nil
}

// fetchPage は1ページ分の通知を取得する。
// 戻り値は (通知リスト, 次ページの有無, 304か否か, エラー)。
func (c *Client) fetchPage(ctx context.Context, page int, params FetchParams) ([]model.Notification, bool, bool, error) {
	reqURL, err := c.buildURL(page, params)
	if err != nil {
		return nil, false, false, &model.TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, false, &model.TransportError{Err: fmt.Errorf("リクエスト作成に失敗: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("GitHub APIへのリクエストに失敗しました",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		return nil, false, false, &model.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordGitHubStatus(resp.StatusCode)
	}

	// 304: コンテンツ未変更。エラーではなく正常な終了シグナル。
	if resp.StatusCode == http.StatusNotModified {
		return nil, false, true, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("GitHub APIがエラーステータスを返しました",
			slog.Int("page", page),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, false, false, &model.TransportError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodySize))
	if err != nil {
		return nil, false, false, &model.TransportError{Err: fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)}
	}

	var items []model.Notification
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, false, false, &model.TransportError{Err: fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)}
	}

	hasNext := strings.Contains(resp.Header.Get("Link"), `rel="next"`)
	return items, hasNext, false, nil
}

// buildURL は通知一覧エンドポイントのリクエストURLを構築する。
func (c *Client) buildURL(page int, params FetchParams) (string, error) {
	u, err := url.Parse(c.config.APIURL + "/notifications")
	if err != nil {
		return "", fmt.Errorf("APIベースURLのパースに失敗しました: %w", err)
	}

	q := u.Query()
	q.Set("per_page", strconv.Itoa(params.PerPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("all", strconv.FormatBool(params.IncludeRead))
	q.Set("participating", strconv.FormatBool(params.ParticipatingOnly))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
