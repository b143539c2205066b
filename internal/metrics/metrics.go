// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// キャッシュ層やHTTPクライアントから利用する。
type MetricsCollector interface {
	RecordGitHubStatus(statusCode int)
	RecordRefreshSuccess()
	RecordRefreshFailure()
	RecordFetchLatency(duration time.Duration)
	RecordItemsFetched(count int)
	RecordItemsFiltered(count int)
	RecordCacheHit()
	RecordStaleServe()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	githubStatus   *prometheus.CounterVec
	refreshSuccess prometheus.Counter
	refreshFail    prometheus.Counter
	fetchLatency   prometheus.Histogram
	itemsFetched   prometheus.Counter
	itemsFiltered  prometheus.Counter
	cacheHit       prometheus.Counter
	staleServe     prometheus.Counter
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		githubStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifeed_github_http_status_total",
			Help: "GitHub APIのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		refreshSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifeed_refresh_success_total",
			Help: "フィード再構築成功の合計数",
		}),
		refreshFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifeed_refresh_fail_total",
			Help: "フィード再構築失敗の合計数",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notifeed_fetch_latency_seconds",
			Help:    "フィード再構築（取得〜描画）のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		itemsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifeed_items_fetched_total",
			Help: "GitHub APIから取得した通知の合計数",
		}),
		itemsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifeed_items_filtered_total",
			Help: "フィルタ条件により除外された通知の合計数",
		}),
		cacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifeed_cache_hit_total",
			Help: "新鮮なキャッシュを提供した合計数",
		}),
		staleServe: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifeed_stale_serve_total",
			Help: "再構築失敗時に期限切れキャッシュを提供した合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifeed_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.githubStatus,
		c.refreshSuccess,
		c.refreshFail,
		c.fetchLatency,
		c.itemsFetched,
		c.itemsFiltered,
		c.cacheHit,
		c.staleServe,
		c.httpStatus,
	)

	return c
}

// RecordGitHubStatus はGitHub APIのステータスコードを記録する。
func (c *Collector) RecordGitHubStatus(statusCode int) {
	c.githubStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRefreshSuccess はフィード再構築の成功を記録する。
func (c *Collector) RecordRefreshSuccess() {
	c.refreshSuccess.Inc()
}

// RecordRefreshFailure はフィード再構築の失敗を記録する。
func (c *Collector) RecordRefreshFailure() {
	c.refreshFail.Inc()
}

// RecordFetchLatency はフィード再構築のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordItemsFetched はGitHub APIから取得した通知数を記録する。
func (c *Collector) RecordItemsFetched(count int) {
	c.itemsFetched.Add(float64(count))
}

// RecordItemsFiltered はフィルタで除外された通知数を記録する。
func (c *Collector) RecordItemsFiltered(count int) {
	c.itemsFiltered.Add(float64(count))
}

// RecordCacheHit は新鮮なキャッシュの提供を記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHit.Inc()
}

// RecordStaleServe は失敗時の期限切れキャッシュの提供を記録する。
func (c *Collector) RecordStaleServe() {
	c.staleServe.Inc()
}

// RecordHTTPStatus は配信したHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
