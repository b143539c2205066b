// Package feedcache はフィードドキュメントのTTLキャッシュと再構築を提供する。
// 再構築は単一飛行で行い、失敗時は期限切れキャッシュへフォールバックする。
package feedcache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/notifeed/internal/model"
)

// Fetcher は通知の取得を行うインターフェース。
type Fetcher interface {
	FetchNotifications(ctx context.Context) ([]model.Notification, error)
}

// Renderer は通知の一覧からフィードドキュメントを構築するインターフェース。
type Renderer interface {
	Render(notifications []model.Notification) (string, error)
}

// MetricsRecorder はキャッシュ層が記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordRefreshSuccess()
	RecordRefreshFailure()
	RecordFetchLatency(duration time.Duration)
	RecordCacheHit()
	RecordStaleServe()
}

// Config はキャッシュの動作設定。
type Config struct {
	// TTL が0以下の場合、キャッシュは常に期限切れとして扱う。
	TTL             time.Duration
	TokenConfigured bool
}

// Status はヘルスチェック向けのキャッシュ状態のスナップショット。
type Status struct {
	// State は "ok"（最後の再構築が成功）、"degraded"（失敗したが
	// キャッシュを提供できる）、"error"（失敗しキャッシュもない）のいずれか。
	State     string
	LastFetch time.Time
	LastError string
	CacheTTL  time.Duration
}

// Manager はフィードドキュメントのキャッシュを管理する。
// 再構築は refreshMu で直列化されるため、同時リクエストが重複して
// 上流を叩くことはない。キャッシュ状態は stateMu で保護され、
// 再構築中のネットワーク待ちでも Snapshot はブロックしない。
type Manager struct {
	fetcher  Fetcher
	renderer Renderer
	logger   *slog.Logger
	metrics  MetricsRecorder
	config   Config

	refreshMu sync.Mutex

	stateMu    sync.Mutex
	cachedFeed string
	hasCache   bool
	lastFetch  time.Time
	lastError  string

	now func() time.Time
}

// NewManager は新しいManagerを生成する。
func NewManager(fetcher Fetcher, renderer Renderer, logger *slog.Logger, metrics MetricsRecorder, config Config) *Manager {
	return &Manager{
		fetcher:  fetcher,
		renderer: renderer,
		logger:   logger,
		metrics:  metrics,
		config:   config,
		now:      time.Now,
	}
}

// GetFeed はフィードドキュメントを返す。
// キャッシュが新鮮であればそれを返し、そうでなければ再構築する。
// 再構築に失敗した場合、過去に成功したキャッシュがあればそれを返す。
func (m *Manager) GetFeed(ctx context.Context) (string, error) {
	if !m.config.TokenConfigured {
		return "", model.ErrTokenNotConfigured
	}

	if document, ok := m.freshCached(); ok {
		m.metrics.RecordCacheHit()
		return document, nil
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	// 待っている間に別のリクエストが再構築を終えているかもしれない。
	if document, ok := m.freshCached(); ok {
		m.metrics.RecordCacheHit()
		return document, nil
	}

	return m.refresh(ctx)
}

// Snapshot は現在のキャッシュ状態を返す。
func (m *Manager) Snapshot() Status {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	state := "ok"
	if m.lastError != "" {
		if m.hasCache {
			state = "degraded"
		} else {
			state = "error"
		}
	}

	return Status{
		State:     state,
		LastFetch: m.lastFetch,
		LastError: m.lastError,
		CacheTTL:  m.config.TTL,
	}
}

// freshCached は提供可能な新鮮なキャッシュがあればそれを返す。
func (m *Manager) freshCached() (string, bool) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	if m.hasCache && m.lastError == "" && !m.expiredLocked() {
		return m.cachedFeed, true
	}
	return "", false
}

// expiredLocked はキャッシュの期限切れ判定を行う。呼び出し側が stateMu を保持する。
// 経過時間がTTLちょうどの時点ではまだ新鮮として扱う。
func (m *Manager) expiredLocked() bool {
	if m.config.TTL <= 0 {
		return true
	}
	return m.now().Sub(m.lastFetch) > m.config.TTL
}

// refresh は通知を取得しフィードを再構築する。呼び出し側が refreshMu を保持する。
// 取得と描画の間は stateMu を持たないため、ヘルスチェックはブロックしない。
func (m *Manager) refresh(ctx context.Context) (string, error) {
	start := m.now()

	notifications, err := m.fetcher.FetchNotifications(ctx)
	if err != nil {
		return m.fail(err)
	}

	document, err := m.renderer.Render(notifications)
	if err != nil {
		return m.fail(err)
	}

	m.stateMu.Lock()
	m.cachedFeed = document
	m.hasCache = true
	m.lastFetch = m.now()
	m.lastError = ""
	m.stateMu.Unlock()

	duration := m.now().Sub(start)
	m.metrics.RecordRefreshSuccess()
	m.metrics.RecordFetchLatency(duration)
	m.logger.Info("フィードを再構築しました",
		slog.Int("items", len(notifications)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return document, nil
}

// fail は再構築の失敗を記録する。
// キャッシュがあれば期限切れでもそれを提供し、なければエラーを伝播する。
func (m *Manager) fail(err error) (string, error) {
	m.stateMu.Lock()
	m.lastError = err.Error()
	cached := m.cachedFeed
	hasCache := m.hasCache
	m.stateMu.Unlock()

	m.metrics.RecordRefreshFailure()

	if hasCache {
		m.metrics.RecordStaleServe()
		m.logger.Warn("再構築に失敗したため期限切れキャッシュを提供します",
			slog.String("error", err.Error()),
		)
		return cached, nil
	}

	m.logger.Error("再構築に失敗し提供可能なキャッシュもありません",
		slog.String("error", err.Error()),
	)
	return "", err
}
