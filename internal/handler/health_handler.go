package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/notifeed/internal/feedcache"
)

// StatusReporter はヘルスハンドラーが必要とするサービスインターフェース。
type StatusReporter interface {
	// Snapshot は現在のキャッシュ状態を返す。
	Snapshot() feedcache.Status
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	reporter StatusReporter
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(reporter StatusReporter) *HealthHandler {
	return &HealthHandler{reporter: reporter}
}

// healthResponse はヘルスチェックのAPIレスポンス。
type healthResponse struct {
	Status          string  `json:"status"`
	LastFetch       *string `json:"last_fetch"`
	LastError       *string `json:"last_error"`
	CacheTTLSeconds int     `json:"cache_ttl_seconds"`
}

// Health はキャッシュ状態のスナップショットをJSONで返す。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.reporter.Snapshot()

	resp := healthResponse{
		Status:          status.State,
		CacheTTLSeconds: int(status.CacheTTL / time.Second),
	}
	if !status.LastFetch.IsZero() {
		s := status.LastFetch.UTC().Format(time.RFC3339)
		resp.LastFetch = &s
	}
	if status.LastError != "" {
		s := status.LastError
		resp.LastError = &s
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
