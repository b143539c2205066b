package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather がエラーを返した: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mf := gatherMetric(t, reg, name)
	if mf == nil {
		t.Fatalf("メトリクス %s が登録されていない", name)
	}
	for _, m := range mf.GetMetric() {
		matched := true
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && lp.GetValue() != want {
				matched = false
				break
			}
		}
		if matched && len(m.GetLabel()) == len(labels) {
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("メトリクス %s にラベル %v の系列がない", name, labels)
	return 0
}

func TestCollector_GitHubStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGitHubStatus(200)
	c.RecordGitHubStatus(200)
	c.RecordGitHubStatus(502)

	if got := counterValue(t, reg, "notifeed_github_http_status_total", map[string]string{"status_code": "200"}); got != 2 {
		t.Errorf("status_code=200 のカウント = %v, want 2", got)
	}
	if got := counterValue(t, reg, "notifeed_github_http_status_total", map[string]string{"status_code": "502"}); got != 1 {
		t.Errorf("status_code=502 のカウント = %v, want 1", got)
	}
}

func TestCollector_CacheCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordStaleServe()

	if got := counterValue(t, reg, "notifeed_cache_hit_total", nil); got != 2 {
		t.Errorf("cache_hit_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "notifeed_stale_serve_total", nil); got != 1 {
		t.Errorf("stale_serve_total = %v, want 1", got)
	}
}

func TestCollector_ItemCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordItemsFetched(5)
	c.RecordItemsFetched(3)
	c.RecordItemsFiltered(2)

	if got := counterValue(t, reg, "notifeed_items_fetched_total", nil); got != 8 {
		t.Errorf("items_fetched_total = %v, want 8", got)
	}
	if got := counterValue(t, reg, "notifeed_items_filtered_total", nil); got != 2 {
		t.Errorf("items_filtered_total = %v, want 2", got)
	}
}

func TestCollector_Refresh(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRefreshSuccess()
	c.RecordRefreshFailure()
	c.RecordRefreshFailure()
	c.RecordFetchLatency(250 * time.Millisecond)

	if got := counterValue(t, reg, "notifeed_refresh_success_total", nil); got != 1 {
		t.Errorf("refresh_success_total = %v, want 1", got)
	}
	if got := counterValue(t, reg, "notifeed_refresh_fail_total", nil); got != 2 {
		t.Errorf("refresh_fail_total = %v, want 2", got)
	}

	mf := gatherMetric(t, reg, "notifeed_fetch_latency_seconds")
	if mf == nil {
		t.Fatal("notifeed_fetch_latency_seconds が登録されていない")
	}
	if got := mf.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("ヒストグラムのサンプル数 = %d, want 1", got)
	}
}

func TestHandler_ExposesAllCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordGitHubStatus(200)
	c.RecordRefreshSuccess()
	c.RecordRefreshFailure()
	c.RecordFetchLatency(100 * time.Millisecond)
	c.RecordItemsFetched(4)
	c.RecordItemsFiltered(1)
	c.RecordCacheHit()
	c.RecordStaleServe()
	c.RecordHTTPStatus(200)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)

	names := []string{
		"notifeed_refresh_success_total",
		"notifeed_refresh_fail_total",
		"notifeed_github_http_status_total",
		"notifeed_fetch_latency_seconds",
		"notifeed_items_fetched_total",
		"notifeed_items_filtered_total",
		"notifeed_cache_hit_total",
		"notifeed_stale_serve_total",
		"notifeed_http_status_total",
	}
	for _, name := range names {
		if !strings.Contains(string(body), name) {
			t.Errorf("メトリクス %s が公開されていない", name)
		}
	}
}
