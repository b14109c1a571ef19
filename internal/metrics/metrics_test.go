package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	total := 0.0
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

// TestRecordFetchSuccess_IncrementsCounter はフェッチ成功カウンタが増加することを検証する。
func TestRecordFetchSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetchSuccess("direct")
	c.RecordFetchSuccess("direct")
	c.RecordFetchSuccess("allorigins")

	if got := counterValue(t, reg, "podcheck_fetch_success_total"); got != 3 {
		t.Errorf("fetch_success_total = %v, want 3", got)
	}
}

// TestRecordFetchFailure_IncrementsCounter はフェッチ失敗カウンタが増加することを検証する。
func TestRecordFetchFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetchFailure("ssrf")
	c.RecordFetchFailure("exhausted")

	if got := counterValue(t, reg, "podcheck_fetch_fail_total"); got != 2 {
		t.Errorf("fetch_fail_total = %v, want 2", got)
	}
}

// TestRecordProxyFallback_LabeledByTransport はリレー別にフォールバックが記録されることを検証する。
func TestRecordProxyFallback_LabeledByTransport(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordProxyFallback("corsproxy")
	c.RecordProxyFallback("corsproxy")
	c.RecordProxyFallback("codetabs")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != "podcheck_proxy_fallback_total" {
			continue
		}
		if len(mf.GetMetric()) != 2 {
			t.Fatalf("ラベル数 = %d, want 2", len(mf.GetMetric()))
		}
		return
	}
	t.Error("podcheck_proxy_fallback_total metric not found")
}

// TestRecordCacheHitMiss はキャッシュヒット・ミスが記録されることを検証する。
func TestRecordCacheHitMiss(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCacheHit("remote_feed")
	c.RecordCacheMiss("remote_feed")
	c.RecordCacheMiss("podcast_info")

	if got := counterValue(t, reg, "podcheck_cache_hit_total"); got != 1 {
		t.Errorf("cache_hit_total = %v, want 1", got)
	}
	if got := counterValue(t, reg, "podcheck_cache_miss_total"); got != 2 {
		t.Errorf("cache_miss_total = %v, want 2", got)
	}
}

func TestRecordDirectoryStatus_LabeledByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDirectoryStatus("200")
	c.RecordDirectoryStatus("401")
	c.RecordDirectoryStatus("error")

	if got := counterValue(t, reg, "podcheck_directory_request_total"); got != 3 {
		t.Errorf("directory_request_total = %v, want 3", got)
	}
}

// TestRecordCheckLatency_Observes はレイテンシのヒストグラムが記録されることを検証する。
func TestRecordCheckLatency_Observes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCheckLatency(150 * time.Millisecond)
	c.RecordCheckLatency(2 * time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != "podcheck_check_latency_seconds" {
			continue
		}
		if count := mf.GetMetric()[0].GetHistogram().GetSampleCount(); count != 2 {
			t.Errorf("sample count = %d, want 2", count)
		}
		return
	}
	t.Error("podcheck_check_latency_seconds metric not found")
}

// TestHandler_ServesMetrics はPrometheusスクレイプ形式でメトリクスが返ることを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordFetchSuccess("direct")
	c.RecordParseFailure()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "podcheck_fetch_success_total") {
		t.Error("podcheck_fetch_success_total がスクレイプ出力に含まれるべき")
	}
	if !strings.Contains(string(body), "podcheck_parse_fail_total") {
		t.Error("podcheck_parse_fail_total がスクレイプ出力に含まれるべき")
	}
}
