// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// フェッチ層・解決層・ハンドラー層から利用する。
type MetricsCollector interface {
	RecordFetchSuccess(via string)
	RecordFetchFailure(reason string)
	RecordProxyFallback(transport string)
	RecordParseFailure()
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
	RecordDirectoryStatus(status string)
	RecordCheckLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	fetchSuccess  *prometheus.CounterVec
	fetchFail     *prometheus.CounterVec
	proxyFallback *prometheus.CounterVec
	parseFail     prometheus.Counter
	cacheHit      *prometheus.CounterVec
	cacheMiss     *prometheus.CounterVec
	dirRequest    *prometheus.CounterVec
	checkLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcheck_fetch_success_total",
			Help: "フェッチ成功の合計数（経路別）",
		}, []string{"via"}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcheck_fetch_fail_total",
			Help: "フェッチ失敗の合計数（理由別）",
		}, []string{"reason"}),
		proxyFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcheck_proxy_fallback_total",
			Help: "CORSリレーへのフォールバック回数（リレー別）",
		}, []string{"transport"}),
		parseFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podcheck_parse_fail_total",
			Help: "フィードパース失敗の合計数",
		}),
		cacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcheck_cache_hit_total",
			Help: "キャッシュヒットの合計数（キャッシュ別）",
		}, []string{"cache"}),
		cacheMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcheck_cache_miss_total",
			Help: "キャッシュミスの合計数（キャッシュ別）",
		}, []string{"cache"}),
		dirRequest: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcheck_directory_request_total",
			Help: "ディレクトリAPIリクエストの合計数（結果別）",
		}, []string{"status"}),
		checkLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "podcheck_check_latency_seconds",
			Help:    "フィード検査1回あたりのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.proxyFallback,
		c.parseFail,
		c.cacheHit,
		c.cacheMiss,
		c.dirRequest,
		c.checkLatency,
	)

	return c
}

// RecordFetchSuccess はフェッチ成功を経路別に記録する。
// viaは"direct"またはリレー名。
func (c *Collector) RecordFetchSuccess(via string) {
	c.fetchSuccess.WithLabelValues(via).Inc()
}

// RecordFetchFailure はフェッチ失敗を理由別に記録する。
func (c *Collector) RecordFetchFailure(reason string) {
	c.fetchFail.WithLabelValues(reason).Inc()
}

// RecordProxyFallback はリレーへのフォールバックを記録する。
func (c *Collector) RecordProxyFallback(transport string) {
	c.proxyFallback.WithLabelValues(transport).Inc()
}

// RecordParseFailure はパース失敗を記録する。
func (c *Collector) RecordParseFailure() {
	c.parseFail.Inc()
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit(cache string) {
	c.cacheHit.WithLabelValues(cache).Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss(cache string) {
	c.cacheMiss.WithLabelValues(cache).Inc()
}

// RecordDirectoryStatus はディレクトリAPIリクエストの結果を記録する。
// statusはHTTPステータスコードの文字列、または"error"。
func (c *Collector) RecordDirectoryStatus(status string) {
	c.dirRequest.WithLabelValues(status).Inc()
}

// RecordCheckLatency はフィード検査のレイテンシを記録する。
func (c *Collector) RecordCheckLatency(duration time.Duration) {
	c.checkLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
