package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// AcceptFeed はフィード取得時のAcceptヘッダ。
const AcceptFeed = "application/rss+xml, application/xml, text/xml, */*"

// userAgent は外部リクエストで名乗るUser-Agent。
const userAgent = "Podcheck/1.0 Podcasting 2.0 Checker"

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// MetricsRecorder はトランスポート層のメトリクス収集のインターフェース。
type MetricsRecorder interface {
	RecordFetchSuccess(via string)
	RecordFetchFailure(reason string)
	RecordProxyFallback(transport string)
}

// Result はフェッチ結果を表す。
// Viaは成功した経路（"direct" またはリレー名）。
type Result struct {
	Body        []byte
	ContentType string
	Via         string
}

// Fetcher は直接フェッチとCORSリレーのフォールバックチェーンを実装する。
// ユーザー指定URLへの直接リクエストはSSRF防止クライアントで行い、
// 失敗時は優先順のリレーを成功するまで順に試す。
type Fetcher struct {
	ssrfGuard   SSRFValidator
	proxies     []ProxyTransport
	proxyClient *http.Client
	logger      *slog.Logger
	metrics     MetricsRecorder
	timeout     time.Duration
	maxBodySize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
// proxiesがnilの場合は既定のリレーチェーンを使用する。
func NewFetcher(
	ssrfGuard SSRFValidator,
	proxies []ProxyTransport,
	logger *slog.Logger,
	metrics MetricsRecorder,
	timeout time.Duration,
	maxBodySize int64,
) *Fetcher {
	if proxies == nil {
		proxies = DefaultProxyChain()
	}
	return &Fetcher{
		ssrfGuard:   ssrfGuard,
		proxies:     proxies,
		proxyClient: &http.Client{Timeout: timeout},
		logger:      logger,
		metrics:     metrics,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Fetch は対象URLのコンテンツを取得する。
// 直接フェッチに失敗した場合（ネットワークエラー・非2xx）はリレーチェーンを
// 順に試し、すべて失敗した場合にエラーを返す。
func (f *Fetcher) Fetch(ctx context.Context, targetURL string, accept string) (*Result, error) {
	if err := f.ssrfGuard.ValidateURL(targetURL); err != nil {
		f.metrics.RecordFetchFailure("ssrf")
		return nil, fmt.Errorf("URL検証に失敗しました: %w", err)
	}

	// 直接フェッチ
	result, err := f.fetchDirect(ctx, targetURL, accept)
	if err == nil {
		f.metrics.RecordFetchSuccess("direct")
		return result, nil
	}
	f.logger.Warn("直接フェッチに失敗しました。リレーを試します",
		slog.String("url", targetURL),
		slog.String("error", err.Error()),
	)

	// リレーチェーンのフォールバック
	for _, proxy := range f.proxies {
		f.metrics.RecordProxyFallback(proxy.Name)

		result, proxyErr := f.fetchViaProxy(ctx, proxy, targetURL)
		if proxyErr != nil {
			f.logger.Warn("リレー経由のフェッチに失敗しました",
				slog.String("transport", proxy.Name),
				slog.String("url", targetURL),
				slog.String("error", proxyErr.Error()),
			)
			continue
		}

		f.logger.Info("リレー経由でフェッチに成功しました",
			slog.String("transport", proxy.Name),
			slog.String("url", targetURL),
		)
		f.metrics.RecordFetchSuccess(proxy.Name)
		return result, nil
	}

	f.metrics.RecordFetchFailure("exhausted")
	return nil, fmt.Errorf("すべてのトランスポートでフェッチに失敗しました: %s", targetURL)
}

// fetchDirect はSSRF防止クライアントで対象URLを直接取得する。
func (f *Fetcher) fetchDirect(ctx context.Context, targetURL, accept string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxBodySize)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return &Result{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Via:         "direct",
	}, nil
}

// fetchViaProxy は1つのリレー経由で対象URLを取得する。
func (f *Fetcher) fetchViaProxy(ctx context.Context, proxy ProxyTransport, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxy.BuildURL(targetURL), nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.proxyClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if proxy.Unwrap != nil {
		body, err = proxy.Unwrap(body)
		if err != nil {
			return nil, err
		}
	}

	return &Result{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Via:         proxy.Name,
	}, nil
}
