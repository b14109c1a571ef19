// Package directory はポッドキャストディレクトリAPI（PodcastIndex互換）との連携を提供する。
// GUIDによるポッドキャスト検索とエピソード検索、およびリクエスト署名を含む。
package directory

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/podcheck/internal/fetch"
	"github.com/hitoshi/podcheck/internal/model"
)

const (
	// defaultBaseURL はPodcastIndex APIのベースURL。
	defaultBaseURL = "https://api.podcastindex.org/api/1.0"
	// userAgent はディレクトリAPIリクエストのUser-Agent。
	userAgent = "Podcheck/1.0 Podcasting 2.0 Checker"
	// maxResponseSize はAPIレスポンスボディの上限サイズ。
	maxResponseSize = 1 << 20
)

// Credentials はディレクトリAPIの認証情報。
// 両方が空の場合、クライアントは未設定として扱われる。
type Credentials struct {
	APIKey    string
	APISecret string
}

// Configured は認証情報が設定されているかを返す。
func (c Credentials) Configured() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// StatusRecorder はディレクトリAPIリクエストの結果を記録するインターフェース。
type StatusRecorder interface {
	RecordDirectoryStatus(status string)
}

// nopStatusRecorder は何も記録しないStatusRecorder。
type nopStatusRecorder struct{}

func (nopStatusRecorder) RecordDirectoryStatus(status string) {}

// Client はポッドキャストディレクトリAPIのクライアント。
// 全リクエストにkey+secret+現在時刻のSHA-1署名ヘッダーを付与する。
type Client struct {
	httpClient *http.Client
	creds      Credentials
	retry      fetch.RetryPolicy
	logger     *slog.Logger
	metrics    StatusRecorder
	baseURL    string           // テスト用にエンドポイントを差し替え可能
	now        func() time.Time // テスト用に現在時刻を差し替え可能
}

// NewClient はClient の新しいインスタンスを生成する。
// metricsがnilの場合はリクエスト結果を記録しない。
func NewClient(httpClient *http.Client, creds Credentials, retry fetch.RetryPolicy, logger *slog.Logger, metrics StatusRecorder) *Client {
	if metrics == nil {
		metrics = nopStatusRecorder{}
	}
	return &Client{
		httpClient: httpClient,
		creds:      creds,
		retry:      retry,
		logger:     logger,
		metrics:    metrics,
		baseURL:    defaultBaseURL,
		now:        time.Now,
	}
}

// Configured は認証情報が設定されているかを返す。
// 未設定の場合、呼び出し元はAPI検索を飛ばしてフォールバック経路へ進む。
func (c *Client) Configured() bool {
	return c.creds.Configured()
}

// authHeaders はリクエストに署名ヘッダーを付与する。
// 署名はAPIキー・シークレット・UNIX秒の連結のSHA-1ハッシュ。
func (c *Client) authHeaders(req *http.Request) {
	authDate := strconv.FormatInt(c.now().Unix(), 10)
	hash := sha1.Sum([]byte(c.creds.APIKey + c.creds.APISecret + authDate))

	req.Header.Set("X-Auth-Date", authDate)
	req.Header.Set("X-Auth-Key", c.creds.APIKey)
	req.Header.Set("Authorization", hex.EncodeToString(hash[:]))
	req.Header.Set("User-Agent", userAgent)
}

// apiStatus はエンベロープのstatusフィールド。サーバー実装によって
// JSON真偽値と文字列"true"の両方が観測されるため、どちらも受け付ける。
type apiStatus bool

func (s *apiStatus) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", `"true"`:
		*s = true
	default:
		*s = false
	}
	return nil
}

// podcastEnvelope はpodcasts/byguidのレスポンスエンベロープ。
type podcastEnvelope struct {
	Status apiStatus `json:"status"`
	Feed   struct {
		ID           int    `json:"id"`
		Title        string `json:"title"`
		Author       string `json:"author"`
		Image        string `json:"image"`
		URL          string `json:"url"`
		PodcastGUID  string `json:"podcastGuid"`
		Description  string `json:"description"`
		EpisodeCount int    `json:"episodeCount"`
	} `json:"feed"`
}

// episodeEnvelope はepisodes/byguidのレスポンスエンベロープ。
type episodeEnvelope struct {
	Status  apiStatus `json:"status"`
	Episode struct {
		ID          int    `json:"id"`
		Title       string `json:"title"`
		GUID        string `json:"guid"`
		FeedID      int    `json:"feedId"`
		PodcastGUID string `json:"podcastGuid"`
	} `json:"episode"`
}

// PodcastByGUID はフィードGUIDでポッドキャストを検索する。
// レスポンスのstatusがtrue以外、またはフィードIDが0の場合は未発見として
// エラーを返す。認証情報が未設定の場合も即座にエラーを返す。
func (c *Client) PodcastByGUID(ctx context.Context, feedGUID string) (*model.PodcastInfo, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("ディレクトリAPIの認証情報が設定されていません")
	}

	reqURL := fmt.Sprintf("%s/podcasts/byguid?guid=%s", c.baseURL, url.QueryEscape(feedGUID))

	var env podcastEnvelope
	if err := c.getJSON(ctx, reqURL, &env); err != nil {
		return nil, err
	}

	if !env.Status || env.Feed.ID == 0 {
		return nil, fmt.Errorf("ディレクトリAPIでGUID %s のポッドキャストが見つかりませんでした", feedGUID)
	}

	return &model.PodcastInfo{
		ID:          env.Feed.ID,
		Title:       env.Feed.Title,
		Author:      env.Feed.Author,
		Image:       env.Feed.Image,
		FeedGUID:    feedGUID,
		FeedURL:     env.Feed.URL,
		Source:      model.InfoSourceAPI,
		LastFetched: c.now(),
	}, nil
}

// EpisodeByGUID はエピソードGUIDでエピソードを検索する。
// feedGUIDが空でない場合、検索範囲をそのフィードに限定する。
func (c *Client) EpisodeByGUID(ctx context.Context, episodeGUID, feedGUID string) (*model.EpisodeInfo, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("ディレクトリAPIの認証情報が設定されていません")
	}

	reqURL := fmt.Sprintf("%s/episodes/byguid?guid=%s", c.baseURL, url.QueryEscape(episodeGUID))
	if feedGUID != "" {
		reqURL += "&feedguid=" + url.QueryEscape(feedGUID)
	}

	var env episodeEnvelope
	if err := c.getJSON(ctx, reqURL, &env); err != nil {
		return nil, err
	}

	if !env.Status || env.Episode.ID == 0 {
		return nil, fmt.Errorf("ディレクトリAPIでGUID %s のエピソードが見つかりませんでした", episodeGUID)
	}

	return &model.EpisodeInfo{
		ID:       env.Episode.ID,
		Title:    env.Episode.Title,
		GUID:     env.Episode.GUID,
		FeedGUID: env.Episode.PodcastGUID,
	}, nil
}

// getJSON は署名付きGETを再試行ポリシーに従って実行し、JSONをデコードする。
// 429/5xxは再試行し、401/404等はfetch.StatusErrorとして即座に打ち切る。
func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	var body []byte

	err := c.retry.Do(ctx, func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return 0, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
		}
		c.authHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.metrics.RecordDirectoryStatus("error")
			return 0, err
		}
		defer resp.Body.Close()
		c.metrics.RecordDirectoryStatus(strconv.Itoa(resp.StatusCode))

		if resp.StatusCode != http.StatusOK {
			// ステータス分類はRetryPolicy側に委ねる。エラーを返すと
			// 401/404まで再試行されてしまう。
			io.Copy(io.Discard, resp.Body)
			return resp.StatusCode, nil
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return resp.StatusCode, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
		}
		return resp.StatusCode, nil
	})
	if err != nil {
		c.logger.Warn("ディレクトリAPIの呼び出しに失敗しました",
			slog.String("url", reqURL),
			slog.String("error", err.Error()),
		)
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("ディレクトリAPIレスポンスのパースに失敗しました: %w", err)
	}
	return nil
}
