// Package remote はリモートフィードの受取人解決とポッドキャスト情報の解決を提供する。
// remoteItem参照（フィードGUID＋アイテムGUID）から対象フィードを特定し、
// フィード取得・ディレクトリAPI・静的フォールバックの多段経路で情報を埋める。
package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/podcheck/internal/fetch"
	"github.com/hitoshi/podcheck/internal/model"
)

const (
	// feedCacheTTL はリモートフィード解決結果の鮮度ウィンドウ。
	feedCacheTTL = 30 * time.Minute
	// infoCacheTTLAPI はAPI由来のポッドキャスト情報の鮮度ウィンドウ。
	infoCacheTTLAPI = time.Hour
	// infoCacheTTLStatic はフォールバック由来の情報の鮮度ウィンドウ。
	// 静的な値なので長めに保持する。
	infoCacheTTLStatic = 24 * time.Hour
	// batchStagger はバッチ解決時のリクエスト間隔。
	// 対象サーバーへの同時アクセスを避けるため1件ずつ開始をずらす。
	batchStagger = 100 * time.Millisecond
	// unknownTitle は解決不能なフィードのプレースホルダー表示名。
	unknownTitle = "Unknown Podcast"
)

// DirectoryService はポッドキャストディレクトリAPIの検索インターフェース。
type DirectoryService interface {
	Configured() bool
	PodcastByGUID(ctx context.Context, feedGUID string) (*model.PodcastInfo, error)
	EpisodeByGUID(ctx context.Context, episodeGUID, feedGUID string) (*model.EpisodeInfo, error)
}

// FeedFetcherService はフィード本文の取得インターフェース。
type FeedFetcherService interface {
	Fetch(ctx context.Context, targetURL string, accept string) (*fetch.Result, error)
}

// FeedParserService はフィード本文のパースインターフェース。
type FeedParserService interface {
	ParseValueSource(xmlContent string) (title string, guid string, value *model.ValueBlock, ok bool)
}

// CacheRecorder はキャッシュのヒット・ミスを記録するインターフェース。
type CacheRecorder interface {
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
}

// nopCacheRecorder は何も記録しないCacheRecorder。
type nopCacheRecorder struct{}

func (nopCacheRecorder) RecordCacheHit(cache string)  {}
func (nopCacheRecorder) RecordCacheMiss(cache string) {}

// キャッシュメトリクスのラベル値。
const (
	cacheNameFeed = "remote_feed"
	cacheNameInfo = "podcast_info"
)

// RSSHint は検査中のRSSフィード自身から得られたポッドキャスト情報のヒント。
// 宣言されたpodcast:guidが解決対象のGUIDと一致する場合のみ採用される。
type RSSHint struct {
	Title   string
	GUID    string
	FeedURL string
}

// CacheEntry はキャッシュ状態のデバッグ表現。
type CacheEntry struct {
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	LastFetched time.Time `json:"lastFetched"`
	HasError    bool      `json:"hasError"`
}

// CacheSnapshot はキャッシュ全体のデバッグ表現。
type CacheSnapshot struct {
	Size    int          `json:"size"`
	Entries []CacheEntry `json:"entries"`
}

// Resolver はリモートフィード解決のオーケストレーター。
// フィードGUIDごとに解決結果を一定時間キャッシュし、
// 取得失敗もキャッシュして失敗リクエストの繰り返しを防ぐ。
type Resolver struct {
	directory DirectoryService
	fetcher   FeedFetcherService
	parser    FeedParserService
	tables    Tables
	logger    *slog.Logger
	metrics   CacheRecorder
	now       func() time.Time // テスト用に現在時刻を差し替え可能
	stagger   time.Duration
	feedTTL   time.Duration

	mu        sync.Mutex
	feedCache map[string]*model.RemoteFeedInfo
	infoCache map[string]*model.PodcastInfo
}

// NewResolver はResolver の新しいインスタンスを生成する。
// feedTTLが0の場合は既定の鮮度ウィンドウを使用する。
// metricsがnilの場合はキャッシュメトリクスを記録しない。
func NewResolver(
	directory DirectoryService,
	fetcher FeedFetcherService,
	parser FeedParserService,
	tables Tables,
	logger *slog.Logger,
	metrics CacheRecorder,
	feedTTL time.Duration,
) *Resolver {
	if feedTTL <= 0 {
		feedTTL = feedCacheTTL
	}
	if metrics == nil {
		metrics = nopCacheRecorder{}
	}
	return &Resolver{
		directory: directory,
		fetcher:   fetcher,
		parser:    parser,
		tables:    tables,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
		stagger:   batchStagger,
		feedTTL:   feedTTL,
		feedCache: make(map[string]*model.RemoteFeedInfo),
		infoCache: make(map[string]*model.PodcastInfo),
	}
}

// ResolveValueBlock はフィードGUIDからフィードレベルの受取人ブロックを解決する。
// 解決経路は次の順: キャッシュ → 既知URL表（なければディレクトリAPIでURL発見）→
// フィード取得＋パース → フォールバック受取人表。
// 全経路が失敗した場合はnilを返し、失敗自体もキャッシュされる。
func (r *Resolver) ResolveValueBlock(ctx context.Context, feedGUID string) *model.ValueBlock {
	if cached := r.cachedFeedInfo(feedGUID); cached != nil {
		r.metrics.RecordCacheHit(cacheNameFeed)
		return cached.Value
	}
	r.metrics.RecordCacheMiss(cacheNameFeed)

	feedURL := r.tables.KnownFeeds[feedGUID]
	if feedURL == "" {
		// 既知URLがなければディレクトリAPIでフィードURLを発見する
		if info := r.ResolvePodcastInfo(ctx, feedGUID, nil); info != nil && info.FeedURL != "" {
			feedURL = info.FeedURL
		}
	}
	if feedURL == "" {
		r.logger.Warn("リモートフィードのURLを特定できませんでした",
			slog.String("feed_guid", feedGUID),
		)
		return r.fallbackOrFail(feedGUID, "", fmt.Errorf("フィードURLが不明です"))
	}

	value, title, err := r.fetchFeedValue(ctx, feedGUID, feedURL)
	if err != nil {
		return r.fallbackOrFail(feedGUID, feedURL, err)
	}

	r.storeFeedInfo(&model.RemoteFeedInfo{
		GUID:        feedGUID,
		Title:       title,
		FeedURL:     feedURL,
		Value:       value,
		LastFetched: r.now(),
	})

	recipientCount := 0
	if value != nil {
		recipientCount = len(value.Recipients)
	}
	r.logger.Info("リモートフィードの受取人を解決しました",
		slog.String("feed_guid", feedGUID),
		slog.String("title", title),
		slog.Int("recipient_count", recipientCount),
	)
	return value
}

// fetchFeedValue はフィードを取得・パースして受取人ブロックを抽出する。
// チャンネルレベルのブロックを優先し、なければ先頭アイテムのブロックを使う
// （パーサー実装がこの優先順位を適用する）。
func (r *Resolver) fetchFeedValue(ctx context.Context, feedGUID, feedURL string) (*model.ValueBlock, string, error) {
	result, err := r.fetcher.Fetch(ctx, feedURL, fetch.AcceptFeed)
	if err != nil {
		return nil, "", fmt.Errorf("リモートフィードの取得に失敗しました: %w", err)
	}

	title, _, value, ok := r.parser.ParseValueSource(string(result.Body))
	if !ok {
		return nil, "", fmt.Errorf("リモートフィードのパースに失敗しました")
	}
	if title == "" {
		title = unknownTitle
	}
	return value, title, nil
}

// fallbackOrFail は取得失敗時のフォールバック処理。
// フォールバック受取人表にエントリがあればそれを返し、なければnilを返す。
// どちらの結果もlastFetched付きでキャッシュされる。
func (r *Resolver) fallbackOrFail(feedGUID, feedURL string, cause error) *model.ValueBlock {
	if fallback, ok := r.tables.FallbackValue[feedGUID]; ok {
		r.logger.Info("フォールバック受取人を使用します",
			slog.String("feed_guid", feedGUID),
			slog.Int("recipient_count", len(fallback.Recipients)),
		)
		r.storeFeedInfo(&model.RemoteFeedInfo{
			GUID:        feedGUID,
			Title:       "Remote Podcast",
			FeedURL:     feedURL,
			Value:       fallback,
			LastFetched: r.now(),
			Error:       fmt.Sprintf("フォールバックデータを使用: %v", cause),
		})
		return fallback
	}

	r.logger.Warn("リモートフィードの解決に失敗しました",
		slog.String("feed_guid", feedGUID),
		slog.String("error", cause.Error()),
	)
	r.storeFeedInfo(&model.RemoteFeedInfo{
		GUID:        feedGUID,
		Title:       unknownTitle,
		FeedURL:     feedURL,
		LastFetched: r.now(),
		Error:       cause.Error(),
	})
	return nil
}

// ResolveManyValueBlocks は複数のフィードGUIDを並行して解決する。
// 各リクエストの開始を一定間隔ずらし、1件の失敗が他のGUIDの解決を妨げない。
// 戻り値のマップは解決できなかったGUIDに対してnilを保持する。
func (r *Resolver) ResolveManyValueBlocks(ctx context.Context, feedGUIDs []string) map[string]*model.ValueBlock {
	results := make(map[string]*model.ValueBlock, len(feedGUIDs))

	var wg sync.WaitGroup
	var resultMu sync.Mutex
	for i, guid := range feedGUIDs {
		wg.Add(1)
		go func(index int, feedGUID string) {
			defer wg.Done()
			// 開始をずらして対象サーバーへの集中を避ける。
			// キャッシュ済みのGUIDも同じ経路で即座に返る。
			select {
			case <-time.After(time.Duration(index) * r.stagger):
			case <-ctx.Done():
				return
			}
			value := r.ResolveValueBlock(ctx, feedGUID)
			resultMu.Lock()
			results[feedGUID] = value
			resultMu.Unlock()
		}(i, guid)
	}
	wg.Wait()
	return results
}

// ResolvePodcastInfo はフィードGUIDからポッドキャストの表示情報を解決する。
// 解決経路は次の順: キャッシュ → ディレクトリAPI → RSSヒント →
// フォールバック名表 → GUID先頭8文字を埋め込んだプレースホルダー。常に非nilを返す。
// RSSヒントは宣言されたpodcast:guidが対象GUIDと一致する場合のみ採用される。
func (r *Resolver) ResolvePodcastInfo(ctx context.Context, feedGUID string, hint *RSSHint) *model.PodcastInfo {
	if cached := r.cachedPodcastInfo(feedGUID); cached != nil {
		r.metrics.RecordCacheHit(cacheNameInfo)
		return cached
	}
	r.metrics.RecordCacheMiss(cacheNameInfo)

	if r.directory.Configured() {
		info, err := r.directory.PodcastByGUID(ctx, feedGUID)
		if err == nil {
			r.storePodcastInfo(info)
			return info
		}
		r.logger.Warn("ディレクトリAPIでの解決に失敗しました",
			slog.String("feed_guid", feedGUID),
			slog.String("error", err.Error()),
		)
	}

	if hint != nil && hint.GUID == feedGUID && hint.Title != "" {
		info := &model.PodcastInfo{
			Title:       hint.Title,
			FeedGUID:    feedGUID,
			FeedURL:     hint.FeedURL,
			Source:      model.InfoSourceRSS,
			LastFetched: r.now(),
		}
		r.storePodcastInfo(info)
		return info
	}

	if name, ok := r.tables.FallbackNames[feedGUID]; ok {
		info := &model.PodcastInfo{
			Title:       name,
			FeedGUID:    feedGUID,
			FeedURL:     r.tables.KnownFeeds[feedGUID],
			Source:      model.InfoSourceFallback,
			LastFetched: r.now(),
		}
		r.storePodcastInfo(info)
		return info
	}

	info := &model.PodcastInfo{
		Title:       fmt.Sprintf("%s (%s...)", unknownTitle, shortGUID(feedGUID)),
		FeedGUID:    feedGUID,
		Source:      model.InfoSourceFallback,
		LastFetched: r.now(),
	}
	r.storePodcastInfo(info)
	return info
}

// ResolveManyPodcastInfos は複数のフィードGUIDの表示情報を並行して解決する。
// キャッシュ済みのGUIDはネットワークアクセスなしで返される。
func (r *Resolver) ResolveManyPodcastInfos(ctx context.Context, feedGUIDs []string, hint *RSSHint) map[string]*model.PodcastInfo {
	results := make(map[string]*model.PodcastInfo, len(feedGUIDs))

	var pending []string
	for _, guid := range feedGUIDs {
		if cached := r.cachedPodcastInfo(guid); cached != nil {
			r.metrics.RecordCacheHit(cacheNameInfo)
			results[guid] = cached
		} else {
			pending = append(pending, guid)
		}
	}

	var wg sync.WaitGroup
	var resultMu sync.Mutex
	for i, guid := range pending {
		wg.Add(1)
		go func(index int, feedGUID string) {
			defer wg.Done()
			select {
			case <-time.After(time.Duration(index) * r.stagger):
			case <-ctx.Done():
				return
			}
			info := r.ResolvePodcastInfo(ctx, feedGUID, hint)
			resultMu.Lock()
			results[feedGUID] = info
			resultMu.Unlock()
		}(i, guid)
	}
	wg.Wait()
	return results
}

// ResolveEpisodeInfo はリモートフィード上のエピソードをディレクトリAPIで検索する。
// API未設定または未発見の場合はnilを返す。失敗の理由はログに残す。
func (r *Resolver) ResolveEpisodeInfo(ctx context.Context, feedGUID, episodeGUID string) *model.EpisodeInfo {
	if !r.directory.Configured() {
		return nil
	}

	info, err := r.directory.EpisodeByGUID(ctx, episodeGUID, feedGUID)
	if err != nil {
		r.logger.Warn("リモートエピソードの解決に失敗しました",
			slog.String("feed_guid", feedGUID),
			slog.String("episode_guid", episodeGUID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return info
}

// ClearCache は指定GUIDのキャッシュを破棄する。空文字列の場合は全体を破棄する。
func (r *Resolver) ClearCache(feedGUID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if feedGUID == "" {
		r.feedCache = make(map[string]*model.RemoteFeedInfo)
		r.infoCache = make(map[string]*model.PodcastInfo)
		return
	}
	delete(r.feedCache, feedGUID)
	delete(r.infoCache, feedGUID)
}

// CacheInfo はフィード解決キャッシュのデバッグスナップショットを返す。
func (r *Resolver) CacheInfo() CacheSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]CacheEntry, 0, len(r.feedCache))
	for guid, info := range r.feedCache {
		entries = append(entries, CacheEntry{
			GUID:        guid,
			Title:       info.Title,
			LastFetched: info.LastFetched,
			HasError:    info.Error != "",
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].GUID < entries[j].GUID })

	return CacheSnapshot{Size: len(entries), Entries: entries}
}

func (r *Resolver) cachedFeedInfo(feedGUID string) *model.RemoteFeedInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.feedCache[feedGUID]
	if !ok || r.now().Sub(info.LastFetched) >= r.feedTTL {
		return nil
	}
	return info
}

func (r *Resolver) storeFeedInfo(info *model.RemoteFeedInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedCache[info.GUID] = info
}

func (r *Resolver) cachedPodcastInfo(feedGUID string) *model.PodcastInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.infoCache[feedGUID]
	if !ok {
		return nil
	}
	ttl := infoCacheTTLStatic
	if info.Source == model.InfoSourceAPI {
		ttl = infoCacheTTLAPI
	}
	if r.now().Sub(info.LastFetched) >= ttl {
		return nil
	}
	return info
}

func (r *Resolver) storePodcastInfo(info *model.PodcastInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infoCache[info.FeedGUID] = info
}

func shortGUID(guid string) string {
	if len(guid) <= 8 {
		return guid
	}
	return guid[:8]
}
